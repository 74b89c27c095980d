// Package scheduler decides, without user action, when the user has returned
// to a place that matters and a proactive prediction should be made.
//
// TriggerPolicy holds the decision; ProactiveRunner evaluates it on a fixed
// interval until its context is cancelled.
package scheduler

import "time"

// Defaults for the proactive trigger.
const (
	DefaultTickInterval            = 30 * time.Second
	DefaultSignificantLogCount     = 3
	DefaultSignificantRadiusMeters = 150.0
	DefaultDebounceWindow          = 5 * time.Minute
)

// Decision is the outcome of one policy evaluation.
type Decision string

const (
	DecisionSkippedLiveAlert      Decision = "skipped_live_alert"
	DecisionSkippedBusy           Decision = "skipped_busy"
	DecisionSkippedHistory        Decision = "skipped_history"
	DecisionSkippedLocation       Decision = "skipped_location"
	DecisionSkippedDebounce       Decision = "skipped_debounce"
	DecisionSkippedNotSignificant Decision = "skipped_not_significant"
	DecisionFailedPrediction      Decision = "failed_prediction"
	DecisionTriggered             Decision = "triggered"
)

// Triggered reports whether d produced a new alert.
func (d Decision) Triggered() bool { return d == DecisionTriggered }
