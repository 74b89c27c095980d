package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricPredictionCount   = "PredictionCount"
	MetricPredictionLatency = "PredictionLatency"
	MetricTickDecision      = "TickDecision"

	// Dimension Keys
	DimKind     = "Kind"
	DimOutcome  = "Outcome"
	DimDecision = "Decision"

	// Metric Namespace
	MetricNamespace = "Lumera"
)

// Outcome values reported with MetricPredictionCount.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)
