package predict

import (
	"sync"

	"lumera/internal/types"
)

// Slots holds the two display copies a UI renders: the live proactive alert
// and the most recent manual result. Both hold copies of ledger records.
type Slots struct {
	mu     sync.RWMutex
	live   *types.PredictionRecord
	manual *types.PredictionRecord
}

// NewSlots returns empty slots.
func NewSlots() *Slots {
	return &Slots{}
}

func copyOf(rec *types.PredictionRecord) (types.PredictionRecord, bool) {
	if rec == nil {
		return types.PredictionRecord{}, false
	}
	return rec.Clone(), true
}

// LiveAlert returns the live proactive alert, if any.
func (s *Slots) LiveAlert() (types.PredictionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyOf(s.live)
}

// HasLiveAlert reports whether a proactive alert is live.
func (s *Slots) HasLiveAlert() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live != nil
}

// SetLiveAlert replaces the live alert.
func (s *Slots) SetLiveAlert(rec types.PredictionRecord) {
	c := rec.Clone()
	s.mu.Lock()
	s.live = &c
	s.mu.Unlock()
}

// DismissAlert clears the live alert and reports whether one was set.
func (s *Slots) DismissAlert() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.live != nil
	s.live = nil
	return had
}

// ManualResult returns the last manual prediction, if any.
func (s *Slots) ManualResult() (types.PredictionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyOf(s.manual)
}

// SetManualResult replaces the manual result.
func (s *Slots) SetManualResult(rec types.PredictionRecord) {
	c := rec.Clone()
	s.mu.Lock()
	s.manual = &c
	s.mu.Unlock()
}

// ClearManualResult empties the manual slot.
func (s *Slots) ClearManualResult() {
	s.mu.Lock()
	s.manual = nil
	s.mu.Unlock()
}

// Refresh replaces the prediction held in any slot whose record id matches
// rec.ID and reports how many slots were updated.
func (s *Slots) Refresh(rec types.PredictionRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	if s.live != nil && s.live.ID == rec.ID {
		s.live.Prediction = rec.Prediction.Clone()
		n++
	}
	if s.manual != nil && s.manual.ID == rec.ID {
		s.manual.Prediction = rec.Prediction.Clone()
		n++
	}
	return n
}
