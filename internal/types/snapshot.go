package types

import "time"

// LocalePolicy controls how timestamps are rendered into the human-readable
// day and time fields of a ContextSnapshot.
type LocalePolicy struct {
	Location *time.Location
	// DayNames is indexed by time.Weekday. Empty entries fall back to the
	// English weekday name.
	DayNames  [7]string
	Use24Hour bool
}

// DefaultLocale renders English weekday names and a zero-padded 12-hour clock
// ("Monday", "03:04 PM") in the local time zone.
func DefaultLocale() LocalePolicy {
	return LocalePolicy{Location: time.Local}
}

func (p LocalePolicy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// DayOfWeek returns the weekday name of t in the policy's location.
func (p LocalePolicy) DayOfWeek(t time.Time) string {
	wd := t.In(p.location()).Weekday()
	if name := p.DayNames[wd]; name != "" {
		return name
	}
	return wd.String()
}

// TimeOfDay returns the hour and minute of t in the policy's location.
func (p LocalePolicy) TimeOfDay(t time.Time) string {
	if p.Use24Hour {
		return t.In(p.location()).Format("15:04")
	}
	return t.In(p.location()).Format("03:04 PM")
}

// SnapshotFactory is the single place ContextSnapshots are built.
type SnapshotFactory struct {
	Clock  Clock
	Locale LocalePolicy
}

// NewSnapshotFactory returns a factory using clock and locale. A nil clock
// means RealClock.
func NewSnapshotFactory(clock Clock, locale LocalePolicy) SnapshotFactory {
	if clock == nil {
		clock = RealClock{}
	}
	return SnapshotFactory{Clock: clock, Locale: locale}
}

// Build stamps the coordinates and weather with the current time.
func (f SnapshotFactory) Build(at Coordinates, weather WeatherSnapshot) ContextSnapshot {
	clock := f.Clock
	if clock == nil {
		clock = RealClock{}
	}
	now := clock.Now()
	return ContextSnapshot{
		Coordinates: at,
		Weather:     weather,
		TimestampMs: now.UnixMilli(),
		DayOfWeek:   f.Locale.DayOfWeek(now),
		TimeOfDay:   f.Locale.TimeOfDay(now),
	}
}
