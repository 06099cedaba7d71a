package ingestor

import "time"

const (
	ONE_DAY     = 24 * time.Hour
	DefaultDays = 1
)

type TimeRange interface {
	Start() time.Time
	End() time.Time
}

// DayRange is the window covering the last n days, ending at a fixed instant.
type DayRange struct {
	days int
	end  time.Time
}

func (dr DayRange) Start() time.Time {
	return dr.end.Add(-time.Duration(dr.days) * ONE_DAY)
}

func (dr DayRange) End() time.Time {
	return dr.end
}

func (dr DayRange) Days() int {
	return dr.days
}

// NewDayRange builds the window for days ending at end. Non-positive day
// counts fall back to DefaultDays.
func NewDayRange(days int, end time.Time) DayRange {
	if days <= 0 {
		days = DefaultDays
	}
	return DayRange{days: days, end: end}
}
