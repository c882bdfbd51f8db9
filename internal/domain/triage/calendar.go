package triage

import (
	"fmt"
	"math"
)

// Calendar describes the vertical scale of a nurse column.
type Calendar struct {
	// WindowStart and WindowEnd bound the visible day, in minutes since midnight.
	WindowStart int
	WindowEnd   int
	// HeightPx is the rendered pixel height of a column.
	HeightPx int
	// MaxWindowMinutes is the duration that maps to 100% height.
	MaxWindowMinutes int
}

// DefaultCalendar shows 07:00 to 21:00 with one pixel per minute.
func DefaultCalendar() Calendar {
	return Calendar{
		WindowStart:      7 * 60,
		WindowEnd:        21 * 60,
		HeightPx:         840,
		MaxWindowMinutes: 14 * 60,
	}
}

// NewCalendar builds a calendar from "HH:MM" window bounds.
func NewCalendar(start, end string, heightPx, maxWindowMinutes int) (Calendar, error) {
	s, e := Minutes(start), Minutes(end)
	if math.IsNaN(s) {
		return Calendar{}, fmt.Errorf("invalid calendar start %q", start)
	}
	if math.IsNaN(e) {
		return Calendar{}, fmt.Errorf("invalid calendar end %q", end)
	}
	if s >= e {
		return Calendar{}, fmt.Errorf("calendar start %s must be before end %s", start, end)
	}
	if heightPx <= 0 {
		return Calendar{}, fmt.Errorf("calendar height must be positive, got %d", heightPx)
	}
	if maxWindowMinutes <= 0 {
		return Calendar{}, fmt.Errorf("max window minutes must be positive, got %d", maxWindowMinutes)
	}
	return Calendar{
		WindowStart:      int(s),
		WindowEnd:        int(e),
		HeightPx:         heightPx,
		MaxWindowMinutes: maxWindowMinutes,
	}, nil
}

// VerticalOffset places an arrival time in pixels from the top of a column.
// Times outside the window land above or below it. Halves round up.
func (c Calendar) VerticalOffset(arrivedAt string) float64 {
	span := float64(c.WindowEnd - c.WindowStart)
	return math.Floor((Minutes(arrivedAt)-float64(c.WindowStart))/span*float64(c.HeightPx) + 0.5)
}

// DurationHeightPercent is the card height as a percentage of the column.
func (c Calendar) DurationHeightPercent(arrivedAt, completeBy string) float64 {
	return 100 * (Minutes(completeBy) - Minutes(arrivedAt)) / float64(c.MaxWindowMinutes)
}
