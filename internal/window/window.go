// Package window produces calendar month windows used to page through the tender source.
package window

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for window boundaries.
const DateLayout = "2006-01-02"

// Window is a closed interval covering exactly one calendar month.
type Window struct {
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time
}

// MonthRange returns the first and last calendar day of the given month (UTC, midnight).
// December rolls over to January of the following year before stepping back a day.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	nextYear, nextMonth := year, month+1
	if month == time.December {
		nextYear, nextMonth = year+1, time.January
	}
	end := time.Date(nextYear, nextMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	return start, end
}

// ForMonth builds the Window for a single month.
func ForMonth(year int, month time.Month) Window {
	start, end := MonthRange(year, month)
	return Window{Year: year, Month: month, Start: start, End: end}
}

// Months returns every month from January of startYear through December of endYear,
// ascending by year then month. An inverted range yields nil.
func Months(startYear, endYear int) []Window {
	if endYear < startYear {
		return nil
	}

	windows := make([]Window, 0, (endYear-startYear+1)*12)
	for y := startYear; y <= endYear; y++ {
		for m := time.January; m <= time.December; m++ {
			windows = append(windows, ForMonth(y, m))
		}
	}
	return windows
}

// Label returns the window as YYYY-MM.
func (w Window) Label() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}

// From returns the start boundary in wire format.
func (w Window) From() string {
	return w.Start.Format(DateLayout)
}

// To returns the end boundary in wire format.
func (w Window) To() string {
	return w.End.Format(DateLayout)
}

// Contains reports whether t falls on a calendar day inside the window.
func (w Window) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}
