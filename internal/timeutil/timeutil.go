package timeutil

import (
	"fmt"
	"math"
	"time"
)

const (
	dateLayout        = "2006-01-02"
	lastUpdatedLayout = "2006-01-02 15:04"
	clock12Layout     = "03:04 PM"
	clock24Layout     = "15:04"
)

// weekdaysPTBR maps time.Weekday to the pt-BR weekday name used across the UI.
var weekdaysPTBR = [7]string{
	"domingo",
	"segunda-feira",
	"terça-feira",
	"quarta-feira",
	"quinta-feira",
	"sexta-feira",
	"sábado",
}

// WeekdayLabel derives the localized weekday name from a forecast date
// ("2006-01-02"). Pure function of the date; upstream weekday hints are never
// trusted.
func WeekdayLabel(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse forecast date %q: %w", date, err)
	}
	return weekdaysPTBR[t.Weekday()], nil
}

// To24Hour converts a 12-hour clock string ("06:45 AM") to 24-hour form ("06:45").
// Astro times arrive from upstream in the 12-hour form.
func To24Hour(s string) (string, error) {
	t, err := time.Parse(clock12Layout, s)
	if err != nil {
		return "", fmt.Errorf("parse 12-hour time %q: %w", s, err)
	}
	return t.Format(clock24Layout), nil
}

// RoundTemp rounds a display value to the nearest integer, halves toward
// positive infinity.
func RoundTemp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// FormatDate converts a forecast date to the dd/MM/yyyy display form.
func FormatDate(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse forecast date %q: %w", date, err)
	}
	return t.Format("02/01/2006"), nil
}

// FormatLastUpdated converts an upstream last_updated timestamp
// ("2006-01-02 15:04") to the display form "02/01/2006 15:04h".
func FormatLastUpdated(s string) (string, error) {
	t, err := time.Parse(lastUpdatedLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse last_updated %q: %w", s, err)
	}
	return t.Format("02/01/2006 15:04") + "h", nil
}
