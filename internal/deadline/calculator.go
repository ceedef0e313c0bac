package deadline

import (
	"strconv"
	"strings"
	"time"
)

// Cutoff defaults used when a component of the configured time is missing
// or unparseable.
const (
	defaultCutoffHour   = 12
	defaultCutoffMinute = 0
)

// CutoffTime is the same-day order cutoff. Orders placed strictly after it
// start counting from the next calendar day.
type CutoffTime struct {
	Hour   int
	Minute int
}

// ParseCutoff parses "HH:MM". An empty string means no cutoff is
// configured. Missing or malformed components fall back to 12:00.
func ParseCutoff(s string) *CutoffTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	c := &CutoffTime{Hour: defaultCutoffHour, Minute: defaultCutoffMinute}
	parts := strings.SplitN(s, ":", 2)

	if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && h >= 0 && h <= 23 {
		c.Hour = h
	}
	if len(parts) > 1 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && m >= 0 && m <= 59 {
			c.Minute = m
		}
	}
	return c
}

// CalculateLatestDate computes a commitment date from a base instant.
//
// The cutoff rule is applied once, up front: when base is strictly after
// the same-day cutoff instant, the working date advances one calendar day
// before any offset counting starts. Offsets are then consumed one
// business day at a time; increments landing on Saturday or Sunday do not
// consume an offset unit. A result landing on a weekend rolls forward to
// the next weekday. The cutoff advance and the final weekend roll are
// deliberately separate rules, not a shared business-calendar.
func CalculateLatestDate(base time.Time, offsetDays int, cutoff *CutoffTime) time.Time {
	d := base

	if cutoff != nil {
		sameDayCutoff := time.Date(d.Year(), d.Month(), d.Day(),
			cutoff.Hour, cutoff.Minute, 0, 0, d.Location())
		if d.After(sameDayCutoff) {
			d = d.AddDate(0, 0, 1)
		}
	}

	for remaining := offsetDays; remaining > 0; {
		d = d.AddDate(0, 0, 1)
		if !isWeekend(d) {
			remaining--
		}
	}

	for isWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
