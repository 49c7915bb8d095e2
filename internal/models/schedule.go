package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Weekdays lists schedule days in display order
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsWeekday reports whether day is one of Weekdays
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Priority of a schedule item
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether the priority is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ScheduleItem is a weekly calendar entry
type ScheduleItem struct {
	ID        string   `json:"id" yaml:"id"`
	Day       string   `json:"day" yaml:"day"`
	StartTime string   `json:"startTime" yaml:"startTime"`
	EndTime   string   `json:"endTime" yaml:"endTime"`
	Activity  string   `json:"activity" yaml:"activity"`
	Priority  Priority `json:"priority" yaml:"priority"`
}

// ScheduleItemPatch is a partial ScheduleItem
type ScheduleItemPatch struct {
	Day       *string   `json:"day,omitempty"`
	StartTime *string   `json:"startTime,omitempty"`
	EndTime   *string   `json:"endTime,omitempty"`
	Activity  *string   `json:"activity,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
}

// ApplyTo shallow-merges the patch into item. The id is never changed.
func (p ScheduleItemPatch) ApplyTo(item *ScheduleItem) {
	if p.Day != nil {
		item.Day = *p.Day
	}
	if p.StartTime != nil {
		item.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		item.EndTime = *p.EndTime
	}
	if p.Activity != nil {
		item.Activity = *p.Activity
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
}

// ScheduleDay groups the items of a single weekday
type ScheduleDay struct {
	Day   string         `json:"day"`
	Items []ScheduleItem `json:"items"`
}

// GroupByDay buckets items per weekday, Monday first, each bucket sorted by
// startTime. String order equals time order because times are "HH:MM".
func GroupByDay(items []ScheduleItem) []ScheduleDay {
	days := make([]ScheduleDay, 0, len(Weekdays))
	for _, day := range Weekdays {
		bucket := []ScheduleItem{}
		for _, item := range items {
			if item.Day == day {
				bucket = append(bucket, item)
			}
		}
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].StartTime < bucket[j].StartTime
		})
		days = append(days, ScheduleDay{Day: day, Items: bucket})
	}
	return days
}

// ParseClock parses a zero-padded 24-hour "HH:MM" string into minutes
// since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// FormatDuration renders the span between two "HH:MM" times the way the
// schedule screen shows it: "45 min", "2 hr", "1 hr 30 min". An end before
// the start wraps past midnight.
func FormatDuration(start, end string) string {
	from, err := ParseClock(start)
	if err != nil {
		return ""
	}
	to, err := ParseClock(end)
	if err != nil {
		return ""
	}

	minutes := to - from
	if minutes < 0 {
		minutes += 24 * 60
	}

	hours, rest := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d min", rest)
	case rest == 0:
		return fmt.Sprintf("%d hr", hours)
	default:
		return fmt.Sprintf("%d hr %d min", hours, rest)
	}
}
