package engine

import (
	"testing"
	"time"
)

func TestDueDateLabel(t *testing.T) {
	t.Parallel()
	// A late-evening "now" exercises the calendar-date comparison: only
	// dates matter, never hours.
	now := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := time.Date(2025, 6, 15+offset, 0, 5, 0, 0, time.UTC)
		return &d
	}

	tests := []struct {
		name string
		due  *time.Time
		want string
	}{
		{"no due date", nil, ""},
		{"overdue one day", day(-1), "Overdue by 1 day"},
		{"overdue several days", day(-4), "Overdue by 4 days"},
		{"due today", day(0), "Due today"},
		{"due tomorrow", day(1), "Due tomorrow"},
		{"within a week", day(5), "Due in 5 days"},
		{"exactly a week", day(7), "Due in 7 days"},
		{"beyond a week", day(8), "Due Jun 23, 2025"},
		{"far out", day(45), "Due Jul 30, 2025"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DueDateLabel(tt.due, now); got != tt.want {
				t.Errorf("DueDateLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyDueDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  *time.Time
		want DueStatus
	}{
		{"nil", nil, DueNone},
		{"yesterday", tsp(14), DueOverdue},
		{"today later hour", func() *time.Time {
			d := time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC)
			return &d
		}(), DueToday},
		{"tomorrow", tsp(16), DueUpcoming},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyDueDate(tt.due, now); got != tt.want {
				t.Errorf("ClassifyDueDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDaysBetween_AcrossMonthBoundary(t *testing.T) {
	t.Parallel()
	a := time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC)
	b := time.Date(2025, 7, 2, 1, 0, 0, 0, time.UTC)
	if got := daysBetween(a, b); got != 2 {
		t.Errorf("daysBetween = %d, want 2", got)
	}
}
