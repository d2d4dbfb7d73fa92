package engine

import (
	"fmt"
	"math"
	"time"
)

// DueStatus classifies a due date against today's calendar date.
type DueStatus string

const (
	DueNone     DueStatus = "none"
	DueOverdue  DueStatus = "overdue"
	DueToday    DueStatus = "today"
	DueUpcoming DueStatus = "upcoming"
)

// ClassifyDueDate compares the calendar date of due against the calendar
// date of now using local midnight boundaries; time of day is ignored.
func ClassifyDueDate(due *time.Time, now time.Time) DueStatus {
	if due == nil {
		return DueNone
	}
	switch d := daysBetween(now, *due); {
	case d < 0:
		return DueOverdue
	case d == 0:
		return DueToday
	default:
		return DueUpcoming
	}
}

// DueDateLabel renders the human label for a due date: "Overdue by N
// day(s)", "Due today", "Due tomorrow", "Due in N days" within a week, and
// an absolute date beyond that. No due date yields an empty label.
func DueDateLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	days := daysBetween(now, *due)
	switch {
	case days < 0:
		overdue := -days
		if overdue == 1 {
			return "Overdue by 1 day"
		}
		return fmt.Sprintf("Overdue by %d days", overdue)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return "Due " + due.Format("Jan 2, 2006")
	}
}

// daysBetween counts calendar days from a's date to b's date in a's
// location. Rounding absorbs DST-shortened or -lengthened days.
func daysBetween(a, b time.Time) int {
	am := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	bl := b.In(a.Location())
	bm := time.Date(bl.Year(), bl.Month(), bl.Day(), 0, 0, 0, 0, a.Location())
	return int(math.Round(bm.Sub(am).Hours() / 24))
}
