package models

import (
	"strings"
	"time"
)

// EntryFormat is a label attached to an entry indicating which structured
// payload it carries.
type EntryFormat string

const (
	FormatNote    EntryFormat = "note"
	FormatTask    EntryFormat = "task"
	FormatProject EntryFormat = "project"
	FormatGoal    EntryFormat = "goal"
)

// UrgencyLevel represents how urgent a note or task is
type UrgencyLevel string

const (
	UrgencyNone   UrgencyLevel = "none"
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// Weight returns the sort weight of an urgency level (high > medium > low > none).
func (u UrgencyLevel) Weight() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// Milestone is one step of a project format block.
type Milestone struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GoalProgress is the payload of a goal format block.
type GoalProgress struct {
	Target  string `json:"target"`
	Current int    `json:"current"`
	Goal    int    `json:"goal"`
}

// FormatData is the format-specific payload of an entry, keyed by which
// format tags the entry carries. Only the sections matching the entry's
// formats are populated.
type FormatData struct {
	Task    *Task         `json:"task,omitempty"`
	Project []Milestone   `json:"project,omitempty"`
	Goal    *GoalProgress `json:"goal,omitempty"`
}

// Entry is one timestamped unit of free text inside a note's timeline.
type Entry struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Formats   []EntryFormat `json:"formats"`
	Data      *FormatData   `json:"data,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	EditedAt  *time.Time    `json:"edited_at,omitempty"`
	IsEdited  bool          `json:"is_edited"`
}

// HasFormat reports whether the entry carries the given format tag.
func (e *Entry) HasFormat(f EntryFormat) bool {
	for _, have := range e.Formats {
		if have == f {
			return true
		}
	}
	return false
}

// Note is a titled timeline of entries plus derived metadata. Hashtags are a
// derived cache of the tags extracted from entry content, never authoritative;
// they are recomputed on every entry mutation.
type Note struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Entries       []Entry      `json:"entries"`
	Tasks         []Task       `json:"tasks"`
	Hashtags      []string     `json:"hashtags"`
	Urgency       UrgencyLevel `json:"urgency"`
	Importance    int          `json:"importance"`
	PrimaryFormat EntryFormat  `json:"primary_format"`
	CreatedAt     time.Time    `json:"created_at"`
	LastModified  time.Time    `json:"last_modified"`
}

// HasHashtag reports whether the note's derived hashtag set contains the tag,
// compared case-insensitively.
func (n *Note) HasHashtag(tag string) bool {
	for _, have := range n.Hashtags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	out := *n
	out.Entries = make([]Entry, len(n.Entries))
	for i := range n.Entries {
		out.Entries[i] = n.Entries[i].Clone()
	}
	out.Tasks = make([]Task, len(n.Tasks))
	for i := range n.Tasks {
		out.Tasks[i] = *n.Tasks[i].Clone()
	}
	out.Hashtags = append([]string(nil), n.Hashtags...)
	return &out
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	out.Formats = append([]EntryFormat(nil), e.Formats...)
	if e.Data != nil {
		data := *e.Data
		if e.Data.Task != nil {
			data.Task = e.Data.Task.Clone()
		}
		data.Project = append([]Milestone(nil), e.Data.Project...)
		if e.Data.Goal != nil {
			goal := *e.Data.Goal
			data.Goal = &goal
		}
		out.Data = &data
	}
	return out
}
