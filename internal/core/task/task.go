// Package task defines the to-do domain model: tasks, lists of tasks, and the
// ordered, observable collection both are presented through.
package task

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrOutOfRange is returned when an index falls outside the collection.
	ErrOutOfRange = errors.New("index out of range")
	// ErrInvalidated is returned when a collection has been closed or its
	// parent list was deleted underneath it.
	ErrInvalidated = errors.New("collection invalidated")
	// ErrBusy is returned when another process holds the storage write lock.
	ErrBusy = errors.New("storage is busy")
)

// DefaultListID is the fixed primary key of the list seeded on first run.
// Every device seeds the same ID so sync merges them instead of duplicating.
const DefaultListID = "80EB1620-165B-4600-A1B1-D97032FDD9A0"

// Task is a single to-do entry inside a List.
type Task struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// List is a named, ordered group of tasks.
type List struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Remaining int       `json:"remaining"` // uncompleted tasks
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// Row is the presentation-level snapshot of one entry of a Collection. Tasks
// and lists render the same interaction pattern through it.
type Row struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	// Completable reports whether a completing swipe is accepted. Tasks are
	// always completable; lists only while they have uncompleted tasks.
	Completable bool `json:"completable"`
	// Badge is the remaining-task count shown on list rows; -1 hides it.
	Badge int `json:"badge"`
}

// RowFromTask converts a task into a row.
func RowFromTask(t Task) Row {
	return Row{ID: t.ID, Text: t.Text, Completed: t.Completed, Completable: true, Badge: -1}
}

// RowFromList converts a list into a row.
func RowFromList(l List) Row {
	return Row{ID: l.ID, Text: l.Text, Completed: l.Completed, Completable: l.Remaining > 0, Badge: l.Remaining}
}

// Kind distinguishes the two structurally similar entities a screen can show.
type Kind string

const (
	KindLists Kind = "lists"
	KindTasks Kind = "tasks"
)
