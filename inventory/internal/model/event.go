package model

import "time"

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// BookEvent is published after a committed change to the books table.
type BookEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	BookIDs   []int64   `json:"bookIds"`
	Timestamp time.Time `json:"timestamp"`
}
