// Package models defines the core data structures and sentinel errors
// shared by the sync pipeline: secret versions, notes, and publish results.
package models

import (
	"errors"
	"fmt"
	"time"
)

// SecretVersion is one immutable entry in a secret's version history.
type SecretVersion struct {
	// Name is the secret this version belongs to.
	Name string
	// Version is the monotonically increasing version number.
	Version int64
	// Payload contains the raw secret material.
	Payload []byte
	// CreatedAt records when this version was written.
	CreatedAt time.Time
}

// Credentials is the username/password pair used for fallback login.
// It is fetched once at startup and immutable for the process lifetime.
type Credentials struct {
	Username string
	Password string
}

// NoteItem is a single entry of a checklist note.
type NoteItem struct {
	// Text is the raw item text as stored by the note service.
	Text string `json:"text"`
	// Checked marks the item as completed.
	Checked bool `json:"checked"`
}

// Note is a checklist note returned by the note service.
type Note struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Items []NoteItem `json:"items"`
}

// Unchecked returns the note's items that are not checked off,
// in the order the backend returned them.
func (n Note) Unchecked() []NoteItem {
	var items []NoteItem
	for _, item := range n.Items {
		if !item.Checked {
			items = append(items, item)
		}
	}
	return items
}

var (
	// ErrAuthRejected signals that the note service rejected the
	// presented token or credentials. For a resume attempt this is a
	// normal branch driving fallback login; after fallback login it is
	// fatal for the invocation.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrNoteNotFound signals that no note matched the configured query.
	// Fatal for the invocation; nothing is published.
	ErrNoteNotFound = errors.New("note not found")
)

// PartialPublishError reports that the "latest" snapshot was updated but
// the subsequent history write failed: the snapshot advanced while the
// audit trail lags behind. The core performs no compensating rollback;
// the error exists so operators can tell this state apart from both total
// failure and clean success.
type PartialPublishError struct {
	// HistoryKey is the key the failed history write targeted.
	HistoryKey string
	// Err is the underlying storage failure.
	Err error
}

func (e *PartialPublishError) Error() string {
	return fmt.Sprintf("latest updated but history write to %q failed: %v", e.HistoryKey, e.Err)
}

func (e *PartialPublishError) Unwrap() error {
	return e.Err
}
