package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avoronov/keepsync/internal/models"
	"github.com/gowebpki/jcs"
)

const (
	// LatestKey is the fixed address of the published snapshot.
	LatestKey = "unchecked/latest.json"
	// HistoryPrefix is the namespace of the append-only history trail.
	HistoryPrefix = "unchecked/history/"
)

// ObjectStore defines the storage operations required by the Publisher.
type ObjectStore interface {
	// GetObject returns the payload stored under key; found is false when
	// the key does not exist.
	GetObject(ctx context.Context, key string) (payload []byte, found bool, err error)
	// PutObject replaces the payload under key in one whole-object write.
	PutObject(ctx context.Context, key string, payload []byte) error
}

// PublishResult reports the outcome of a publish call.
type PublishResult struct {
	// Changed is false when the payload matched the prior snapshot and no
	// writes were performed.
	Changed bool
	// HistoryKey is the key of the history entry written for a changed
	// publish; empty otherwise.
	HistoryKey string
}

// Publisher persists the normalized checklist, writing only on change:
// the snapshot at LatestKey is overwritten and one immutable history entry
// is appended under HistoryPrefix.
type Publisher struct {
	store ObjectStore

	// now is the clock used for history keys; replaceable in tests.
	now func() time.Time
}

// NewPublisher constructs a Publisher over the given object store.
func NewPublisher(store ObjectStore) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

// Publish serializes items canonically and compares the bytes against the
// current snapshot. Equal content performs zero writes. On change the
// snapshot is overwritten first and a history entry keyed by the current
// UTC minute is appended after it; if the history write fails once the
// snapshot has advanced, the returned error is a *models.PartialPublishError
// so callers can surface the inconsistency rather than report plain failure.
//
// Two changed publishes within the same minute collide on the history key
// and the later one wins. The invocation cadence exceeds a minute in
// practice; the collision is accepted, not handled.
func (p *Publisher) Publish(ctx context.Context, items []string) (PublishResult, error) {
	payload, err := encodeItems(items)
	if err != nil {
		return PublishResult{}, err
	}

	prior, found, err := p.store.GetObject(ctx, LatestKey)
	if err != nil {
		return PublishResult{}, fmt.Errorf("read latest snapshot: %w", err)
	}
	// An absent snapshot never byte-equals a payload, so the first run
	// always counts as changed.
	if found && bytes.Equal(prior, payload) {
		return PublishResult{Changed: false}, nil
	}

	if err := p.store.PutObject(ctx, LatestKey, payload); err != nil {
		return PublishResult{}, fmt.Errorf("write latest snapshot: %w", err)
	}

	historyKey := HistoryKey(p.now())
	if err := p.store.PutObject(ctx, historyKey, payload); err != nil {
		return PublishResult{Changed: true}, &models.PartialPublishError{HistoryKey: historyKey, Err: err}
	}

	return PublishResult{Changed: true, HistoryKey: historyKey}, nil
}

// HistoryKey derives the history entry address from a publish time,
// truncated to UTC minute resolution.
func HistoryKey(t time.Time) string {
	return HistoryPrefix + t.UTC().Format("2006-01-02T15:04") + ".json"
}

// encodeItems serializes the item list as an RFC 8785 canonical JSON array,
// so byte comparison of payloads is equivalent to content comparison.
func encodeItems(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize items: %w", err)
	}
	return canonical, nil
}
