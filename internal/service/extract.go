package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/avoronov/keepsync/internal/models"
)

// Extractor pulls the target checklist out of an authenticated session
// and normalizes it into a canonical item list.
type Extractor struct {
	// query selects the target note by title match.
	query string
}

// NewExtractor constructs an Extractor for the given note query.
func NewExtractor(query string) *Extractor {
	return &Extractor{query: query}
}

// Extract locates the target note and returns its unchecked items,
// normalized. When the query matches several notes the first one in the
// order the backend returned is taken; zero matches is fatal for the
// invocation (models.ErrNoteNotFound).
func (e *Extractor) Extract(ctx context.Context, sess Session) ([]string, error) {
	found, err := sess.FindNotes(ctx, e.query)
	if err != nil {
		return nil, fmt.Errorf("find notes %q: %w", e.query, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("query %q: %w", e.query, models.ErrNoteNotFound)
	}

	note := found[0]
	raw := make([]string, 0, len(note.Items))
	for _, item := range note.Unchecked() {
		raw = append(raw, item.Text)
	}
	return Normalize(raw), nil
}

// Normalize canonicalizes raw checklist entries: each is whitespace-trimmed
// and lower-cased, empties are dropped, duplicates collapse, and the result
// is sorted lexicographically so equal content always yields equal output.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	items := make([]string, 0, len(raw))
	for _, text := range raw {
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		items = append(items, text)
	}
	sort.Strings(items)
	return items
}
