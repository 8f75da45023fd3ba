package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/avoronov/keepsync/internal/models"
	"github.com/avoronov/keepsync/internal/service"
)

type mockSession struct {
	FindNotesFunc func(ctx context.Context, query string) ([]models.Note, error)
}

func (m *mockSession) FindNotes(ctx context.Context, query string) ([]models.Note, error) {
	return m.FindNotesFunc(ctx, query)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "trim lower drop dedupe sort",
			raw:  []string{"Milk", " milk ", "Eggs", ""},
			want: []string{"eggs", "milk"},
		},
		{
			name: "whitespace only is dropped",
			raw:  []string{"  ", "\t", "Bread"},
			want: []string{"bread"},
		},
		{
			name: "empty input",
			raw:  nil,
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Normalize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %q; want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	// Any permutation and duplication with equal normalized content must
	// produce the same output.
	variants := [][]string{
		{"Eggs", "Milk", "Bread"},
		{"bread", "eggs", "milk"},
		{"MILK ", " bread", "Eggs", "eggs", "milk"},
	}
	want := []string{"bread", "eggs", "milk"}
	for _, raw := range variants {
		if got := service.Normalize(raw); !reflect.DeepEqual(got, want) {
			t.Errorf("Normalize(%q) = %q; want %q", raw, got, want)
		}
	}
}

func TestExtract_FirstMatchUncheckedOnly(t *testing.T) {
	sess := &mockSession{
		FindNotesFunc: func(ctx context.Context, query string) ([]models.Note, error) {
			if query != "Shopping" {
				t.Errorf("query = %q; want Shopping", query)
			}
			return []models.Note{
				{
					ID:    "n1",
					Title: "Shopping",
					Items: []models.NoteItem{
						{Text: "Milk"},
						{Text: "Cheese", Checked: true},
						{Text: " milk "},
						{Text: "Eggs"},
						{Text: ""},
					},
				},
				{
					// Second match is ignored: first in backend order wins.
					ID:    "n2",
					Title: "Shopping (old)",
					Items: []models.NoteItem{{Text: "Wine"}},
				},
			}, nil
		},
	}

	got, err := service.NewExtractor("Shopping").Extract(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"eggs", "milk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %q; want %q", got, want)
	}
}

func TestExtract_NoMatchIsNotFound(t *testing.T) {
	sess := &mockSession{
		FindNotesFunc: func(ctx context.Context, query string) ([]models.Note, error) {
			return nil, nil
		},
	}

	_, err := service.NewExtractor("Shopping").Extract(context.Background(), sess)
	if !errors.Is(err, models.ErrNoteNotFound) {
		t.Fatalf("Extract error = %v; want ErrNoteNotFound", err)
	}
}

func TestExtract_BackendFaultPropagates(t *testing.T) {
	wantErr := errors.New("service unavailable")
	sess := &mockSession{
		FindNotesFunc: func(ctx context.Context, query string) ([]models.Note, error) {
			return nil, wantErr
		},
	}

	_, err := service.NewExtractor("Shopping").Extract(context.Background(), sess)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Extract error = %v; want %v", err, wantErr)
	}
}
