package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/avoronov/keepsync/internal/models"
	"github.com/avoronov/keepsync/internal/service"
	"go.uber.org/zap"
)

type mockEstablisher struct {
	EstablishFunc func(ctx context.Context) (service.Session, service.State, error)
}

func (m *mockEstablisher) Establish(ctx context.Context) (service.Session, service.State, error) {
	return m.EstablishFunc(ctx)
}

type mockExtractor struct {
	ExtractFunc func(ctx context.Context, sess service.Session) ([]string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, sess service.Session) ([]string, error) {
	return m.ExtractFunc(ctx, sess)
}

type mockPublisher struct {
	PublishFunc func(ctx context.Context, items []string) (service.PublishResult, error)

	calls int
}

func (m *mockPublisher) Publish(ctx context.Context, items []string) (service.PublishResult, error) {
	m.calls++
	return m.PublishFunc(ctx, items)
}

func TestRun_HappyPath(t *testing.T) {
	sess := stubSession{}
	items := []string{"eggs", "milk"}

	establisher := &mockEstablisher{
		EstablishFunc: func(ctx context.Context) (service.Session, service.State, error) {
			return sess, service.StateResumed, nil
		},
	}
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, got service.Session) ([]string, error) {
			if got != sess {
				t.Errorf("Extract session = %v; want the established one", got)
			}
			return items, nil
		},
	}
	publisher := &mockPublisher{
		PublishFunc: func(ctx context.Context, got []string) (service.PublishResult, error) {
			if !reflect.DeepEqual(got, items) {
				t.Errorf("Publish items = %q; want %q", got, items)
			}
			return service.PublishResult{Changed: true, HistoryKey: "unchecked/history/2023-06-01T12:30.json"}, nil
		},
	}

	p := service.NewPipeline(establisher, extractor, publisher, zap.NewNop())
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if publisher.calls != 1 {
		t.Errorf("Publish calls = %d; want 1", publisher.calls)
	}
}

func TestRun_UnchangedIsSuccess(t *testing.T) {
	establisher := &mockEstablisher{
		EstablishFunc: func(ctx context.Context) (service.Session, service.State, error) {
			return stubSession{}, service.StateFreshLogin, nil
		},
	}
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, sess service.Session) ([]string, error) {
			return []string{"eggs"}, nil
		},
	}
	publisher := &mockPublisher{
		PublishFunc: func(ctx context.Context, items []string) (service.PublishResult, error) {
			return service.PublishResult{Changed: false}, nil
		},
	}

	p := service.NewPipeline(establisher, extractor, publisher, zap.NewNop())
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_AuthFailureStopsBeforeExtraction(t *testing.T) {
	wantErr := errors.New("fresh login rejected")
	establisher := &mockEstablisher{
		EstablishFunc: func(ctx context.Context) (service.Session, service.State, error) {
			return nil, service.StateFailed, wantErr
		},
	}
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, sess service.Session) ([]string, error) {
			t.Fatal("Extract must not run after a failed session")
			return nil, nil
		},
	}
	publisher := &mockPublisher{}

	p := service.NewPipeline(establisher, extractor, publisher, zap.NewNop())
	if err := p.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Run error = %v; want %v", err, wantErr)
	}
	if publisher.calls != 0 {
		t.Errorf("Publish calls = %d; want 0", publisher.calls)
	}
}

func TestRun_ExtractionFailureSkipsPublish(t *testing.T) {
	establisher := &mockEstablisher{
		EstablishFunc: func(ctx context.Context) (service.Session, service.State, error) {
			return stubSession{}, service.StateResumed, nil
		},
	}
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, sess service.Session) ([]string, error) {
			return nil, models.ErrNoteNotFound
		},
	}
	publisher := &mockPublisher{}

	p := service.NewPipeline(establisher, extractor, publisher, zap.NewNop())
	if err := p.Run(context.Background()); !errors.Is(err, models.ErrNoteNotFound) {
		t.Fatalf("Run error = %v; want ErrNoteNotFound", err)
	}
	if publisher.calls != 0 {
		t.Errorf("Publish calls = %d; want 0 (no partial publish on extraction failure)", publisher.calls)
	}
}

func TestRun_PartialPublishSurfaces(t *testing.T) {
	partial := &models.PartialPublishError{
		HistoryKey: "unchecked/history/2023-06-01T12:30.json",
		Err:        errors.New("quota exceeded"),
	}
	establisher := &mockEstablisher{
		EstablishFunc: func(ctx context.Context) (service.Session, service.State, error) {
			return stubSession{}, service.StateResumed, nil
		},
	}
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, sess service.Session) ([]string, error) {
			return []string{"bread"}, nil
		},
	}
	publisher := &mockPublisher{
		PublishFunc: func(ctx context.Context, items []string) (service.PublishResult, error) {
			return service.PublishResult{Changed: true}, partial
		},
	}

	p := service.NewPipeline(establisher, extractor, publisher, zap.NewNop())
	err := p.Run(context.Background())
	var got *models.PartialPublishError
	if !errors.As(err, &got) {
		t.Fatalf("Run error = %v; want *models.PartialPublishError", err)
	}
	if got.HistoryKey != partial.HistoryKey {
		t.Errorf("HistoryKey = %q; want %q", got.HistoryKey, partial.HistoryKey)
	}
}
