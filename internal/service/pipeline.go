package service

import (
	"context"
	"errors"

	"github.com/avoronov/keepsync/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionEstablisher yields an authenticated session for one invocation.
type SessionEstablisher interface {
	Establish(ctx context.Context) (Session, State, error)
}

// ItemExtractor pulls the normalized checklist out of a session.
type ItemExtractor interface {
	Extract(ctx context.Context, sess Session) ([]string, error)
}

// SnapshotPublisher persists the checklist when its content changed.
type SnapshotPublisher interface {
	Publish(ctx context.Context, items []string) (PublishResult, error)
}

// Pipeline sequences one stateless invocation: establish session, extract
// the checklist, publish on change. Each invocation is a pass over
// externally persisted state; the Pipeline itself holds no mutable state.
type Pipeline struct {
	sessions  SessionEstablisher
	extractor ItemExtractor
	publisher SnapshotPublisher
	log       *zap.Logger
}

// NewPipeline constructs a Pipeline from its three stages.
func NewPipeline(sessions SessionEstablisher, extractor ItemExtractor, publisher SnapshotPublisher, log *zap.Logger) *Pipeline {
	return &Pipeline{
		sessions:  sessions,
		extractor: extractor,
		publisher: publisher,
		log:       log,
	}
}

// Run executes one invocation end to end, returning nil on success and
// the first fatal error otherwise. No retries are attempted; a failed
// invocation relies on the next scheduled trigger.
func (p *Pipeline) Run(ctx context.Context) error {
	log := p.log.With(zap.String("run_id", uuid.NewString()))

	sess, state, err := p.sessions.Establish(ctx)
	if err != nil {
		log.Error("session establishment failed",
			zap.String("state", string(state)), zap.Error(err))
		return err
	}
	log.Info("session established", zap.String("state", string(state)))

	items, err := p.extractor.Extract(ctx, sess)
	if err != nil {
		log.Error("checklist extraction failed", zap.Error(err))
		return err
	}

	result, err := p.publisher.Publish(ctx, items)
	if err != nil {
		var partial *models.PartialPublishError
		if errors.As(err, &partial) {
			// Latest advanced while history lags: distinguish from total
			// failure so operators see the inconsistency.
			log.Error("partial publish: snapshot updated, history entry missing",
				zap.String("history_key", partial.HistoryKey), zap.Error(partial.Err))
			return err
		}
		log.Error("publish failed", zap.Error(err))
		return err
	}

	if !result.Changed {
		log.Info("checklist unchanged, nothing published", zap.Int("items", len(items)))
		return nil
	}
	log.Info("checklist published",
		zap.Int("items", len(items)), zap.String("history_key", result.HistoryKey))
	return nil
}
