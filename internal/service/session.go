// Package service provides the business logic of the sync pipeline:
// session lifecycle, checklist extraction, change-tracked publishing,
// and the orchestrator sequencing them.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avoronov/keepsync/internal/models"
	"go.uber.org/zap"
)

// TokenMaxAge is the freshness bound for a cached session token. A token
// older than this is treated as absent and never passed to Resume: the
// service may have silently invalidated it, and a stale resume attempt is
// worth less than the login it would delay.
const TokenMaxAge = 24 * time.Hour

// SecretStore defines the secret operations required by the session manager.
type SecretStore interface {
	// GetFresh returns the latest value of the named secret if its latest
	// version is no older than maxAge; otherwise found is false.
	GetFresh(ctx context.Context, name string, maxAge time.Duration) (value string, found bool, err error)
	// AddVersion appends a new version of the named secret.
	AddVersion(ctx context.Context, name, value string) error
}

// Session is an authenticated context against the note service.
type Session interface {
	// FindNotes searches for notes matching query, in backend order.
	FindNotes(ctx context.Context, query string) ([]models.Note, error)
}

// State names the terminal and intermediate states of the session
// manager's resume-or-login state machine.
type State string

const (
	// StateUnauthenticated is the entry state; it is also reported when a
	// backend fault aborts the machine before either terminal state.
	StateUnauthenticated State = "unauthenticated"
	// StateResumed means a cached token reestablished the session.
	StateResumed State = "resumed"
	// StateFreshLogin means full credentials were used and a new token
	// was persisted.
	StateFreshLogin State = "fresh_login"
	// StateFailed means both resume and fresh login were rejected.
	StateFailed State = "failed"
)

// SessionManager establishes an authenticated session against the note
// service, preferring to resume from a cached token and falling back to a
// full login once when resume is unavailable or rejected.
type SessionManager struct {
	store       SecretStore
	backend     Authenticator
	creds       models.Credentials
	tokenSecret string
	log         *zap.Logger
}

// Authenticator is the session-establishment surface of the note service.
// Both methods report rejected tokens or credentials via an error
// satisfying errors.Is(err, models.ErrAuthRejected); every other failure
// is a backend fault.
type Authenticator interface {
	// Resume reestablishes a session from a previously issued token.
	Resume(ctx context.Context, username, token string) (Session, error)
	// Login performs a full credential login, returning the session and
	// the newly issued token to persist.
	Login(ctx context.Context, username, password string) (Session, string, error)
}

// NewSessionManager constructs a SessionManager. creds is the immutable
// credential pair used only for fallback login; tokenSecret names the
// secret holding the cached session token.
func NewSessionManager(store SecretStore, backend Authenticator, creds models.Credentials, tokenSecret string, log *zap.Logger) *SessionManager {
	return &SessionManager{
		store:       store,
		backend:     backend,
		creds:       creds,
		tokenSecret: tokenSecret,
		log:         log,
	}
}

// Establish runs the resume-or-login state machine and returns the
// authenticated session together with the terminal state reached.
//
// Resume is attempted only with a token younger than TokenMaxAge; a stale
// or absent token is a normal branch, not an error. A resume rejection
// falls through to exactly one login attempt; on login success the newly
// issued token is persisted as a fresh secret version. A login rejection
// is fatal (StateFailed). Backend faults on any step abort the machine
// and propagate.
func (m *SessionManager) Establish(ctx context.Context) (Session, State, error) {
	token, found, err := m.store.GetFresh(ctx, m.tokenSecret, TokenMaxAge)
	if err != nil {
		return nil, StateUnauthenticated, err
	}

	if found {
		sess, err := m.backend.Resume(ctx, m.creds.Username, token)
		switch {
		case err == nil:
			m.log.Info("session resumed from cached token")
			return sess, StateResumed, nil
		case errors.Is(err, models.ErrAuthRejected):
			m.log.Info("cached token rejected, falling back to login")
		default:
			return nil, StateUnauthenticated, err
		}
	} else {
		m.log.Info("no fresh token cached, performing full login")
	}

	sess, newToken, err := m.backend.Login(ctx, m.creds.Username, m.creds.Password)
	if err != nil {
		if errors.Is(err, models.ErrAuthRejected) {
			return nil, StateFailed, fmt.Errorf("fresh login rejected: %w", err)
		}
		return nil, StateUnauthenticated, err
	}

	if err := m.store.AddVersion(ctx, m.tokenSecret, newToken); err != nil {
		return nil, StateUnauthenticated, fmt.Errorf("persist session token: %w", err)
	}
	m.log.Info("fresh login succeeded, new token persisted")
	return sess, StateFreshLogin, nil
}
