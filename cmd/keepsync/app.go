package main

import (
	"context"
	"fmt"

	"github.com/avoronov/keepsync/internal/config"
	"github.com/avoronov/keepsync/internal/db"
	"github.com/avoronov/keepsync/internal/models"
	"github.com/avoronov/keepsync/internal/notes"
	"github.com/avoronov/keepsync/internal/repository"
	"github.com/avoronov/keepsync/internal/secrets"
	"github.com/avoronov/keepsync/internal/service"
	"go.uber.org/zap"
)

// app holds the fully wired pipeline and the resources behind it.
type app struct {
	pipeline *service.Pipeline
	close    func() error
}

// newApp constructs every collaborator explicitly and injects it where it
// is consumed: no package-level clients, no hidden process-wide state.
// The credential pair is fetched once here and stays immutable for the
// process lifetime.
func newApp(ctx context.Context, cfg *config.Options, log *zap.Logger) (*app, error) {
	postgresDB, err := db.InitPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	secretStore := secrets.NewClient(repository.NewPostgresSecretBackend(postgresDB))
	objectStore := repository.NewPostgresObjectStore(postgresDB, cfg.Bucket)
	noteClient := notes.NewClient(cfg.NotesURL, nil)

	creds, err := loadCredentials(ctx, secretStore, cfg)
	if err != nil {
		_ = postgresDB.Close()
		return nil, err
	}

	sessions := service.NewSessionManager(secretStore, noteAuth{noteClient}, creds, cfg.TokenSecret, log)
	extractor := service.NewExtractor(cfg.Query)
	publisher := service.NewPublisher(objectStore)

	return &app{
		pipeline: service.NewPipeline(sessions, extractor, publisher, log),
		close:    postgresDB.Close,
	}, nil
}

// loadCredentials reads the username and password secrets. Both must
// exist: there is no anonymous mode and no interactive prompt.
func loadCredentials(ctx context.Context, store *secrets.Client, cfg *config.Options) (models.Credentials, error) {
	username, found, err := store.Get(ctx, cfg.UsernameSecret)
	if err != nil {
		return models.Credentials{}, err
	}
	if !found {
		return models.Credentials{}, fmt.Errorf("secret %q has no versions", cfg.UsernameSecret)
	}

	password, found, err := store.Get(ctx, cfg.PasswordSecret)
	if err != nil {
		return models.Credentials{}, err
	}
	if !found {
		return models.Credentials{}, fmt.Errorf("secret %q has no versions", cfg.PasswordSecret)
	}

	return models.Credentials{Username: username, Password: password}, nil
}

// noteAuth adapts the concrete notes client to the session manager's
// Authenticator interface.
type noteAuth struct {
	client *notes.Client
}

func (a noteAuth) Resume(ctx context.Context, username, token string) (service.Session, error) {
	sess, err := a.client.Resume(ctx, username, token)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (a noteAuth) Login(ctx context.Context, username, password string) (service.Session, string, error) {
	sess, token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

var _ service.Authenticator = noteAuth{}
