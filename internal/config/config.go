// Package config provides functionality for managing configuration options
// for the application using a JSON config file and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port) in serve mode.
	Addr string `json:"addr"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn"`

	// NotesURL is the base URL of the note service API.
	NotesURL string `json:"notes_url"`

	// Bucket is the logical bucket the snapshots are published into.
	Bucket string `json:"bucket"`

	// UsernameSecret, PasswordSecret and TokenSecret name the secrets
	// holding the note-service credentials and the cached session token.
	UsernameSecret string `json:"username_secret"`
	PasswordSecret string `json:"password_secret"`
	TokenSecret    string `json:"token_secret"`

	// Query selects the target checklist note by title match.
	Query string `json:"query"`

	// Interval is the polling cadence in serve mode.
	Interval time.Duration `json:"-"`

	// IntervalRaw is the textual form of Interval ("10m", "90s").
	IntervalRaw string `json:"interval"`
}

// defaults mirror the cadence and key names the system was originally
// provisioned with.
func defaults() *Options {
	return &Options{
		Addr:           "localhost:8080",
		Bucket:         "things-data",
		UsernameSecret: "notes-username",
		PasswordSecret: "notes-password",
		TokenSecret:    "notes-token",
		Query:          "Shopping",
		IntervalRaw:    "10m",
	}
}

// Load reads configuration from the given JSON file (if path is non-empty
// and the file exists) and then applies environment variable overrides.
func Load(path string) (*Options, error) {
	options := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	// Override file values with environment variables if set
	applyEnv(options)

	interval, err := time.ParseDuration(options.IntervalRaw)
	if err != nil {
		return nil, fmt.Errorf("parse interval %q: %w", options.IntervalRaw, err)
	}
	options.Interval = interval

	return options, nil
}

func applyEnv(options *Options) {
	for env, target := range map[string]*string{
		"SERVER_ADDRESS":  &options.Addr,
		"DATABASE_DSN":    &options.DatabaseDSN,
		"NOTES_URL":       &options.NotesURL,
		"BUCKET_NAME":     &options.Bucket,
		"USERNAME_SECRET": &options.UsernameSecret,
		"PASSWORD_SECRET": &options.PasswordSecret,
		"TOKEN_SECRET":    &options.TokenSecret,
		"NOTE_QUERY":      &options.Query,
		"POLL_INTERVAL":   &options.IntervalRaw,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}
