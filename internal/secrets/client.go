// Package secrets provides a client over a versioned secret backend,
// exposing latest-version reads with an optional age constraint and
// append-only version writes.
package secrets

import (
	"context"
	"fmt"
	"time"
)

// Backend defines the persistence operations required by the Client.
type Backend interface {
	// GetLatestVersion returns the payload and creation time of the most
	// recent version of the named secret. found is false when the secret
	// or its latest version does not exist; any other failure is an error.
	GetLatestVersion(ctx context.Context, name string) (payload []byte, createdAt time.Time, found bool, err error)
	// AddVersion appends a new version under the named secret. Prior
	// versions are never overwritten or deleted.
	AddVersion(ctx context.Context, name string, payload []byte) error
}

// Client reads and writes named secrets through a Backend.
// It performs no retries; backend faults propagate to the caller.
type Client struct {
	backend Backend

	// now is the clock used for age checks; replaceable in tests.
	now func() time.Time
}

// NewClient constructs a Client over the given backend.
func NewClient(backend Backend) *Client {
	return &Client{backend: backend, now: time.Now}
}

// Get fetches the latest version's payload of the named secret.
// found is false when the secret has no versions.
func (c *Client) Get(ctx context.Context, name string) (string, bool, error) {
	payload, _, found, err := c.backend.GetLatestVersion(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("get secret %q: %w", name, err)
	}
	if !found {
		return "", false, nil
	}
	return string(payload), true, nil
}

// GetFresh fetches the latest version's payload only if that version is
// no older than maxAge. A stale version is reported as absent, not as an
// error: staleness is a normal branch for the caller, only backend faults
// are failures. The age check uses the latest version's creation time only.
func (c *Client) GetFresh(ctx context.Context, name string, maxAge time.Duration) (string, bool, error) {
	payload, createdAt, found, err := c.backend.GetLatestVersion(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("get secret %q: %w", name, err)
	}
	if !found {
		return "", false, nil
	}
	if c.now().Sub(createdAt) > maxAge {
		return "", false, nil
	}
	return string(payload), true, nil
}

// AddVersion appends a new version of the named secret.
func (c *Client) AddVersion(ctx context.Context, name, value string) error {
	if err := c.backend.AddVersion(ctx, name, []byte(value)); err != nil {
		return fmt.Errorf("add secret version %q: %w", name, err)
	}
	return nil
}
