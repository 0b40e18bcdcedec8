// Package session keeps short-lived one-time values: OAuth state tokens and
// the codes a frontend trades for a token pair.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session value not found or expired")

// Key prefixes used by the auth handlers.
const (
	StatePrefix    = "oauth:state:"
	AuthCodePrefix = "oauth:code:"
)

// Store holds values that can be read back exactly once.
type Store interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Take returns and removes the value. ErrNotFound when it is missing or
	// has expired.
	Take(ctx context.Context, key string) (string, error)
}
