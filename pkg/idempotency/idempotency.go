// Package idempotency lets a client safely retry a create request by sending
// the same Idempotency-Key header.
//
// A key moves through two states: claimed (the first request is still running)
// and completed (the value holds the id of the created resource).
package idempotency

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const Header = "Idempotency-Key"

const (
	pendingMarker = "\x00pending"
	maxKeyLen     = 255
)

var (
	ErrNotFound   = errors.New("idempotency key not found")
	ErrInFlight   = errors.New("request with this idempotency key is still in progress")
	ErrKeyTooLong = errors.New("idempotency key too long")
)

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

func Validate(key string) error {
	if len(key) > maxKeyLen {
		return ErrKeyTooLong
	}
	return nil
}

// Scoped namespaces a client key so two callers cannot collide.
func Scoped(operation, owner, key string) string {
	return "idem:" + operation + ":" + owner + ":" + key
}

type Store interface {
	// Claim reserves key; false means someone already holds or completed it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Lookup returns the completed value, ErrInFlight while claimed, or ErrNotFound.
	Lookup(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
