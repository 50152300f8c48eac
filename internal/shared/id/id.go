// Package id generates sortable identifiers for users and requests.
package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for entity identifiers (Stripe-style)
const (
	PrefixUser    = "usr"
	PrefixRequest = "req"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lowercase ULID generated at t.
func New(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// NewWithPrefix returns an identifier in the form "prefix_ulid".
func NewWithPrefix(prefix string, t time.Time) string {
	return prefix + "_" + New(t)
}

// NewUserID returns a fresh user identifier.
func NewUserID() string {
	return NewWithPrefix(PrefixUser, time.Now())
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string {
	return NewWithPrefix(PrefixRequest, time.Now())
}

// HasPrefix reports whether s looks like an identifier with the given prefix.
func HasPrefix(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok || len(rest) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(rest))
	return err == nil
}
