// Package identity holds the player's credential for the current process.
// Tokens are issued and verified by the room authority; this side only
// reads claims out of them.
package identity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrNoCredential marks an operation that needs a credential when none is
// set.
var ErrNoCredential = errors.New("no credential")

// Holder is the process-wide credential slot. Set replaces the token and
// notifies subscribers; Clear drops it. A cleared credential means any
// active remote session must stop.
type Holder struct {
	mu        sync.RWMutex
	token     string
	userID    string
	expiry    time.Time
	listeners []func()
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Set stores a bearer token after extracting its claims. The signature is
// not verified; the authority rejects forged tokens on its side.
func (h *Holder) Set(token string) error {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("parse credential: %w", err)
	}
	if claims.Subject == "" {
		return errors.New("credential has no subject")
	}

	h.mu.Lock()
	h.token = token
	h.userID = claims.Subject
	h.expiry = time.Time{}
	if claims.ExpiresAt != nil {
		h.expiry = claims.ExpiresAt.Time
	}
	listeners := append([]func(){}, h.listeners...)
	h.mu.Unlock()

	log.Info().Str("user_id", claims.Subject).Time("expiry", h.Expiry()).Msg("credential set")
	for _, fn := range listeners {
		fn()
	}
	return nil
}

// Clear drops the credential and notifies subscribers.
func (h *Holder) Clear() {
	h.mu.Lock()
	h.token = ""
	h.userID = ""
	h.expiry = time.Time{}
	listeners := append([]func(){}, h.listeners...)
	h.mu.Unlock()

	log.Info().Msg("credential cleared")
	for _, fn := range listeners {
		fn()
	}
}

// Token returns the raw bearer token, or ErrNoCredential.
func (h *Holder) Token() (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" {
		return "", ErrNoCredential
	}
	return h.token, nil
}

// UserID returns the subject claim of the current token, or "" when no
// credential is set.
func (h *Holder) UserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userID
}

// Expiry returns the token's expiry, zero when absent.
func (h *Holder) Expiry() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.expiry
}

// Expired reports whether the credential carries an expiry in the past.
func (h *Holder) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.expiry.IsZero() && h.expiry.Before(now)
}

// OnChange registers a callback invoked after every Set and Clear.
func (h *Holder) OnChange(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}
