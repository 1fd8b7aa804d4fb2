// Package interfaces defines service contracts for Nestegg
package interfaces

import (
	"time"

	"github.com/bobmcallan/nestegg/internal/models"
)

// SessionStore holds wizard sessions keyed by session id. Sessions live
// only for the lifetime of the process.
type SessionStore interface {
	// Create allocates a new empty session with a fresh id
	Create() (*models.WizardSession, error)

	// Get returns a copy of the session, or false when unknown
	Get(id string) (*models.WizardSession, bool)

	// Save replaces the stored session and stamps LastSeen
	Save(s *models.WizardSession) error

	// Lock serialises requests for one session id. The returned func unlocks.
	Lock(id string) (unlock func())

	// Delete removes the session
	Delete(id string) error

	// Sweep evicts sessions idle for longer than ttl and returns the count removed
	Sweep(ttl time.Duration) (int, error)

	// Len returns the number of live sessions
	Len() int

	// Close releases the underlying store
	Close() error
}
