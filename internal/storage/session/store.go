// Package session implements SessionStore on an in-memory BadgerHold database.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Store implements interfaces.SessionStore. Nothing is written to disk.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is a per-id mutex, dropped once no request holds or waits on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures the store
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt/LastSeen
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore opens an in-memory session store.
func NewStore(logger *common.Logger, opts ...Option) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.InMemory = true
	options.Dir = ""
	options.ValueDir = ""
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Debug().Msg("Session store opened (in-memory)")
	return s, nil
}

// Create allocates and stores a new empty session.
func (s *Store) Create() (*models.WizardSession, error) {
	now := s.now()
	sess := &models.WizardSession{
		ID:        uuid.New().String(),
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := s.db.Insert(sess.ID, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Debug().Str("session_id", sess.ID).Msg("Session created")
	return sess.Clone(), nil
}

func (s *Store) Get(id string) (*models.WizardSession, bool) {
	if id == "" {
		return nil, false
	}
	var sess models.WizardSession
	if err := s.db.Get(id, &sess); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Str("session_id", id).Err(err).Msg("Failed to load session")
		}
		return nil, false
	}
	return &sess, true
}

func (s *Store) Save(sess *models.WizardSession) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	sess.LastSeen = s.now()
	if err := s.db.Upsert(sess.ID, sess.Clone()); err != nil {
		return fmt.Errorf("failed to save session '%s': %w", sess.ID, err)
	}
	return nil
}

// Lock blocks until no other caller holds id, so a load-modify-save cycle
// on one session cannot interleave with another.
func (s *Store) Lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Store) Delete(id string) error {
	if err := s.db.Delete(id, models.WizardSession{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete session '%s': %w", id, err)
	}
	return nil
}

// Sweep removes sessions whose LastSeen is older than ttl.
func (s *Store) Sweep(ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl)

	var all []models.WizardSession
	if err := s.db.Find(&all, nil); err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	removed := 0
	for _, sess := range all {
		if !sess.LastSeen.Before(cutoff) {
			continue
		}
		if err := s.Delete(sess.ID); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Dur("ttl", ttl).Msg("Expired sessions swept")
	}
	return removed, nil
}

func (s *Store) Len() int {
	n, err := s.db.Count(&models.WizardSession{}, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count sessions")
		return 0
	}
	return int(n)
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements SessionStore
var _ interfaces.SessionStore = (*Store)(nil)
