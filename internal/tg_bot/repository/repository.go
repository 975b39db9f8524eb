// Package repository provides storage for the description bot: the volatile
// per-user session table and the persistent per-day rate records.
package repository

import (
	"sync"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// SessionStore keeps the state of the data-collection cycle for every user.
//
// The store lives in memory for the lifetime of the process and is never
// persisted: a restart drops every unfinished cycle. Each user ID maps to
// exactly one session, created lazily on first access.
type SessionStore struct {
	sessions map[int64]*models.Session // In-memory sessions by user ID
	mu       sync.RWMutex              // Protects sessions
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*models.Session),
	}
}

// getOrCreate returns the session of userID, creating it if absent. Callers must hold mu.
func (s *SessionStore) getOrCreate(userID int64) *models.Session {
	session, ok := s.sessions[userID]
	if !ok {
		session = &models.Session{UserID: userID, Step: models.StepAwaitAddress}
		s.sessions[userID] = session
		logrus.WithField("user_id", userID).Debug("Session created")
	}
	return session
}

// GetStep returns the current step of the user, StepAwaitAddress if the user is unknown.
func (s *SessionStore) GetStep(userID int64) models.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return models.StepAwaitAddress
	}
	return session.Step
}

// GetSession returns a copy of the user's session, creating an empty one if absent.
func (s *SessionStore) GetSession(userID int64) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := *s.getOrCreate(userID)
	// Копия, чтобы вызывающий код не менял состояние в обход стора
	if session.Photo != nil {
		photo := *session.Photo
		session.Photo = &photo
	}
	session.Infrastructure = session.Infrastructure.Clone()
	return session
}

// Update applies a sparse patch to the user's session; absent fields are untouched.
func (s *SessionStore) Update(userID int64, patch models.SessionPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch.Apply(s.getOrCreate(userID))
}

// AdvanceStep moves the user to the next step, wrapping to StepAwaitAddress after
// the last one, and returns the new step.
func (s *SessionStore) AdvanceStep(userID int64) models.Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(userID)
	session.Step = session.Step.Next()
	return session.Step
}

// ClearCycle drops every field collected during a cycle, keeping the current step.
func (s *SessionStore) ClearCycle(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(userID)
	*session = models.Session{UserID: userID, Step: session.Step, Cycle: session.Cycle + 1}
}

// ClearCycleIf drops the collected data only if the session is still in the given
// cycle and waits for an address. It reports whether the data was dropped.
func (s *SessionStore) ClearCycleIf(userID int64, cycle uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || session.Cycle != cycle || session.Step != models.StepAwaitAddress {
		return false
	}
	*session = models.Session{UserID: userID, Step: session.Step, Cycle: session.Cycle + 1}
	return true
}

// Reset returns the user to StepAwaitAddress with an empty session.
func (s *SessionStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cycle uint64
	if session, ok := s.sessions[userID]; ok {
		cycle = session.Cycle + 1
	}
	s.sessions[userID] = &models.Session{UserID: userID, Step: models.StepAwaitAddress, Cycle: cycle}
}

// Count returns the number of sessions held in memory.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
