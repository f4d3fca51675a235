package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/framestitch/internal/media"
	"github.com/lehigh-university-libraries/framestitch/internal/metrics"
	"github.com/lehigh-university-libraries/framestitch/internal/modals"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
	"github.com/lehigh-university-libraries/framestitch/internal/state"
	"github.com/lehigh-university-libraries/framestitch/internal/steps"
)

// Session is one user's editing workspace
type Session struct {
	ID        string
	CreatedAt time.Time
	Store     *state.Store
	Gate      *steps.Gate
	Modals    *modals.Broker
}

// NewSession wires a state store, a step gate and a modal broker together.
// The processing consent modal is registered up front so the gate can wait
// on it.
func NewSession(id string, blobs state.Blobs, resolver media.DimensionResolver, opts ...state.StoreOption) *Session {
	store := state.New(id, blobs, resolver, opts...)
	broker := modals.New()
	broker.Register(string(models.ConsentProcessing))
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Store:     store,
		Gate:      steps.New(store, broker),
		Modals:    broker,
	}
}

// State is the session's render state including the current step
func (s *Session) State() models.AppState {
	st := s.Store.State()
	st.CurrentStep = s.Gate.Current()
	return st
}

type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// GetAll returns sessions ordered by creation time
func (s *SessionStore) GetAll() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session and returns it so the caller can release its
// resources
func (s *SessionStore) Delete(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}
	delete(s.sessions, sessionID)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return session, true
}
