package auth

import (
	"sync"

	"github.com/majdjoubi/halqa/internal/models"
)

// Store owns the resolved session state and notifies subscribers on change.
// Every update carries a monotonic sequence number allocated when the
// originating operation starts, so a slow operation resolving late cannot
// overwrite state written by anything that began after it. This replaces the
// last-writer-wins race between explicit calls and the background
// session-change subscription.
type Store struct {
	mu         sync.Mutex
	session    *models.Session
	appliedSeq uint64
	nextSeq    uint64
	inFlight   int
	subs       map[int]chan *models.Session
	nextSubID  int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]chan *models.Session)}
}

// NextSeq allocates the sequence number for an update that will be applied
// later. Call it before starting the operation whose result it will carry.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// Apply installs the session for the given sequence; nil clears it. Updates
// at or below the last applied sequence are stale and discarded. Reports
// whether the update was applied.
func (s *Store) Apply(seq uint64, session *models.Session) bool {
	s.mu.Lock()
	if seq <= s.appliedSeq {
		s.mu.Unlock()
		return false
	}
	s.appliedSeq = seq
	s.session = session

	subs := make([]chan *models.Session, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- session:
		default:
		}
	}
	return true
}

// Current returns the resolved session, or nil when signed out. Callers must
// treat the returned value as read-only.
func (s *Store) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) IsAuthenticated() bool {
	return s.Current() != nil
}

// BeginOp marks a gateway call in flight. Every BeginOp must be paired with
// EndOp on all exit paths of the operation.
func (s *Store) BeginOp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
}

func (s *Store) EndOp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight > 0 {
		s.inFlight--
	}
}

// Loading reports whether any gateway call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Subscribe returns a channel receiving each applied session change and a
// cancel function that must be called when the subscriber goes away.
// Notifications are dropped rather than blocking the store.
func (s *Store) Subscribe() (<-chan *models.Session, func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan *models.Session, 8)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}
