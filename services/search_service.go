package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sahilchouksey/prof-ratings/services/search"
	"go.uber.org/zap"
)

// SearchSession is the state of one typeahead session as returned to clients
type SearchSession struct {
	ID    string        `json:"session_id"`
	Phase search.Phase  `json:"phase"`
	State *search.State `json:"state"`
	// Stale is set when the input was older than one already accepted and
	// was ignored
	Stale bool `json:"stale,omitempty"`
}

// SearchService runs the two-stage search box. Every session is updated
// under its own lock; suggestion queries run outside it so a newer keystroke
// can supersede a running query.
type SearchService struct {
	sessions search.SessionStore
	resolver *search.Resolver
	logger   *zap.Logger
	locks    *keyedMutex
}

// NewSearchService creates a new search service
func NewSearchService(sessions search.SessionStore, finder search.Finder, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		sessions: sessions,
		resolver: search.NewResolver(finder, logger),
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

func newSession(id string, st *search.State, stale bool) *SearchSession {
	return &SearchSession{ID: id, Phase: st.Phase(), State: st, Stale: stale}
}

// StartSession creates an empty session
func (s *SearchService) StartSession(ctx context.Context) (*SearchSession, error) {
	id := uuid.NewString()
	st := &search.State{}
	if err := s.sessions.Save(ctx, id, st); err != nil {
		return nil, fmt.Errorf("failed to save search session: %w", err)
	}
	return newSession(id, st, false), nil
}

// GetSession returns the current state of a session
func (s *SearchService) GetSession(ctx context.Context, id string) (*SearchSession, error) {
	st, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSession(id, st, false), nil
}

// DeleteSession drops a session and cancels its running queries
func (s *SearchService) DeleteSession(ctx context.Context, id string) error {
	s.resolver.Forget(id)
	return s.sessions.Delete(ctx, id)
}

// update applies fn to the stored state of id under the session lock
func (s *SearchService) update(ctx context.Context, id string, fn func(st *search.State) error) (*search.State, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	st, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return st, err
	}
	if err := s.sessions.Save(ctx, id, st); err != nil {
		return nil, fmt.Errorf("failed to save search session: %w", err)
	}
	return st, nil
}

// TypeInstitution records school text and, when it is long enough, fetches
// school suggestions
func (s *SearchService) TypeInstitution(ctx context.Context, id, text string, seq uint64) (*SearchSession, error) {
	return s.typeText(ctx, id, func(st *search.State) (search.Ticket, bool, error) {
		return st.TypeInstitution(text, seq)
	})
}

// TypePerson records professor text and, when it is long enough, fetches
// professor suggestions at the chosen school
func (s *SearchService) TypePerson(ctx context.Context, id, text string, seq uint64) (*SearchSession, error) {
	return s.typeText(ctx, id, func(st *search.State) (search.Ticket, bool, error) {
		return st.TypePerson(text, seq)
	})
}

func (s *SearchService) typeText(ctx context.Context, id string, typeFn func(st *search.State) (search.Ticket, bool, error)) (*SearchSession, error) {
	var (
		ticket search.Ticket
		query  bool
	)
	st, err := s.update(ctx, id, func(st *search.State) error {
		var err error
		ticket, query, err = typeFn(st)
		return err
	})
	if errors.Is(err, search.ErrStale) {
		return newSession(id, st, true), nil
	}
	if err != nil {
		return nil, err
	}
	if !query {
		return newSession(id, st, false), nil
	}

	list, fresh := s.resolver.Suggest(ctx, id, ticket)
	if !fresh {
		// a newer keystroke owns the suggestions now
		return s.GetSession(ctx, id)
	}

	applied := false
	st, err = s.update(ctx, id, func(st *search.State) error {
		applied = st.ApplySuggestions(ticket, list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		s.logger.Debug("discarded stale suggestions",
			zap.String("session", id),
			zap.String("stage", string(ticket.Stage)),
			zap.Uint64("seq", ticket.Seq))
	}
	return newSession(id, st, false), nil
}

// PickInstitution chooses one of the pending school suggestions
func (s *SearchService) PickInstitution(ctx context.Context, id string, universityID uint) (*SearchSession, error) {
	st, err := s.update(ctx, id, func(st *search.State) error {
		return st.PickInstitution(universityID)
	})
	if err != nil {
		return nil, err
	}
	return newSession(id, st, false), nil
}

// PickPerson chooses one of the pending professor suggestions
func (s *SearchService) PickPerson(ctx context.Context, id string, professorID uint) (*SearchSession, error) {
	st, err := s.update(ctx, id, func(st *search.State) error {
		return st.PickPerson(professorID)
	})
	if err != nil {
		return nil, err
	}
	return newSession(id, st, false), nil
}

// Reset starts the session over
func (s *SearchService) Reset(ctx context.Context, id string) (*SearchSession, error) {
	s.resolver.Forget(id)
	st, err := s.update(ctx, id, func(st *search.State) error {
		st.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newSession(id, st, false), nil
}

// Submit resolves where the search box leads. nav is nil when the input is
// not specific enough.
func (s *SearchService) Submit(ctx context.Context, id string) (nav *search.Navigation, session *SearchSession, err error) {
	st, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if target, ok := st.Submit(); ok {
		nav = &target
	}
	return nav, newSession(id, st, false), nil
}

// keyedMutex hands out one mutex per key and forgets it when unused
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
