package search

import (
	"context"
	"errors"
	"sync"

	"github.com/sahilchouksey/prof-ratings/model"
	"go.uber.org/zap"
)

// DefaultSuggestionLimit caps a suggestion list
const DefaultSuggestionLimit = 10

// candidates fetched per suggestion shown, so ranking sees close matches
// the store returned past the limit
const fetchFactor = 5

// Finder runs the pattern queries behind the two search boxes
type Finder interface {
	SearchUniversities(ctx context.Context, text string, limit int) ([]model.University, error)
	SearchProfessors(ctx context.Context, universityID uint, text string, limit int) ([]model.Professor, error)
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Resolver runs suggestion queries for tickets. At most one query per
// session and stage is in flight: a newer ticket cancels the older query,
// whose result is then discarded.
type Resolver struct {
	finder Finder
	logger *zap.Logger
	limit  int

	mu      sync.Mutex
	running map[string]inflight
}

// NewResolver creates a resolver over finder
func NewResolver(finder Finder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		finder:  finder,
		logger:  logger,
		limit:   DefaultSuggestionLimit,
		running: make(map[string]inflight),
	}
}

// Suggest runs the query for t on behalf of session. fresh is false when the
// ticket was superseded before or while it ran; the list must then be ignored.
// Query failures are logged and give an empty list.
func (r *Resolver) Suggest(ctx context.Context, session string, t Ticket) (list []Suggestion, fresh bool) {
	key := session + "/" + string(t.Stage)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if cur, ok := r.running[key]; ok {
		if cur.seq > t.Seq {
			r.mu.Unlock()
			return nil, false
		}
		cur.cancel()
	}
	r.running[key] = inflight{seq: t.Seq, cancel: cancel}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if cur, ok := r.running[key]; ok && cur.seq == t.Seq {
			delete(r.running, key)
		}
		r.mu.Unlock()
	}()

	list, err := r.query(ctx, t)
	if ctx.Err() != nil {
		// superseded or the caller went away
		return nil, false
	}
	if err != nil {
		r.logger.Warn("suggestion query failed",
			zap.String("session", session),
			zap.String("stage", string(t.Stage)),
			zap.Uint64("seq", t.Seq),
			zap.Error(err))
		return []Suggestion{}, true
	}
	return list, true
}

func (r *Resolver) query(ctx context.Context, t Ticket) ([]Suggestion, error) {
	switch t.Stage {
	case StageInstitution:
		found, err := r.finder.SearchUniversities(ctx, t.Text, r.limit*fetchFactor)
		if err != nil {
			return nil, err
		}
		return RankUniversities(found, t.Text, r.limit), nil
	case StagePerson:
		found, err := r.finder.SearchProfessors(ctx, t.UniversityID, t.Text, r.limit*fetchFactor)
		if err != nil {
			return nil, err
		}
		return RankProfessors(found, t.Text, r.limit), nil
	}
	return nil, errors.New("search: unknown stage " + string(t.Stage))
}

// Forget cancels any query still running for session
func (r *Resolver) Forget(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stage := range []Stage{StageInstitution, StagePerson} {
		key := session + "/" + string(stage)
		if cur, ok := r.running[key]; ok {
			cur.cancel()
			delete(r.running, key)
		}
	}
}
