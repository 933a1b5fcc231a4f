package session

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/observability"
)

// GetConfig narrows what Get returns. Filters apply to a copy of the
// session; the stored version is never touched.
type GetConfig struct {
	// NumRecentEvents keeps only the most recent N events when > 0.
	NumRecentEvents int
	// After keeps only events strictly after the given instant when set.
	After time.Time
}

// Store is the session store: durable backend as source of truth plus an
// in-memory read-through/write-through mirror. Backend failures degrade to
// cache-only operation and never abort the conversational turn.
type Store struct {
	backend domain.SessionBackend // nil means memory-only mode
	cache   *Cache
	now     func() time.Time
}

func NewStore(backend domain.SessionBackend) *Store {
	return &Store{
		backend: backend,
		cache:   NewCache(),
		now:     time.Now,
	}
}

// Create builds a new session and stores it best-effort. A failed durable
// write is logged and the caller still gets a usable in-memory session.
// sessionID defaults to "appName:userID" when empty.
func (s *Store) Create(
	ctx context.Context,
	appName string,
	userID domain.UserID,
	sessionID domain.SessionID,
	initialState map[string]any,
) *domain.Session {
	if sessionID == "" {
		sessionID = DeriveSessionID(appName, userID)
	}

	now := s.now()
	sess := &domain.Session{
		ID:             sessionID,
		AppName:        appName,
		UserID:         userID,
		State:          domain.StripScratch(initialState),
		Events:         []domain.Event{},
		CreatedAt:      now,
		LastUpdateTime: now,
	}

	s.persist(ctx, sess, "create")
	s.cache.Put(sess)
	return sess
}

// Get returns a copy of the session, durable backend first, cache as
// fallback. A successful backend read refreshes the cache.
func (s *Store) Get(
	ctx context.Context,
	appName string,
	userID domain.UserID,
	sessionID domain.SessionID,
	cfg *GetConfig,
) (*domain.Session, error) {
	if s.backend != nil {
		sess, err := s.backend.GetSession(ctx, sessionID)
		switch {
		case err == nil:
			if !s.owns(sess, appName, userID) {
				return nil, domain.ErrSessionNotFound
			}
			s.cache.Put(sess)
			return applyGetConfig(sess.Clone(), cfg), nil
		case errors.Is(err, domain.ErrSessionNotFound):
			// fall through to the cache
		default:
			observability.LoggerFromContext(ctx).Warn("session backend read failed, falling back to cache",
				"session_id", sessionID, "error", err)
		}
	}

	sess, ok := s.cache.Get(sessionID)
	if !ok || !s.owns(sess, appName, userID) {
		return nil, domain.ErrSessionNotFound
	}
	return applyGetConfig(sess, cfg), nil
}

// List returns event-less summaries of the user's sessions in this app.
func (s *Store) List(ctx context.Context, appName string, userID domain.UserID) ([]domain.SessionSummary, error) {
	var sessions []*domain.Session
	if s.backend != nil {
		var err error
		sessions, err = s.backend.ListSessions(ctx, appName, userID)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("session backend list failed, falling back to cache",
				"user_id", userID, "error", err)
			sessions = nil
		}
	}
	if sessions == nil {
		sessions = s.cache.ListByUser(appName, userID)
	}

	out := make([]domain.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Summary())
	}
	return out, nil
}

// Delete removes the session from backend and cache. Idempotent: deleting
// an absent session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID domain.SessionID) error {
	if s.backend != nil {
		if err := s.backend.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			observability.LoggerFromContext(ctx).Warn("session backend delete failed",
				"session_id", sessionID, "error", err)
		}
	}
	s.cache.Delete(sessionID)
	return nil
}

// AppendEvent applies the event's delta to the session state (scratch keys
// excluded), stamps the session, and stores it best-effort. The state is
// re-stripped defensively in case a legacy row leaked scratch keys in.
func (s *Store) AppendEvent(ctx context.Context, sess *domain.Session, ev domain.Event) domain.Event {
	if ev.ID == "" {
		ev.ID = domain.EventID(ulid.Make().String())
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}

	if sess.State == nil {
		sess.State = map[string]any{}
	}
	for k, v := range ev.StateDelta {
		if domain.IsScratchKey(k) {
			continue
		}
		sess.State[k] = v
	}
	sess.State = domain.StripScratch(sess.State)
	sess.Events = append(sess.Events, ev)
	sess.LastUpdateTime = ev.Timestamp

	s.persist(ctx, sess, "append_event")
	s.cache.Put(sess)
	return ev
}

// persist writes the session to the durable backend, logging instead of
// failing: durability is best-effort from the router's perspective.
func (s *Store) persist(ctx context.Context, sess *domain.Session, op string) {
	if s.backend == nil {
		return
	}
	if err := s.backend.PutSession(ctx, sess); err != nil {
		observability.LoggerFromContext(ctx).Error("session backend write failed, continuing in degraded mode",
			"op", op, "session_id", sess.ID, "error", err)
	}
}

func (s *Store) owns(sess *domain.Session, appName string, userID domain.UserID) bool {
	return sess.AppName == appName && sess.UserID == userID
}

// DeriveSessionID is the deterministic default session id for a user.
func DeriveSessionID(appName string, userID domain.UserID) domain.SessionID {
	return domain.SessionID(appName + ":" + string(userID))
}

func applyGetConfig(sess *domain.Session, cfg *GetConfig) *domain.Session {
	// Re-strip on every read: the codec already strips at the row boundary,
	// but a backend row edited out-of-band may still carry scratch keys.
	sess.State = domain.StripScratch(sess.State)
	if cfg == nil {
		return sess
	}
	if !cfg.After.IsZero() {
		kept := sess.Events[:0:0]
		for _, ev := range sess.Events {
			if ev.Timestamp.After(cfg.After) {
				kept = append(kept, ev)
			}
		}
		sess.Events = kept
	}
	if cfg.NumRecentEvents > 0 && len(sess.Events) > cfg.NumRecentEvents {
		sess.Events = sess.Events[len(sess.Events)-cfg.NumRecentEvents:]
	}
	return sess
}
