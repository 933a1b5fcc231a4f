package domain

import (
	"strings"
	"time"
)

// ScratchPrefix marks state keys that live only for the current exchange.
// They are applied write-through during the exchange and purged before
// persistence or any external read.
const ScratchPrefix = "temp:"

// Event is one immutable, append-only record within a session.
// Session state is the left-fold of all non-scratch deltas in append order.
type Event struct {
	ID         EventID
	Author     string
	Timestamp  time.Time
	StateDelta map[string]any
	Payload    string
}

// Session is the durable conversational state of one user within one app.
type Session struct {
	ID             SessionID
	AppName        string
	UserID         UserID
	Events         []Event
	State          map[string]any
	CreatedAt      time.Time
	LastUpdateTime time.Time
}

// SessionSummary is a projection without event bodies, used by list views.
type SessionSummary struct {
	ID             SessionID `json:"id"`
	AppName        string    `json:"app_name"`
	UserID         UserID    `json:"user_id"`
	EventCount     int       `json:"event_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// IsScratchKey reports whether a state key belongs to the ephemeral namespace.
func IsScratchKey(key string) bool {
	return strings.HasPrefix(key, ScratchPrefix)
}

// StripScratch returns a copy of state without ephemeral keys.
// A nil input yields an empty, usable map.
func StripScratch(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		if IsScratchKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Summary projects the session into its event-less list representation.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:             s.ID,
		AppName:        s.AppName,
		UserID:         s.UserID,
		EventCount:     len(s.Events),
		CreatedAt:      s.CreatedAt,
		LastUpdateTime: s.LastUpdateTime,
	}
}

// Clone returns a deep copy. Stores hand out clones so read-time filters
// and callers can never mutate the cached copy.
func (s *Session) Clone() *Session {
	cp := &Session{
		ID:             s.ID,
		AppName:        s.AppName,
		UserID:         s.UserID,
		CreatedAt:      s.CreatedAt,
		LastUpdateTime: s.LastUpdateTime,
		State:          make(map[string]any, len(s.State)),
	}
	for k, v := range s.State {
		cp.State[k] = v
	}
	cp.Events = make([]Event, len(s.Events))
	for i, ev := range s.Events {
		cp.Events[i] = ev.Clone()
	}
	return cp
}

// Clone copies the event, including its delta map.
func (e Event) Clone() Event {
	cp := e
	if e.StateDelta != nil {
		cp.StateDelta = make(map[string]any, len(e.StateDelta))
		for k, v := range e.StateDelta {
			cp.StateDelta[k] = v
		}
	}
	return cp
}
