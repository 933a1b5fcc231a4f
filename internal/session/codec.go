package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// Record is the persisted row representation of a session. Both durable
// backends (sqlite, firestore) store exactly these fields: the event log and
// the derived state travel as JSON blobs.
type Record struct {
	SessionID      string
	AppName        string
	UserID         string
	Events         []byte
	State          []byte
	LastUpdateTime time.Time
	CreatedAt      time.Time
}

type eventRecord struct {
	ID         string         `json:"id"`
	Author     string         `json:"author"`
	Timestamp  time.Time      `json:"timestamp"`
	StateDelta map[string]any `json:"state_delta,omitempty"`
	Payload    string         `json:"payload,omitempty"`
}

// EncodeRecord converts an in-memory session into its row representation.
// Scratch keys are stripped from both the state and every event delta, so
// nothing in the ephemeral namespace ever reaches storage.
func EncodeRecord(s *domain.Session) (*Record, error) {
	events := make([]eventRecord, 0, len(s.Events))
	for _, ev := range s.Events {
		events = append(events, eventRecord{
			ID:         string(ev.ID),
			Author:     ev.Author,
			Timestamp:  ev.Timestamp,
			StateDelta: domain.StripScratch(ev.StateDelta),
			Payload:    ev.Payload,
		})
	}

	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	stateJSON, err := json.Marshal(domain.StripScratch(s.State))
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	return &Record{
		SessionID:      string(s.ID),
		AppName:        s.AppName,
		UserID:         string(s.UserID),
		Events:         eventsJSON,
		State:          stateJSON,
		LastUpdateTime: s.LastUpdateTime,
		CreatedAt:      s.CreatedAt,
	}, nil
}

// DecodeRecord converts a persisted row back into a session. Scratch keys
// are stripped again on the way out: rows written by older builds (or edited
// by hand) may still carry them.
func DecodeRecord(r *Record) (*domain.Session, error) {
	var events []eventRecord
	if len(r.Events) > 0 {
		if err := json.Unmarshal(r.Events, &events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
	}

	state := map[string]any{}
	if len(r.State) > 0 {
		if err := json.Unmarshal(r.State, &state); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
	}

	sess := &domain.Session{
		ID:             domain.SessionID(r.SessionID),
		AppName:        r.AppName,
		UserID:         domain.UserID(r.UserID),
		State:          domain.StripScratch(state),
		CreatedAt:      r.CreatedAt,
		LastUpdateTime: r.LastUpdateTime,
	}
	sess.Events = make([]domain.Event, 0, len(events))
	for _, ev := range events {
		sess.Events = append(sess.Events, domain.Event{
			ID:         domain.EventID(ev.ID),
			Author:     ev.Author,
			Timestamp:  ev.Timestamp,
			StateDelta: domain.StripScratch(ev.StateDelta),
			Payload:    ev.Payload,
		})
	}
	return sess, nil
}
