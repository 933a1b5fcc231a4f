// Package firestore is the GCP-hosted alternative to the sqlite backend.
// Same record shape: events and state travel as JSON strings inside one
// document per session.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/session"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed session store for the given project
// (TANDA_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

type sessionDoc struct {
	AppName        string    `firestore:"app_name"`
	UserID         string    `firestore:"user_id"`
	Events         string    `firestore:"events"`
	State          string    `firestore:"state"`
	LastUpdateTime time.Time `firestore:"last_update_time"`
	CreatedAt      time.Time `firestore:"created_at"`
}

func (s *Store) PutSession(ctx context.Context, sess *domain.Session) error {
	rec, err := session.EncodeRecord(sess)
	if err != nil {
		return fmt.Errorf("firestore PutSession: %w", err)
	}

	doc := sessionDoc{
		AppName:        rec.AppName,
		UserID:         rec.UserID,
		Events:         string(rec.Events),
		State:          string(rec.State),
		LastUpdateTime: rec.LastUpdateTime,
		CreatedAt:      rec.CreatedAt,
	}

	if _, err := s.sessionDoc(sess.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore PutSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}
	return decodeDoc(snap.Ref.ID, &doc)
}

func (s *Store) ListSessions(ctx context.Context, appName string, userID domain.UserID) ([]*domain.Session, error) {
	q := s.sessionsCol().
		Where("app_name", "==", appName).
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSessions: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		sess, err := decodeDoc(snap.Ref.ID, &doc)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) error {
	if _, err := s.sessionDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteSession: %w", err)
	}
	return nil
}

func decodeDoc(id string, doc *sessionDoc) (*domain.Session, error) {
	return session.DecodeRecord(&session.Record{
		SessionID:      id,
		AppName:        doc.AppName,
		UserID:         doc.UserID,
		Events:         []byte(doc.Events),
		State:          []byte(doc.State),
		LastUpdateTime: doc.LastUpdateTime,
		CreatedAt:      doc.CreatedAt,
	})
}
