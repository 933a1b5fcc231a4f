package domain

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by backends and stores when a session id
// resolves to nothing.
var ErrSessionNotFound = errors.New("session not found")

// SessionBackend is the durable side of the session store: a single-row
// upsert per session, no multi-row transactions.
type SessionBackend interface {
	PutSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	ListSessions(ctx context.Context, appName string, userID UserID) ([]*Session, error)
	DeleteSession(ctx context.Context, id SessionID) error
}

// Responder defines how the application talks to an LLM service for
// free-form replies.
type Responder interface {
	GenerateReply(ctx context.Context, prompt string, convCtx ConversationContext) (string, error)
}

// ConversationContext gives the responder minimal context about the turn.
type ConversationContext struct {
	SessionID SessionID
	UserID    UserID
	History   []Event // last N exchanges
}

// Group is a rotating-savings group ("tanda").
type Group struct {
	ID           string
	Name         string
	OwnerPhone   string
	Participants []string
	QuotaAmount  float64
	Frequency    string // "semanal", "quincenal", "mensual"
	Started      bool
	CreatedAt    time.Time
}

// GroupService manages tanda groups. External collaborator; the core only
// consumes this interface.
type GroupService interface {
	CreateGroup(ctx context.Context, ownerPhone, name string) (*Group, error)
	AddParticipant(ctx context.Context, groupID, phone string) error
	Configure(ctx context.Context, groupID string, amount float64, frequency string) error
	Status(ctx context.Context, groupID string) (*Group, error)
	Start(ctx context.Context, groupID string) error
}

// PaymentService records quota payments against a group.
type PaymentService interface {
	PayQuota(ctx context.Context, groupID, phone string) (receiptID string, err error)
}

// VerificationService handles phone-ownership codes and payment proofs.
type VerificationService interface {
	SendCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (bool, error)
	SubmitProof(ctx context.Context, phone, reference string) (accepted bool, err error)
}
