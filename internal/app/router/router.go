// Package router is the top-level entry point for one conversational turn:
// it resolves the session, delegates to exactly one handler, persists the
// resulting event and classifies the exchange. It is also the single error
// boundary — nothing that happens during a turn escapes Route.
package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/marcovillca/tanda-agent/internal/app/handlers"
	"github.com/marcovillca/tanda-agent/internal/app/tools"
	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/intent"
	"github.com/marcovillca/tanda-agent/internal/observability"
	"github.com/marcovillca/tanda-agent/internal/session"
)

// fallbackReply is the only failure text a user ever sees.
const fallbackReply = "Disculpa, tuve un problema procesando tu mensaje 🙏. Escribe \"ayuda\" para ver lo que puedo hacer."

const defaultDelegationTimeout = 30 * time.Second

type Config struct {
	AppName           string
	Sessions          *session.Store
	Groups            domain.GroupService
	Payments          domain.PaymentService
	Verification      domain.VerificationService
	Responder         domain.Responder
	DelegationTimeout time.Duration
}

type Router struct {
	appName  string
	sessions *session.Store

	group   handlers.Handler
	payment handlers.Handler
	proof   handlers.Handler
	general handlers.Handler

	// verifyTool is the only tool callable at the top level; every other
	// business action flows through its specialized handler.
	verifyTool tools.Tool

	timeout time.Duration
	now     func() time.Time
}

func New(cfg Config) *Router {
	timeout := cfg.DelegationTimeout
	if timeout <= 0 {
		timeout = defaultDelegationTimeout
	}
	return &Router{
		appName:    cfg.AppName,
		sessions:   cfg.Sessions,
		group:      handlers.NewGroupHandler(cfg.Groups),
		payment:    handlers.NewPaymentHandler(cfg.Payments),
		proof:      handlers.NewProofHandler(cfg.Verification),
		general:    handlers.NewGeneralHandler(cfg.Responder),
		verifyTool: tools.NewVerifyPhoneTool(cfg.Verification),
		timeout:    timeout,
		now:        time.Now,
	}
}

// Route runs the full turn state machine. It never returns an error: any
// delegation failure resolves to a generic fallback result.
func (r *Router) Route(ctx context.Context, req domain.RouteRequest) domain.RouteResult {
	userID := canonicalUserID(req.SenderID)
	sessionID := session.DeriveSessionID(r.appName, userID)

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"user_id", userID,
	)
	log.Info("routing inbound message", "text_len", len(req.OriginalText))

	sess := r.resolveSession(ctx, req, userID, sessionID)

	r.sessions.AppendEvent(ctx, sess, domain.Event{
		Author:    domain.AuthorUser,
		Timestamp: r.now(),
		Payload:   req.OriginalText,
	})

	preIntent := intent.Classify(req.OriginalText, "")

	in := handlers.Input{
		Prompt:  buildPrompt(req, userID),
		Intent:  preIntent,
		Request: req,
		Session: sess,
		UserID:  userID,
	}

	out, handlerUsed, err := r.delegate(ctx, in)
	if err != nil {
		log.Error("delegation failed", "intent", preIntent, "error", err)
		return domain.RouteResult{
			Intent:       domain.IntentUnknown,
			HandlerUsed:  domain.AuthorOrchestrator,
			ResponseText: fallbackReply,
			SessionState: domain.StripScratch(sess.State),
		}
	}
	if handlerUsed == "" {
		handlerUsed = domain.AuthorOrchestrator
	}

	r.sessions.AppendEvent(ctx, sess, domain.Event{
		Author:     handlerUsed,
		Timestamp:  r.now(),
		StateDelta: out.StateDelta,
		Payload:    out.Reply,
	})

	// Re-fetch so the snapshot reflects every delta the turn applied,
	// including tool side effects persisted behind our back.
	snapshot := sess.State
	if fresh, err := r.sessions.Get(ctx, r.appName, userID, sessionID, nil); err == nil {
		snapshot = fresh.State
	}

	finalIntent := intent.Classify(req.OriginalText, out.Reply)

	log.Info("turn complete", "intent", finalIntent, "handler", handlerUsed)
	return domain.RouteResult{
		Intent:       finalIntent,
		HandlerUsed:  handlerUsed,
		ResponseText: out.Reply,
		SessionState: domain.StripScratch(snapshot),
	}
}

// resolveSession loads the user's session, creating it on first contact.
// Creation is best-effort: the store already degrades to memory-only on
// durable failures, so routing always proceeds with a usable session.
func (r *Router) resolveSession(
	ctx context.Context,
	req domain.RouteRequest,
	userID domain.UserID,
	sessionID domain.SessionID,
) *domain.Session {
	sess, err := r.sessions.Get(ctx, r.appName, userID, sessionID, nil)
	if err == nil {
		return sess
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		observability.LoggerFromContext(ctx).Warn("session lookup failed, creating fresh session",
			"session_id", sessionID, "error", err)
	}

	initial := map[string]any{
		"phone_number": string(userID),
	}
	if req.GroupID != "" {
		initial["group_id"] = req.GroupID
	}
	if req.SenderName != "" {
		initial["sender_name"] = req.SenderName
	}
	return r.sessions.Create(ctx, r.appName, userID, sessionID, initial)
}

// delegate dispatches the turn to exactly one handler (or the top-level
// verification tool) under the configured timeout. Panics inside handlers
// are converted to errors so Route can degrade gracefully.
func (r *Router) delegate(ctx context.Context, in handlers.Input) (out handlers.Output, handlerUsed string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			observability.LoggerFromContext(ctx).Error("handler panicked",
				"panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()

	if in.Intent == domain.IntentVerifyPhone {
		out, err = r.runVerification(ctx, in)
		return out, domain.AuthorOrchestrator, err
	}

	h := r.handlerFor(in.Intent)
	out, err = h.Run(ctx, in)
	return out, h.Name(), err
}

func (r *Router) handlerFor(it domain.Intent) handlers.Handler {
	switch it {
	case domain.IntentCreateGroup,
		domain.IntentAddParticipant,
		domain.IntentConfigureTanda,
		domain.IntentCheckStatus,
		domain.IntentStartTanda:
		return r.group
	case domain.IntentPayQuota:
		return r.payment
	case domain.IntentUploadProof:
		return r.proof
	default:
		return r.general
	}
}

// runVerification is the one business action the router executes itself.
func (r *Router) runVerification(ctx context.Context, in handlers.Input) (handlers.Output, error) {
	code := intent.ExtractVerificationCode(in.Request.OriginalText)

	result, err := r.verifyTool.Call(ctx, tools.ToolContext{
		UserID:    string(in.UserID),
		SessionID: string(in.Session.ID),
	}, map[string]any{"code": code})
	if err != nil {
		return handlers.Output{}, err
	}

	if sent, _ := result["code_sent"].(bool); sent {
		return handlers.Output{
			Reply: "Te enviamos un código de verificación por SMS. Respóndeme con el código entre asteriscos, por ejemplo *123456*.",
		}, nil
	}

	if verified, _ := result["verified"].(bool); verified {
		return handlers.Output{
			Reply: "¡Número verificado! ✅ Ya puedes usar todas las funciones de tu tanda.",
			StateDelta: map[string]any{
				"phone_verified":   true,
				"temp:last_action": "verify_phone",
			},
		}, nil
	}

	return handlers.Output{
		Reply: "Ese código no es válido o ya venció. Escribe \"verificar mi número\" para recibir uno nuevo.",
	}, nil
}

// buildPrompt composes the delegation prompt: the original text first, then
// bracketed context lines the handlers and the responder can rely on.
func buildPrompt(req domain.RouteRequest, userID domain.UserID) string {
	var b strings.Builder
	b.WriteString(req.OriginalText)
	b.WriteString("\n\n[telefono: ")
	b.WriteString(string(userID))
	b.WriteString("]")
	if req.GroupID != "" {
		b.WriteString("\n[grupo: ")
		b.WriteString(req.GroupID)
		b.WriteString("]")
	}
	if req.SenderName != "" {
		b.WriteString("\n[nombre: ")
		b.WriteString(req.SenderName)
		b.WriteString("]")
	}
	if req.ReferredProduct != nil {
		b.WriteString("\n[producto: ")
		b.WriteString(req.ReferredProduct.CatalogID)
		b.WriteString("/")
		b.WriteString(req.ReferredProduct.ProductRetailerID)
		b.WriteString("]")
	}
	return b.String()
}

// canonicalUserID keeps only the digits of the sender id so the same user
// maps to one session regardless of how the transport formats the number.
func canonicalUserID(senderID string) domain.UserID {
	var b strings.Builder
	for _, r := range senderID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return domain.UserID(senderID)
	}
	return domain.UserID(b.String())
}
