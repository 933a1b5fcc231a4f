package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marcovillca/tanda-agent/internal/app/router"
	"github.com/marcovillca/tanda-agent/internal/dedup"
	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/observability"
	"github.com/marcovillca/tanda-agent/internal/session"
)

type Server struct {
	appName  string
	router   *router.Router
	sessions *session.Store
	dedup    *dedup.Cache
}

func NewServer(appName string, rt *router.Router, sessions *session.Store, dd *dedup.Cache) http.Handler {
	s := &Server{
		appName:  appName,
		router:   rt,
		sessions: sessions,
		dedup:    dd,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)

	// /webhook/messages → POST: inbound chat message
	mux.HandleFunc("/webhook/messages", s.handleWebhook)

	// /sessions/{id}         → GET: session snapshot, DELETE: remove
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	// /users/{id}/sessions → GET: session summaries for a user
	mux.HandleFunc("/users/", s.handleUserSessions)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type webhookRequest struct {
	MessageID       string           `json:"message_id"`
	SenderID        string           `json:"sender_id"`
	SenderName      string           `json:"sender_name,omitempty"`
	GroupID         string           `json:"group_id,omitempty"`
	Text            string           `json:"text"`
	ReferredProduct *referredProduct `json:"referred_product,omitempty"`
}

type referredProduct struct {
	CatalogID         string `json:"catalog_id"`
	ProductRetailerID string `json:"product_retailer_id"`
}

type sessionResponse struct {
	ID             string          `json:"id"`
	AppName        string          `json:"app_name"`
	UserID         string          `json:"user_id"`
	State          map[string]any  `json:"state"`
	Events         []eventResponse `json:"events"`
	CreatedAt      time.Time       `json:"created_at"`
	LastUpdateTime time.Time       `json:"last_update_time"`
}

type eventResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload,omitempty"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SenderID == "" {
		badRequest(w, "sender_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	// Transport-boundary dedup: a retried delivery is acknowledged without
	// touching any session state.
	if s.dedup.IsDuplicate(req.MessageID) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	routeReq := domain.RouteRequest{
		SenderID:     req.SenderID,
		SenderName:   req.SenderName,
		GroupID:      req.GroupID,
		OriginalText: req.Text,
	}
	if req.ReferredProduct != nil {
		routeReq.ReferredProduct = &domain.ReferredProduct{
			CatalogID:         req.ReferredProduct.CatalogID,
			ProductRetailerID: req.ReferredProduct.ProductRetailerID,
		}
	}

	result := s.router.Route(r.Context(), routeReq)
	writeJSON(w, http.StatusOK, result)
}

// /sessions/{id}
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSession(w, r, domain.SessionID(id))
	case http.MethodDelete:
		_ = s.sessions.Delete(r.Context(), domain.SessionID(id))
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	// Session ids are "appName:userID", so the owner is recoverable from
	// the id itself.
	userID := strings.TrimPrefix(string(id), s.appName+":")

	var cfg *session.GetConfig
	if recent := r.URL.Query().Get("recent"); recent != "" {
		n, err := strconv.Atoi(recent)
		if err != nil || n < 1 {
			badRequest(w, "recent must be a positive integer")
			return
		}
		cfg = &session.GetConfig{NumRecentEvents: n}
	}

	sess, err := s.sessions.Get(r.Context(), s.appName, domain.UserID(userID), id, cfg)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// /users/{id}/sessions
func (s *Server) handleUserSessions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "sessions" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	summaries, err := s.sessions.List(r.Context(), s.appName, domain.UserID(parts[0]))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toSessionResponse(sess *domain.Session) sessionResponse {
	events := make([]eventResponse, 0, len(sess.Events))
	for _, ev := range sess.Events {
		events = append(events, eventResponse{
			ID:        string(ev.ID),
			Author:    ev.Author,
			Timestamp: ev.Timestamp,
			Payload:   ev.Payload,
		})
	}
	return sessionResponse{
		ID:             string(sess.ID),
		AppName:        sess.AppName,
		UserID:         string(sess.UserID),
		State:          sess.State,
		Events:         events,
		CreatedAt:      sess.CreatedAt,
		LastUpdateTime: sess.LastUpdateTime,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
