package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcovillca/tanda-agent/internal/adapters/collab"
	httpadapter "github.com/marcovillca/tanda-agent/internal/adapters/http"
	"github.com/marcovillca/tanda-agent/internal/adapters/llm"
	"github.com/marcovillca/tanda-agent/internal/app/router"
	"github.com/marcovillca/tanda-agent/internal/dedup"
	"github.com/marcovillca/tanda-agent/internal/session"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	sessions := session.NewStore(nil)
	rt := router.New(router.Config{
		AppName:      "tanda-bot",
		Sessions:     sessions,
		Groups:       collab.NewGroupService(),
		Payments:     collab.NewPaymentService(),
		Verification: collab.NewVerificationService(),
		Responder:    llm.NewMockLLM(),
	})

	return httpadapter.NewServer("tanda-bot", rt, sessions, dedup.New(0))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRoutesMessage(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message_id":"wamid.1","sender_id":"59177242197","text":"ayuda"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/messages", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Intent       string         `json:"intent"`
		HandlerUsed  string         `json:"handler_used"`
		ResponseText string         `json:"response_text"`
		SessionState map[string]any `json:"session_state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, "GENERAL_HELP", result.Intent)
	require.NotEmpty(t, result.ResponseText)
	require.Equal(t, "59177242197", result.SessionState["phone_number"])
}

func TestWebhookSkipsDuplicateDeliveries(t *testing.T) {
	srv := newTestServer(t)
	body := `{"message_id":"wamid.dup","sender_id":"59177242197","text":"crear tanda"}`

	first := httptest.NewRecorder()
	srv.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/webhook/messages", bytes.NewReader([]byte(body))))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	srv.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/webhook/messages", bytes.NewReader([]byte(body))))
	require.Equal(t, http.StatusOK, second.Code)
	require.JSONEq(t, `{"status":"duplicate"}`, second.Body.String())
}

func TestWebhookValidatesPayload(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message_id":"wamid.2","text":"hola"}`)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook/messages", bytes.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSessionAndList(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message_id":"wamid.3","sender_id":"59177242197","text":"hola"}`)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook/messages", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	get := httptest.NewRecorder()
	srv.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/sessions/tanda-bot:59177242197", nil))
	require.Equal(t, http.StatusOK, get.Code)

	var sess struct {
		Events []any          `json:"events"`
		State  map[string]any `json:"state"`
	}
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &sess))
	require.Len(t, sess.Events, 2)

	recent := httptest.NewRecorder()
	srv.ServeHTTP(recent, httptest.NewRequest(http.MethodGet, "/sessions/tanda-bot:59177242197?recent=1", nil))
	require.Equal(t, http.StatusOK, recent.Code)
	require.NoError(t, json.Unmarshal(recent.Body.Bytes(), &sess))
	require.Len(t, sess.Events, 1)

	list := httptest.NewRecorder()
	srv.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/users/59177242197/sessions", nil))
	require.Equal(t, http.StatusOK, list.Code)

	var listResp struct {
		Sessions []any `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listResp))
	require.Len(t, listResp.Sessions, 1)
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	del := httptest.NewRecorder()
	srv.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/sessions/tanda-bot:59177242197", nil))
	require.Equal(t, http.StatusNoContent, del.Code)
}
