package httpadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcovillca/tanda-agent/internal/observability"
)

func TestInternalErrorResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users/591/sessions", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-123"))
	w := httptest.NewRecorder()

	internalError(w, req, errors.New("backend unavailable"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
