package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcovillca/tanda-agent/internal/adapters/collab"
	"github.com/marcovillca/tanda-agent/internal/adapters/llm"
	"github.com/marcovillca/tanda-agent/internal/app/router"
	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/session"
)

type failingResponder struct{}

func (failingResponder) GenerateReply(context.Context, string, domain.ConversationContext) (string, error) {
	return "", errors.New("model exploded")
}

type fixture struct {
	router       *router.Router
	sessions     *session.Store
	verification *collab.VerificationService
}

func newFixture(t *testing.T, responder domain.Responder) *fixture {
	t.Helper()

	if responder == nil {
		responder = llm.NewMockLLM()
	}
	sessions := session.NewStore(nil)
	verification := collab.NewVerificationService()

	rt := router.New(router.Config{
		AppName:      "tanda-bot",
		Sessions:     sessions,
		Groups:       collab.NewGroupService(),
		Payments:     collab.NewPaymentService(),
		Verification: verification,
		Responder:    responder,
	})

	return &fixture{router: rt, sessions: sessions, verification: verification}
}

func TestFreshUserHelpCreatesSessionAndClassifies(t *testing.T) {
	f := newFixture(t, nil)

	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "+591 77242197",
		OriginalText: "ayuda",
	})

	require.Equal(t, domain.IntentGeneralHelp, result.Intent)
	require.Equal(t, "general_handler", result.HandlerUsed)
	require.NotEmpty(t, result.ResponseText)
	require.Equal(t, "59177242197", result.SessionState["phone_number"])

	sess, err := f.sessions.Get(context.Background(), "tanda-bot", "59177242197", "tanda-bot:59177242197", nil)
	require.NoError(t, err)
	require.Len(t, sess.Events, 2) // user turn + handler reply
}

func TestDelegationErrorYieldsFallbackResult(t *testing.T) {
	f := newFixture(t, failingResponder{})

	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "zzz qqq", // nothing matches, lands on the general handler
	})

	require.Equal(t, domain.IntentUnknown, result.Intent)
	require.Equal(t, domain.AuthorOrchestrator, result.HandlerUsed)
	require.NotEmpty(t, result.ResponseText)
}

func TestCreateGroupFlowUpdatesSessionState(t *testing.T) {
	f := newFixture(t, nil)

	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		SenderName:   "Marco",
		OriginalText: "quiero crear una nueva tanda",
	})

	require.Equal(t, domain.IntentCreateGroup, result.Intent)
	require.Equal(t, "group_handler", result.HandlerUsed)
	require.Contains(t, result.ResponseText, "fue creada")
	require.NotEmpty(t, result.SessionState["active_tanda_id"])

	for k := range result.SessionState {
		require.False(t, domain.IsScratchKey(k), "scratch key %q leaked into the result", k)
	}
}

func TestStructuredTokenRoutesToGroupHandler(t *testing.T) {
	f := newFixture(t, nil)

	created := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "crear tanda",
	})
	groupID, _ := created.SessionState["active_tanda_id"].(string)
	require.NotEmpty(t, groupID)

	status := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "tanda:status:" + groupID,
	})

	require.Equal(t, domain.IntentCheckStatus, status.Intent)
	require.Equal(t, "group_handler", status.HandlerUsed)
	require.Contains(t, status.ResponseText, "Estado de tu tanda")
}

func TestVerificationRunsAtTopLevel(t *testing.T) {
	f := newFixture(t, nil)
	f.verification.SetCode("59177242197", "482913")

	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "*482913*",
	})

	require.Equal(t, domain.IntentVerifyPhone, result.Intent)
	require.Equal(t, domain.AuthorOrchestrator, result.HandlerUsed)
	require.Equal(t, true, result.SessionState["phone_verified"])
}

func TestWrongVerificationCodeIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)
	f.verification.SetCode("59177242197", "111111")

	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "*999999*",
	})

	require.Equal(t, domain.IntentVerifyPhone, result.Intent)
	require.NotContains(t, result.SessionState, "phone_verified")
	require.NotEmpty(t, result.ResponseText)
}

func TestPaymentNeedsAnActiveTanda(t *testing.T) {
	f := newFixture(t, nil)

	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "quiero pagar mi cuota",
	})

	// No tanda yet: the payment handler answers conversationally, nothing
	// is charged, and the turn still resolves to a defined intent.
	require.Equal(t, "payment_handler", result.HandlerUsed)
	require.Equal(t, domain.IntentPayQuota, result.Intent)
	require.NotContains(t, result.SessionState, "last_receipt_id")
}

func TestPaymentAgainstActiveTanda(t *testing.T) {
	f := newFixture(t, nil)

	f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "crear tanda",
	})
	result := f.router.Route(context.Background(), domain.RouteRequest{
		SenderID:     "59177242197",
		OriginalText: "quiero pagar mi cuota",
	})

	require.Equal(t, domain.IntentPayQuota, result.Intent)
	require.Contains(t, result.ResponseText, "Pago registrado")
	require.NotEmpty(t, result.SessionState["last_receipt_id"])
}
