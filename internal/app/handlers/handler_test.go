package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcovillca/tanda-agent/internal/adapters/collab"
	"github.com/marcovillca/tanda-agent/internal/domain"
)

func TestExtractionHelpers(t *testing.T) {
	require.Equal(t, "59177242197", extractPhone("agrega al 59177242197 porfa", "59100000000"))
	require.Equal(t, "", extractPhone("agrega a mi prima", "591"))
	require.Equal(t, "", extractPhone("mi numero 59177242197", "59177242197")) // own number is not a participant

	require.Equal(t, float64(100), extractAmount("cuota de 100 bolivianos"))
	require.Equal(t, float64(0), extractAmount("sin montos"))

	require.Equal(t, "semanal", extractFrequency("que sea Semanal"))
	require.Equal(t, "", extractFrequency("cada tanto"))
}

func TestGroupIDResolutionOrder(t *testing.T) {
	sess := &domain.Session{State: map[string]any{"active_tanda_id": "from-state"}}

	in := Input{
		Request: domain.RouteRequest{OriginalText: "tanda:status:from-token", GroupID: "from-chat"},
		Session: sess,
	}
	require.Equal(t, "from-token", in.groupID())

	in.Request.OriginalText = "estado"
	require.Equal(t, "from-chat", in.groupID())

	in.Request.GroupID = ""
	require.Equal(t, "from-state", in.groupID())
}

func TestFreeTextIgnoresControlTokens(t *testing.T) {
	in := Input{Request: domain.RouteRequest{OriginalText: "tanda:configure:01JDXK3Q9T"}}
	require.Equal(t, "", in.freeText())

	in.Request.OriginalText = "invite_accept:01JDXK3Q9T"
	require.Equal(t, "", in.freeText())

	in.Request.OriginalText = "  cuota de 100  "
	require.Equal(t, "cuota de 100", in.freeText())
}

func TestConfigureTokenTapDoesNotReadIDAsAmount(t *testing.T) {
	groups := collab.NewGroupService()
	h := NewGroupHandler(groups)
	ctx := context.Background()

	group, err := groups.CreateGroup(ctx, "591", "Las Comadres")
	require.NoError(t, err)

	// A bare button tap carries only the token; the digits in the group ID
	// must not become the quota.
	out, err := h.Run(ctx, Input{
		Session: &domain.Session{ID: "tanda-bot:591", State: map[string]any{}},
		UserID:  "591",
		Intent:  domain.IntentConfigureTanda,
		Request: domain.RouteRequest{OriginalText: "tanda:configure:" + group.ID},
	})
	require.NoError(t, err)
	require.Contains(t, out.Reply, "Dime el monto")

	got, err := groups.Status(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, float64(0), got.QuotaAmount)
	require.Equal(t, "", got.Frequency)
}

func TestGroupHandlerFullLifecycle(t *testing.T) {
	groups := collab.NewGroupService()
	h := NewGroupHandler(groups)
	ctx := context.Background()

	sess := &domain.Session{ID: "tanda-bot:591", State: map[string]any{}}
	base := Input{Session: sess, UserID: "591"}

	create := base
	create.Intent = domain.IntentCreateGroup
	create.Request = domain.RouteRequest{OriginalText: `crear tanda "Las Comadres"`}
	out, err := h.Run(ctx, create)
	require.NoError(t, err)
	require.Contains(t, out.Reply, "Las Comadres")

	groupID, _ := out.StateDelta["active_tanda_id"].(string)
	require.NotEmpty(t, groupID)
	sess.State["active_tanda_id"] = groupID

	add := base
	add.Intent = domain.IntentAddParticipant
	add.Request = domain.RouteRequest{OriginalText: "agrega al 59177242197"}
	out, err = h.Run(ctx, add)
	require.NoError(t, err)
	require.Contains(t, out.Reply, "Participante agregado")

	start := base
	start.Intent = domain.IntentStartTanda
	start.Request = domain.RouteRequest{OriginalText: "iniciar la tanda"}
	out, err = h.Run(ctx, start)
	require.NoError(t, err)
	require.Equal(t, true, out.StateDelta["tanda_started"])

	status := base
	status.Intent = domain.IntentCheckStatus
	status.Request = domain.RouteRequest{OriginalText: "estado"}
	out, err = h.Run(ctx, status)
	require.NoError(t, err)
	require.Contains(t, out.Reply, "2 participante(s)")
	require.Contains(t, out.Reply, "en ronda actual")
}

func TestProofHandlerRegistersPendingProof(t *testing.T) {
	h := NewProofHandler(collab.NewVerificationService())

	out, err := h.Run(context.Background(), Input{
		Session: &domain.Session{ID: "tanda-bot:591"},
		UserID:  "591",
		Intent:  domain.IntentUploadProof,
		Request: domain.RouteRequest{OriginalText: "REF-8841"},
	})
	require.NoError(t, err)
	require.Equal(t, "pending", out.StateDelta["last_proof_status"])
	require.Contains(t, out.Reply, "Comprobante recibido")
}
