package intent_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/intent"
)

func TestStructuredTokensWinOverEverything(t *testing.T) {
	// The response text would match PAY_QUOTA rules; the token still wins.
	got := intent.Classify("tanda:configure:42", "Pago registrado ✅")
	require.Equal(t, domain.IntentConfigureTanda, got)
}

func TestTandaTokenActions(t *testing.T) {
	cases := map[string]domain.Intent{
		"tanda:configure:42":        domain.IntentConfigureTanda,
		"tanda:status:42":           domain.IntentCheckStatus,
		"tanda:add_participant:42":  domain.IntentAddParticipant,
		"tanda:start:42":            domain.IntentStartTanda,
		"invite_accept:ABC123":      domain.IntentCreateGroup,
		"invite_decline:ABC123":     domain.IntentCreateGroup,
		"tanda:selfdestruct:42":     domain.IntentUnknown, // malformed token is final, not free text
	}
	for text, want := range cases {
		require.Equal(t, want, intent.Classify(text, ""), "text=%q", text)
	}
}

func TestVerificationMarkers(t *testing.T) {
	require.Equal(t, domain.IntentVerifyPhone, intent.Classify("*482913*", ""))
	require.Equal(t, domain.IntentVerifyPhone, intent.Classify("aquí está mi código de verificación", ""))
}

func TestSpanishKeywordRules(t *testing.T) {
	cases := map[string]domain.Intent{
		"quiero crear una nueva tanda":      domain.IntentCreateGroup,
		"quiero invitar a mi prima":         domain.IntentAddParticipant,
		"configurar el monto por favor":     domain.IntentConfigureTanda,
		"¿cómo va mi tanda?":                domain.IntentCheckStatus,
		"quiero pagar mi cuota":             domain.IntentPayQuota,
		"te mando el comprobante":           domain.IntentUploadProof,
		"ayuda":                             domain.IntentGeneralHelp,
		"hola":                              domain.IntentGeneralHelp,
	}
	for text, want := range cases {
		require.Equal(t, want, intent.Classify(text, ""), "text=%q", text)
	}
}

func TestAccentsAreFolded(t *testing.T) {
	require.Equal(t, domain.IntentAddParticipant, intent.Classify("quiero añadir un participante", ""))
}

func TestResponseTextFallback(t *testing.T) {
	// User phrasing matched nothing, the handler confirmation did.
	got := intent.Classify("dale, hazlo", "Pago registrado ✅. Tu recibo es rcpt-1.")
	require.Equal(t, domain.IntentPayQuota, got)
}

func TestUserTextWinsOverResponseText(t *testing.T) {
	got := intent.Classify("quiero pagar", "Tanda creada")
	require.Equal(t, domain.IntentPayQuota, got)
}

func TestUnknownByDefault(t *testing.T) {
	require.Equal(t, domain.IntentUnknown, intent.Classify("xyzzy", "plugh"))
	require.Equal(t, domain.IntentUnknown, intent.Classify("", ""))
}

func TestExtractVerificationCode(t *testing.T) {
	require.Equal(t, "482913", intent.ExtractVerificationCode("mi código es *482913* gracias"))
	require.Equal(t, "482913", intent.ExtractVerificationCode("482913"))
	require.Equal(t, "", intent.ExtractVerificationCode("no hay código aquí"))
	require.Equal(t, "", intent.ExtractVerificationCode("123")) // too short
}
