// Package intent maps a conversational exchange to one of a closed set of
// intents using a deterministic ordered rule chain. No model is involved:
// classification must be reproducible for the same pair of texts.
package intent

import (
	"regexp"
	"strings"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// tandaTokenActions maps the action segment of a "tanda:<action>:<id>"
// control token to its intent.
var tandaTokenActions = map[string]domain.Intent{
	"configure":       domain.IntentConfigureTanda,
	"status":          domain.IntentCheckStatus,
	"add_participant": domain.IntentAddParticipant,
	"start":           domain.IntentStartTanda,
}

// codePattern matches delimiter-wrapped verification codes, e.g. *482913*.
var codePattern = regexp.MustCompile(`\*([0-9]{4,8})\*`)

type keywordRule struct {
	intent domain.Intent
	words  []string
}

// userRules run against the user's raw text, in this exact order. The order
// is the documented tie-break for overlapping keywords: concrete group
// actions win over status, payment over proof, and help is matched last
// because its words ("hola", "info") appear in almost anything.
var userRules = []keywordRule{
	{domain.IntentCreateGroup, []string{"crear tanda", "crear una tanda", "crear grupo", "nueva tanda", "abrir una tanda", "armar una tanda"}},
	{domain.IntentAddParticipant, []string{"agregar participante", "agregar a ", "anadir", "invitar", "sumar a "}},
	{domain.IntentConfigureTanda, []string{"configurar", "configuracion", "cambiar monto", "cambiar frecuencia"}},
	{domain.IntentStartTanda, []string{"iniciar la tanda", "empezar la tanda", "comenzar la tanda", "arrancar"}},
	{domain.IntentCheckStatus, []string{"estado", "estatus", "como va", "quien falta", "mi posicion"}},
	{domain.IntentPayQuota, []string{"pagar", "pago", "cuota", "abonar", "deposito"}},
	{domain.IntentUploadProof, []string{"comprobante", "captura", "recibo", "voucher", "constancia"}},
	{domain.IntentVerifyPhone, []string{"verificar mi numero", "verificacion", "codigo"}},
	{domain.IntentGeneralHelp, []string{"ayuda", "help", "hola", "que puedes hacer", "como funciona", "info"}},
}

// responseRules recover the intent from the handler's confirmation phrasing
// when the user's own words matched nothing.
var responseRules = []keywordRule{
	{domain.IntentCreateGroup, []string{"tanda creada", "grupo creado", "tu tanda fue creada"}},
	{domain.IntentAddParticipant, []string{"participante agregado", "invitacion enviada", "se sumo a la tanda"}},
	{domain.IntentConfigureTanda, []string{"configuracion actualizada", "quedo configurada"}},
	{domain.IntentStartTanda, []string{"tanda iniciada", "dio inicio", "arranco la ronda"}},
	{domain.IntentCheckStatus, []string{"estado de tu tanda", "ronda actual", "asi va tu tanda"}},
	{domain.IntentPayQuota, []string{"pago registrado", "cuota registrada", "recibimos tu pago"}},
	{domain.IntentUploadProof, []string{"comprobante recibido", "comprobante registrado", "revisaremos tu comprobante"}},
	{domain.IntentVerifyPhone, []string{"numero verificado", "codigo enviado", "te enviamos un codigo"}},
	{domain.IntentGeneralHelp, []string{"puedo ayudarte", "estas son las opciones", "en que te ayudo"}},
}

// Classify resolves the intent of one exchange. First matching rule wins:
//
//  1. structured control tokens (machine-generated, never reinterpreted)
//  2. phone-verification markers
//  3. keyword rules over the user's text
//  4. keyword rules over the handler's response text
//  5. UNKNOWN
func Classify(userText, responseText string) domain.Intent {
	raw := strings.TrimSpace(userText)

	if intent, ok := classifyToken(raw); ok {
		return intent
	}

	norm := normalize(raw)
	if isVerificationMarker(raw, norm) {
		return domain.IntentVerifyPhone
	}

	if intent, ok := matchRules(userRules, norm); ok {
		return intent
	}
	if intent, ok := matchRules(responseRules, normalize(responseText)); ok {
		return intent
	}
	return domain.IntentUnknown
}

// ExtractVerificationCode pulls a delimiter-wrapped code out of the text,
// or the bare digits when the whole message is just a code.
func ExtractVerificationCode(text string) string {
	if m := codePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= 4 && len(trimmed) <= 8 && isDigits(trimmed) {
		return trimmed
	}
	return ""
}

// classifyToken handles structured control tokens produced by button taps
// and list selections. A recognized token family is final: a malformed
// action yields UNKNOWN rather than falling through to the text heuristics.
func classifyToken(raw string) (domain.Intent, bool) {
	if strings.HasPrefix(raw, "invite_accept:") || strings.HasPrefix(raw, "invite_decline:") {
		return domain.IntentCreateGroup, true
	}
	if strings.HasPrefix(raw, "tanda:") {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) == 3 {
			if intent, ok := tandaTokenActions[parts[1]]; ok {
				return intent, true
			}
		}
		return domain.IntentUnknown, true
	}
	return "", false
}

func isVerificationMarker(raw, norm string) bool {
	if codePattern.MatchString(raw) {
		return true
	}
	for _, kw := range []string{"codigo de verificacion", "otp", "verificar mi telefono"} {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

func matchRules(rules []keywordRule, norm string) (domain.Intent, bool) {
	if norm == "" {
		return "", false
	}
	for _, rule := range rules {
		for _, kw := range rule.words {
			if strings.Contains(norm, kw) {
				return rule.intent, true
			}
		}
	}
	return "", false
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// normalize lowercases and folds Spanish accents so keyword sets only need
// one spelling per word.
func normalize(s string) string {
	return accentReplacer.Replace(strings.ToLower(s))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
