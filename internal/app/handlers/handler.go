package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/marcovillca/tanda-agent/internal/app/tools"
	"github.com/marcovillca/tanda-agent/internal/domain"
)

// Input is what the router hands to the selected handler for one turn.
type Input struct {
	Prompt  string // composite prompt: original text plus bracketed context
	Intent  domain.Intent
	Request domain.RouteRequest
	Session *domain.Session
	UserID  domain.UserID
}

// Output is the handler's reply plus the state delta the router will append
// as an event. Scratch-prefixed delta keys live only for this exchange.
type Output struct {
	Reply      string
	StateDelta map[string]any
}

// Handler executes one category of business action. The set of handlers is
// closed; the router picks exactly one per turn.
type Handler interface {
	Name() string
	Run(ctx context.Context, in Input) (Output, error)
}

func (in Input) toolContext() tools.ToolContext {
	return tools.ToolContext{
		UserID:    string(in.UserID),
		SessionID: string(in.Session.ID),
	}
}

// groupID resolves which tanda the turn is about: an explicit control token
// wins, then the chat group, then the session's active tanda.
func (in Input) groupID() string {
	raw := strings.TrimSpace(in.Request.OriginalText)
	if strings.HasPrefix(raw, "tanda:") {
		if parts := strings.SplitN(raw, ":", 3); len(parts) == 3 && parts[2] != "" {
			return parts[2]
		}
	}
	if in.Request.GroupID != "" {
		return in.Request.GroupID
	}
	if in.Session != nil {
		if id, ok := in.Session.State["active_tanda_id"].(string); ok {
			return id
		}
	}
	return ""
}

// freeText returns the message text for extraction, or "" when the turn is
// a control token. Token IDs carry digits that must never be read as
// amounts or phone numbers.
func (in Input) freeText() string {
	raw := strings.TrimSpace(in.Request.OriginalText)
	for _, prefix := range []string{"tanda:", "invite_accept:", "invite_decline:"} {
		if strings.HasPrefix(raw, prefix) {
			return ""
		}
	}
	return raw
}

// --- text extraction helpers --- //

// extractPhone finds the first run of 8+ digits that is not the sender's
// own number.
func extractPhone(text string, self domain.UserID) string {
	for _, run := range digitRuns(text) {
		if len(run) >= 8 && run != string(self) {
			return run
		}
	}
	return ""
}

// extractAmount finds the first number in the text usable as a quota.
func extractAmount(text string) float64 {
	for _, run := range digitRuns(text) {
		if len(run) <= 6 {
			n, err := strconv.ParseFloat(run, 64)
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// extractFrequency recognizes the supported payout cadences.
func extractFrequency(text string) string {
	lower := strings.ToLower(text)
	for _, f := range []string{"semanal", "quincenal", "mensual"} {
		if strings.Contains(lower, f) {
			return f
		}
	}
	return ""
}

func digitRuns(text string) []string {
	var runs []string
	var cur strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		runs = append(runs, cur.String())
	}
	return runs
}
