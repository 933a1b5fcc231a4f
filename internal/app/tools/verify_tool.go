package tools

import (
	"context"
	"fmt"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// VerifyPhoneTool is the only tool the router may call at the top level:
// every other business action must flow through its specialized handler.
type VerifyPhoneTool struct {
	verification domain.VerificationService
}

func NewVerifyPhoneTool(verification domain.VerificationService) *VerifyPhoneTool {
	return &VerifyPhoneTool{verification: verification}
}

func (t *VerifyPhoneTool) Name() string { return "verify_phone" }

// Call expects {"code": "..."}. An empty code triggers sending a fresh one;
// otherwise the code is checked. The phone is ToolContext.UserID.
//
// Returns {"code_sent": true} or {"verified": bool}.
func (t *VerifyPhoneTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("verify_phone: missing UserID in ToolContext")
	}

	code := getString(input, "code")
	if code == "" {
		if err := t.verification.SendCode(ctx, tctx.UserID); err != nil {
			return nil, fmt.Errorf("verify_phone: send code: %w", err)
		}
		return map[string]any{"code_sent": true}, nil
	}

	verified, err := t.verification.VerifyCode(ctx, tctx.UserID, code)
	if err != nil {
		return nil, fmt.Errorf("verify_phone: verify code: %w", err)
	}
	return map[string]any{"verified": verified}, nil
}
