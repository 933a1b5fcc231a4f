package tools

import (
	"context"
	"fmt"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// PayQuotaTool records a quota payment for the calling user.
type PayQuotaTool struct {
	payments domain.PaymentService
}

func NewPayQuotaTool(payments domain.PaymentService) *PayQuotaTool {
	return &PayQuotaTool{payments: payments}
}

func (t *PayQuotaTool) Name() string { return "pay_quota" }

// Call expects {"group_id": "..."}; the payer phone is ToolContext.UserID.
func (t *PayQuotaTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	groupID := getString(input, "group_id")
	if groupID == "" || tctx.UserID == "" {
		return nil, fmt.Errorf("pay_quota: group_id and UserID are required")
	}

	receiptID, err := t.payments.PayQuota(ctx, groupID, tctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("pay_quota: %w", err)
	}

	return map[string]any{
		"group_id":   groupID,
		"receipt_id": receiptID,
	}, nil
}

// SubmitProofTool registers a payment proof for review.
type SubmitProofTool struct {
	verification domain.VerificationService
}

func NewSubmitProofTool(verification domain.VerificationService) *SubmitProofTool {
	return &SubmitProofTool{verification: verification}
}

func (t *SubmitProofTool) Name() string { return "submit_proof" }

// Call expects {"reference": "..."} pointing at the uploaded media or text.
func (t *SubmitProofTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	reference := getString(input, "reference")
	if reference == "" || tctx.UserID == "" {
		return nil, fmt.Errorf("submit_proof: reference and UserID are required")
	}

	accepted, err := t.verification.SubmitProof(ctx, tctx.UserID, reference)
	if err != nil {
		return nil, fmt.Errorf("submit_proof: %w", err)
	}

	return map[string]any{
		"reference": reference,
		"accepted":  accepted,
	}, nil
}
