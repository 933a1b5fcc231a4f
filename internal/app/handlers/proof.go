package handlers

import (
	"context"
	"strings"

	"github.com/marcovillca/tanda-agent/internal/app/tools"
	"github.com/marcovillca/tanda-agent/internal/domain"
)

// ProofHandler registers payment proofs (screenshots, receipt references)
// for asynchronous review by the verification service.
type ProofHandler struct {
	submit tools.Tool
}

func NewProofHandler(verification domain.VerificationService) *ProofHandler {
	return &ProofHandler{
		submit: tools.NewSubmitProofTool(verification),
	}
}

func (h *ProofHandler) Name() string { return "proof_handler" }

func (h *ProofHandler) Run(ctx context.Context, in Input) (Output, error) {
	reference := strings.TrimSpace(in.Request.OriginalText)
	if reference == "" {
		return Output{Reply: "Envíame la captura o el número de referencia de tu comprobante."}, nil
	}

	out, err := h.submit.Call(ctx, in.toolContext(), map[string]any{"reference": reference})
	if err != nil {
		return Output{}, err
	}

	accepted, _ := out["accepted"].(bool)
	if !accepted {
		return Output{
			Reply: "Comprobante recibido. Revisaremos tu comprobante y te avisamos en cuanto quede validado.",
			StateDelta: map[string]any{
				"last_proof_status": "pending",
				"temp:last_action":  "submit_proof",
			},
		}, nil
	}

	return Output{
		Reply: "Comprobante registrado ✅. Tu pago quedó validado.",
		StateDelta: map[string]any{
			"last_proof_status": "accepted",
			"temp:last_action":  "submit_proof",
		},
	}, nil
}
