package handlers

import (
	"context"
	"fmt"

	"github.com/marcovillca/tanda-agent/internal/app/tools"
	"github.com/marcovillca/tanda-agent/internal/domain"
)

// PaymentHandler records quota payments against the user's active tanda.
type PaymentHandler struct {
	pay tools.Tool
}

func NewPaymentHandler(payments domain.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		pay: tools.NewPayQuotaTool(payments),
	}
}

func (h *PaymentHandler) Name() string { return "payment_handler" }

func (h *PaymentHandler) Run(ctx context.Context, in Input) (Output, error) {
	groupID := in.groupID()
	if groupID == "" {
		return Output{Reply: "No encuentro una tanda activa para registrar tu pago. Indícame el código de la tanda."}, nil
	}

	out, err := h.pay.Call(ctx, in.toolContext(), map[string]any{"group_id": groupID})
	if err != nil {
		return Output{}, err
	}

	receiptID, _ := out["receipt_id"].(string)
	return Output{
		Reply: fmt.Sprintf("Pago registrado ✅. Tu recibo es %s. Recuerda subir el comprobante si pagaste por transferencia.", receiptID),
		StateDelta: map[string]any{
			"last_receipt_id":  receiptID,
			"temp:last_action": "pay_quota",
		},
	}, nil
}
