package handlers

import (
	"context"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// historyWindow bounds how much of the event log travels to the responder.
const historyWindow = 20

// GeneralHandler answers everything that is not a concrete business action:
// greetings, help requests and free-form questions. It is the only handler
// that talks to the LLM responder.
type GeneralHandler struct {
	responder domain.Responder
}

func NewGeneralHandler(responder domain.Responder) *GeneralHandler {
	return &GeneralHandler{responder: responder}
}

func (h *GeneralHandler) Name() string { return "general_handler" }

func (h *GeneralHandler) Run(ctx context.Context, in Input) (Output, error) {
	history := in.Session.Events
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	reply, err := h.responder.GenerateReply(ctx, in.Prompt, domain.ConversationContext{
		SessionID: in.Session.ID,
		UserID:    in.UserID,
		History:   history,
	})
	if err != nil {
		return Output{}, err
	}

	return Output{Reply: reply}, nil
}
