package llm

import (
	"context"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// MockLLM is a deterministic Responder for local mode and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(ctx context.Context, prompt string, convCtx domain.ConversationContext) (string, error) {
	return "¡Hola! Puedo ayudarte a crear una tanda, agregar participantes, pagar tu cuota o revisar el estado. ¿Qué te gustaría hacer?", nil
}
