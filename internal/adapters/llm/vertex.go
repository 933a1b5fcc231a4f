package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates a Responder backed by Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, projectID, location, modelName string) (*VertexClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("projectID and location are required for the Vertex responder")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.Responder using Vertex AI. The event log
// of the session becomes the conversation history: user events map to the
// user role, handler events to the model role.
func (v *VertexClient) GenerateReply(
	ctx context.Context,
	prompt string,
	convCtx domain.ConversationContext,
) (string, error) {
	var contents []*genai.Content
	for _, ev := range convCtx.History {
		if ev.Payload == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(ev.Payload, roleForAuthor(ev.Author)))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(1024)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}
	return text, nil
}

// roleForAuthor maps event authors onto the two conversation roles the
// model understands: user events speak as the user, everything else as
// the model.
func roleForAuthor(author string) genai.Role {
	if author == domain.AuthorUser {
		return genai.Role(genai.RoleUser)
	}
	return genai.Role(genai.RoleModel)
}
