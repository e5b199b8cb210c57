package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/advocate/internal/domain"
)

type VertexGenerator struct {
	client    *genai.Client
	modelName string
}

// NewVertexGenerator creates a MessageGenerator based on Vertex AI (Gemini).
func NewVertexGenerator(ctx context.Context, projectID, location, modelName string) (*VertexGenerator, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("GCP project and location must be set for Vertex AI")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexGenerator{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate implements domain.MessageGenerator using Vertex AI.
func (v *VertexGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	p := BuildPrompt(req)

	temp := float32(0.6)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   1024,
	}

	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}
	return text, nil
}
