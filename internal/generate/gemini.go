package generate

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/mind-engage/mindengage-testprep/internal/source"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiModel calls the Gemini API and asks for a JSON reply.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiModel{client: c, model: model}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, p source.Payload) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(p.Prompt)}
	for _, img := range p.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIME))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyOutput
	}
	return resp.Text(), nil
}
