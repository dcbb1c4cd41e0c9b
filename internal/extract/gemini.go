// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider against the Gemini API: file upload
// via the Files API, JSON-mode generation, and file deletion.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider constructs a provider for the given model. The same
// type serves both extraction (pro model, temperature 0.2) and framing
// translation (flash model, temperature 0.3).
func NewGeminiProvider(ctx context.Context, apiKey, model string, temperature float32) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Upload transfers a local PDF to the Gemini Files API.
func (g *GeminiProvider) Upload(ctx context.Context, path string) (Upload, error) {
	f, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType: "application/pdf",
	})
	if err != nil {
		return Upload{}, err
	}
	return Upload{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType}, nil
}

// Generate invokes the model with the uploaded document and prompt,
// requesting a JSON response.
func (g *GeminiProvider) Generate(ctx context.Context, doc Upload, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(doc.URI, doc.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini API returned empty response")
	}
	return text, nil
}

// GenerateText invokes the model with a plain text prompt, without a
// document or JSON response constraint. Used by the framing stage.
func (g *GeminiProvider) GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if maxOutputTokens > 0 {
		cfg.MaxOutputTokens = maxOutputTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini API returned empty response")
	}
	return text, nil
}

// Delete releases an uploaded document from the Files API.
func (g *GeminiProvider) Delete(ctx context.Context, doc Upload) error {
	_, err := g.client.Files.Delete(ctx, doc.Name, nil)
	return err
}
