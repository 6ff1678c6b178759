package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient wraps the Gemini API for the two capabilities the radar needs:
// grounded free-text search and text embeddings.
type GeminiClient struct {
	client     *genai.Client
	GenModel   string
	EmbedModel string
}

// NewGeminiClient creates a client. A missing API key is not an error here;
// callers treat a nil client as "search capability not configured".
func NewGeminiClient(ctx context.Context, apiKey, genModel, embedModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if genModel == "" {
		genModel = "gemini-3-flash-preview"
	}
	if embedModel == "" {
		embedModel = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:     client,
		GenModel:   genModel,
		EmbedModel: embedModel,
	}, nil
}

// Search submits a natural-language instruction with live web-search grounding
// enabled and returns the model's free text.
func (c *GeminiClient) Search(ctx context.Context, instruction string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.GenModel,
		genai.Text(instruction),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	return resp.Text(), nil
}

// Embed generates an embedding for a single text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := c.client.Models.EmbedContent(ctx,
		c.EmbedModel,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "RETRIEVAL_DOCUMENT",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return result.Embeddings[0].Values, nil
}

// EmbedQuery embeds a search query. Queries and documents use different task
// types so the vectors land in the same space on the retrieval side.
func (c *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := c.client.Models.EmbedContent(ctx,
		c.EmbedModel,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "RETRIEVAL_QUERY",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return result.Embeddings[0].Values, nil
}
