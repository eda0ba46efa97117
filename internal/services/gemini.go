package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-ats/internal/logger"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiEmbedModel = "text-embedding-004"

	// maxEmbeddingChars keeps embedding requests under the model's token limit.
	maxEmbeddingChars = 40000
)

// TextGenerator produces free text for a prompt. Implementations do not retry;
// the augmenter owns pacing and retries.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiService interface {
	TextGenerator
	Embedder
}

type geminiService struct {
	client      *genai.Client
	modelName   string
	embedModel  string
	temperature float32
	logger      *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model, embedModel string, log *zap.Logger) (GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is empty: %w", ErrAIUnavailable)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if embedModel == "" {
		embedModel = defaultGeminiEmbedModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:      client,
		modelName:   model,
		embedModel:  embedModel,
		temperature: 0.3,
		logger:      logger.WithAI(log, "gemini", model),
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(embeddingInput(text)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", classifyGeminiError(err))
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result: %w", ErrAIUnavailable)
	}

	return result.Embeddings[0].Values, nil
}

// embeddingInput clips text to maxEmbeddingChars runes.
func embeddingInput(text string) string {
	return clipText(text, maxEmbeddingChars)
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	g.logger.Debug("sending prompt", zap.Int("prompt_chars", len(prompt)))

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		err = classifyGeminiError(err)
		g.logger.Warn("gemini request failed", zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		g.logger.Warn("gemini returned no text")
		return "", fmt.Errorf("no text content in response: %w", ErrAIUnavailable)
	}

	g.logger.Debug("gemini response received",
		zap.Int("response_chars", len(text)),
		zap.String("preview", logger.TruncateForLog(text, 200)),
	)

	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// classifyGeminiError maps client failures onto the AI error taxonomy.
// Auth and quota failures are not worth retrying.
func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAIQuotaExceeded) || errors.Is(err, ErrAIUnavailable) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized,
			apiErr.Code == http.StatusForbidden,
			apiErr.Code == http.StatusTooManyRequests,
			strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED"),
			strings.EqualFold(apiErr.Status, "PERMISSION_DENIED"),
			strings.EqualFold(apiErr.Status, "UNAUTHENTICATED"):
			return fmt.Errorf("%w: %w", ErrAIQuotaExceeded, err)
		}
	}

	return fmt.Errorf("%w: %w", ErrAIUnavailable, err)
}
