package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
)

// ContextRetriever finds reference material for a job-match prompt.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, jobDescription string) (string, error)
}

type referenceRetriever struct {
	embedder Embedder
	store    QdrantService
	prompts  *PromptBuilder
	docTypes []string
	limit    int
	logger   *zap.Logger
}

func NewReferenceRetriever(embedder Embedder, store QdrantService, limit int, log *zap.Logger) ContextRetriever {
	if limit <= 0 {
		limit = 3
	}
	return &referenceRetriever{
		embedder: embedder,
		store:    store,
		prompts:  NewPromptBuilder(),
		docTypes: []string{DocTypeJobPosting, DocTypeResumeGuide},
		limit:    limit,
		logger:   logger.OrNop(log),
	}
}

// RetrieveContext embeds the job description and collects the closest chunks
// of each reference type. A failing doc type is skipped.
func (r *referenceRetriever) RetrieveContext(ctx context.Context, jobDescription string) (string, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, r.prompts.BuildRetrievalQuery(jobDescription))
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	var all []SearchResult
	for _, docType := range r.docTypes {
		results, err := r.store.SearchSimilar(ctx, embedding, docType, r.limit)
		if err != nil {
			r.logger.Warn("⚠️ reference search failed", zap.String("doc_type", docType), zap.Error(err))
			continue
		}
		all = append(all, results...)
	}

	return FormatRAGContext(all), nil
}
