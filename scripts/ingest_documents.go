package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/config"
	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/services"
)

const (
	defaultReferenceDir = "./reference_docs"
	chunkSize           = 1000
	chunkOverlap        = 200
)

// referenceDirs maps sub-directories of the reference folder to the document
// type stored with each chunk.
var referenceDirs = map[string]string{
	"job_postings":  services.DocTypeJobPosting,
	"resume_guides": services.DocTypeResumeGuide,
}

type referenceDoc struct {
	Path    string
	DocType string
	Name    string
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("🚀 Starting reference document ingestion...")

	root := defaultReferenceDir
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	ctx := context.Background()

	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Gemini", zap.Error(err))
	}

	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
	}

	if err := qdrantService.InitCollection(ctx); err != nil {
		log.Fatal("❌ Failed to initialize collection", zap.Error(err))
	}

	documents, err := discoverDocuments(root)
	if err != nil {
		log.Fatal("❌ Failed to list reference documents", zap.String("path", root), zap.Error(err))
	}
	if len(documents) == 0 {
		log.Fatal("❌ No reference documents found", zap.String("path", root))
	}

	extractor := services.NewDocumentExtractor(0)
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, doc := range documents {
		docLog := log.With(zap.String("doc", doc.Name), zap.String("type", doc.DocType))
		docLog.Info("📄 Processing", zap.String("path", doc.Path))

		parsed, err := extractor.ExtractFile(doc.Path)
		if err != nil {
			docLog.Error("❌ Failed to extract text", zap.Error(err))
			failCount++
			continue
		}

		chunks := chunker.ChunkText(parsed.NormalizedText, chunkSize, chunkOverlap)
		docLog.Info("✂️ Chunked text", zap.Int("words", parsed.WordCount), zap.Int("chunks", len(chunks)))

		docID := doc.DocType + "/" + doc.Name

		// Re-ingesting a document replaces its previous chunks.
		if err := qdrantService.DeleteDocument(ctx, docID); err != nil {
			docLog.Warn("⚠️ Failed to remove previous chunks", zap.Error(err))
		}

		stored := 0
		for i, text := range chunks {
			embedding, err := geminiService.GenerateEmbedding(ctx, text)
			if err != nil {
				docLog.Error("❌ Failed to generate embedding", zap.Int("chunk", i+1), zap.Error(err))
				continue
			}

			chunk := services.ReferenceChunk{
				DocID:   docID,
				DocType: doc.DocType,
				Name:    doc.Name,
				Index:   i,
				Text:    text,
			}
			if err := qdrantService.UpsertChunk(ctx, chunk, embedding); err != nil {
				docLog.Error("❌ Failed to store chunk", zap.Int("chunk", i+1), zap.Error(err))
				continue
			}
			stored++

			if stored%5 == 0 || i == len(chunks)-1 {
				docLog.Info("📊 Progress", zap.Int("stored", stored), zap.Int("total", len(chunks)))
			}
		}

		if stored == 0 {
			failCount++
			continue
		}
		docLog.Info("✅ Successfully ingested", zap.Int("chunks", stored))
		successCount++
	}

	log.Info("📊 Ingestion summary", zap.Int("successful", successCount), zap.Int("failed", failCount))

	if failCount > 0 {
		log.Warn("⚠️ Some documents failed to ingest. Please check the logs above.")
		os.Exit(1)
	}

	log.Info("✅ All documents ingested successfully!")
}

// discoverDocuments lists supported files in the known sub-directories of root.
func discoverDocuments(root string) ([]referenceDoc, error) {
	var docs []referenceDoc

	for dir, docType := range referenceDirs {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, err := services.FileTypeFromName(entry.Name()); err != nil {
				continue
			}
			docs = append(docs, referenceDoc{
				Path:    filepath.Join(root, dir, entry.Name()),
				DocType: docType,
				Name:    strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			})
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs, nil
}
