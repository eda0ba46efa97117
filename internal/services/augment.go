package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/models"
)

type AugmentKind string

const (
	KindAnalysis AugmentKind = "analysis"
	KindJobMatch AugmentKind = "job_match"
)

// AugmenterConfig controls pacing and retries of AI requests.
type AugmenterConfig struct {
	MinInterval    time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// Augmenter asks a text generator for a structured opinion and maps it onto
// the result types. Every error means "use the heuristic result".
type Augmenter interface {
	Augment(ctx context.Context, kind AugmentKind, text, jobText string) (map[string]any, error)
	AugmentAnalysis(ctx context.Context, text string, heuristic *models.AnalysisResult) (*models.AnalysisResult, error)
	AugmentMatch(ctx context.Context, resumeText, jobText string, heuristic *models.JobMatchResult) (*models.JobMatchResult, error)
}

type augmenter struct {
	generator      TextGenerator
	retriever      ContextRetriever
	prompts        *PromptBuilder
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// sleep waits between retries; tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewAugmenter builds an Augmenter. retriever may be nil. The limiter is
// shared by every request made through the returned value.
func NewAugmenter(generator TextGenerator, retriever ContextRetriever, cfg AugmenterConfig, log *zap.Logger) Augmenter {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}

	return &augmenter{
		generator:      generator,
		retriever:      retriever,
		prompts:        NewPromptBuilder(),
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		logger:         logger.OrNop(log),
	}
}

// Augment returns the validated JSON object produced for kind.
func (a *augmenter) Augment(ctx context.Context, kind AugmentKind, text, jobText string) (map[string]any, error) {
	if a.generator == nil {
		return nil, fmt.Errorf("no text generator configured: %w", ErrAIUnavailable)
	}

	var (
		prompt string
		schema *gojsonschema.Schema
	)
	switch kind {
	case KindAnalysis:
		prompt = a.prompts.BuildAnalysisPrompt(text)
		schema = analysisSchema
	case KindJobMatch:
		if strings.TrimSpace(jobText) == "" {
			return nil, fmt.Errorf("job description is required for %s", kind)
		}
		prompt = a.prompts.BuildJobMatchPrompt(text, jobText, a.referenceContext(ctx, jobText))
		schema = matchSchema
	default:
		return nil, fmt.Errorf("unknown augmentation kind %q", kind)
	}

	start := time.Now()
	response, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("⚠️ ai augmentation failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	payload, err := parseAIResponse(response, schema)
	if err != nil {
		a.logger.Warn("⚠️ ai response rejected",
			zap.String("kind", string(kind)),
			zap.String("preview", logger.TruncateForLog(response, 200)),
			zap.Error(err),
		)
		return nil, err
	}

	a.logger.Info("🤖 ai augmentation completed",
		zap.String("kind", string(kind)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return payload, nil
}

func (a *augmenter) AugmentAnalysis(ctx context.Context, text string, heuristic *models.AnalysisResult) (*models.AnalysisResult, error) {
	payload, err := a.Augment(ctx, KindAnalysis, text, "")
	if err != nil {
		return nil, err
	}
	return MergeAnalysis(heuristic, payload)
}

func (a *augmenter) AugmentMatch(ctx context.Context, resumeText, jobText string, heuristic *models.JobMatchResult) (*models.JobMatchResult, error) {
	payload, err := a.Augment(ctx, KindJobMatch, resumeText, jobText)
	if err != nil {
		return nil, err
	}
	return MatchFromAI(heuristic, payload)
}

func (a *augmenter) referenceContext(ctx context.Context, jobText string) string {
	if a.retriever == nil {
		return ""
	}
	reference, err := a.retriever.RetrieveContext(ctx, jobText)
	if err != nil {
		a.logger.Warn("⚠️ reference retrieval failed", zap.Error(err))
		return ""
	}
	return reference
}

// generate calls the generator at most maxRetries times, waiting on the
// limiter before every call and backing off initial*2^n between failures.
// Quota errors are returned immediately.
func (a *augmenter) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.initialBackoff * time.Duration(1<<(attempt-1))
			a.logger.Warn("⚠️ retrying ai request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, delay); err != nil {
				return "", fmt.Errorf("%w: %w", ErrAIUnavailable, err)
			}
		}

		if err := a.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ErrAIUnavailable, err)
		}

		text, err := a.generator.GenerateText(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrAIQuotaExceeded) {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrAIUnavailable, ctxErr)
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w: failed after %d attempts: %w", ErrAIUnavailable, a.maxRetries, lastErr)
}

// extractJSON returns the text between the first '{' and the last '}'.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func parseAIResponse(response string, schema *gojsonschema.Schema) (map[string]any, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrAIMalformedResponse)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAIMalformedResponse, err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAIMalformedResponse, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			problems = append(problems, field+": "+desc.Description())
		}
		return nil, fmt.Errorf("%w: %s", ErrAIMalformedResponse, strings.Join(problems, "; "))
	}

	return payload, nil
}

const analysisSchemaJSON = `{
  "type": "object",
  "required": ["categories"],
  "properties": {
    "categories": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["score"],
        "properties": {
          "score": {"type": ["number", "string"]},
          "issues": {"type": "array", "items": {"type": "string"}},
          "recommendations": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "recommendations": {"type": "array", "items": {"type": "string"}}
  }
}`

const matchSchemaJSON = `{
  "type": "object",
  "required": ["match_score"],
  "properties": {
    "match_score": {"type": ["number", "string"]},
    "keyword_matches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["keyword"],
        "properties": {
          "keyword": {"type": "string"},
          "found": {"type": ["boolean", "string"]},
          "importance": {"type": "string"}
        }
      }
    },
    "skill_gaps": {"type": "array", "items": {"type": "string"}},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "compatibility_areas": {"type": "object"}
  }
}`

var (
	analysisSchema = mustSchema(analysisSchemaJSON)
	matchSchema    = mustSchema(matchSchemaJSON)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid ai response schema: %v", err))
	}
	return schema
}

// decodeWeak decodes a loosely typed JSON object ("85" is accepted for 85).
func decodeWeak(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

type aiCategory struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

type aiAnalysis struct {
	Categories      map[string]aiCategory `json:"categories"`
	Recommendations []string              `json:"recommendations"`
}

// MergeAnalysis overlays AI category scores on a heuristic result. Unknown
// categories are dropped and missing ones keep the heuristic value; the
// overall score and derived lists are recomputed from the weight table.
func MergeAnalysis(heuristic *models.AnalysisResult, payload map[string]any) (*models.AnalysisResult, error) {
	var parsed aiAnalysis
	if err := decodeWeak(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAIMalformedResponse, err)
	}

	categories := make(map[models.Category]*models.CategoryScore, len(models.Categories))
	if heuristic != nil {
		for _, name := range models.Categories {
			if cs := heuristic.Categories[name]; cs != nil {
				categories[name] = &models.CategoryScore{
					Name:            name,
					Score:           cs.Score,
					Issues:          append([]string{}, cs.Issues...),
					Recommendations: append([]string{}, cs.Recommendations...),
				}
			}
		}
	}

	recognized := 0
	for key, ai := range parsed.Categories {
		name := models.Category(strings.ToLower(strings.TrimSpace(key)))
		if _, known := CategoryWeights[name]; !known {
			continue
		}
		recognized++

		cs := categories[name]
		if cs == nil {
			cs = &models.CategoryScore{Name: name, Issues: []string{}, Recommendations: []string{}}
			categories[name] = cs
		}
		cs.Score = clampScore(int(math.Round(ai.Score)))
		if ai.Issues != nil {
			cs.Issues = nonEmptyStrings(ai.Issues, 0)
		}
		if ai.Recommendations != nil {
			cs.Recommendations = nonEmptyStrings(ai.Recommendations, 0)
		}
	}
	if recognized == 0 {
		return nil, fmt.Errorf("%w: no known categories in response", ErrAIMalformedResponse)
	}

	result := BuildAnalysisResult(categories, models.SourceAI)
	seen := make(map[string]struct{}, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		seen[rec] = struct{}{}
	}
	for _, rec := range nonEmptyStrings(parsed.Recommendations, 0) {
		if _, dup := seen[rec]; dup {
			continue
		}
		seen[rec] = struct{}{}
		result.Recommendations = append(result.Recommendations, rec)
	}

	return result, nil
}

type aiKeyword struct {
	Keyword    string `json:"keyword"`
	Found      bool   `json:"found"`
	Importance string `json:"importance"`
}

type aiCompatibility struct {
	TechnicalSkills   *float64 `json:"technical_skills"`
	ExperienceLevel   *float64 `json:"experience_level"`
	IndustryKnowledge *float64 `json:"industry_knowledge"`
	SoftSkills        *float64 `json:"soft_skills"`
}

type aiMatch struct {
	MatchScore         float64          `json:"match_score"`
	KeywordMatches     []aiKeyword      `json:"keyword_matches"`
	SkillGaps          []string         `json:"skill_gaps"`
	Strengths          []string         `json:"strengths"`
	Recommendations    []string         `json:"recommendations"`
	CompatibilityAreas *aiCompatibility `json:"compatibility_areas"`
}

// MatchFromAI builds a job match from an AI payload, keeping heuristic values
// for anything the payload leaves out. A missing or zero match_score is
// treated as malformed.
func MatchFromAI(heuristic *models.JobMatchResult, payload map[string]any) (*models.JobMatchResult, error) {
	var parsed aiMatch
	if err := decodeWeak(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAIMalformedResponse, err)
	}

	score := clampScore(int(math.Round(parsed.MatchScore)))
	if score <= 0 {
		return nil, fmt.Errorf("%w: match_score missing or zero", ErrAIMalformedResponse)
	}

	result := *emptyMatchResult()
	if heuristic != nil {
		result = *heuristic
	}
	result.MatchScore = score
	result.Source = models.SourceAI

	if len(parsed.KeywordMatches) > 0 {
		matches := make([]models.KeywordMatch, 0, len(parsed.KeywordMatches))
		for _, kw := range parsed.KeywordMatches {
			keyword := strings.ToLower(strings.TrimSpace(kw.Keyword))
			if keyword == "" {
				continue
			}
			matches = append(matches, models.KeywordMatch{
				Keyword:    keyword,
				Found:      kw.Found,
				Importance: normalizeImportance(kw.Importance),
			})
		}
		if len(matches) > 0 {
			result.KeywordMatches = matches
		}
	}

	if result.MatchScore == 100 {
		for _, kw := range result.KeywordMatches {
			if !kw.Found {
				result.MatchScore = 99
				break
			}
		}
	}

	if parsed.SkillGaps != nil {
		result.SkillGaps = nonEmptyStrings(parsed.SkillGaps, maxSkillGaps)
	}
	if parsed.Strengths != nil {
		result.Strengths = nonEmptyStrings(parsed.Strengths, maxStrengths)
	}
	if parsed.Recommendations != nil {
		result.Recommendations = nonEmptyStrings(parsed.Recommendations, maxRecommendations)
	}

	if c := parsed.CompatibilityAreas; c != nil {
		overrideScore(&result.CompatibilityAreas.TechnicalSkills, c.TechnicalSkills)
		overrideScore(&result.CompatibilityAreas.ExperienceLevel, c.ExperienceLevel)
		overrideScore(&result.CompatibilityAreas.IndustryKnowledge, c.IndustryKnowledge)
		overrideScore(&result.CompatibilityAreas.SoftSkills, c.SoftSkills)
	}

	return &result, nil
}

func normalizeImportance(s string) models.Importance {
	switch imp := models.Importance(strings.ToLower(strings.TrimSpace(s))); imp {
	case models.ImportanceHigh, models.ImportanceMedium:
		return imp
	default:
		return models.ImportanceLow
	}
}

func overrideScore(dst *int, v *float64) {
	if v != nil {
		*dst = clampScore(int(math.Round(*v)))
	}
}

// nonEmptyStrings trims values, drops blanks and duplicates, and keeps at most
// limit entries when limit > 0.
func nonEmptyStrings(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
