package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
	"alfredoptarigan/resume-ats/internal/services"
)

const sampleResume = `John Smith
john.smith@example.com | (555) 987-6543 | linkedin.com/in/johnsmith

SUMMARY
Backend engineer with 6 years of experience building Go services.

EXPERIENCE
Software Engineer, Widget Co, 2019 - 2024
• Built REST APIs in Go backed by PostgreSQL and Redis.
• Deployed services with Docker and Kubernetes on AWS.
• Reduced p99 latency by 35% for 2 million daily requests.

EDUCATION
B.S. Computer Science, State University, 2018

SKILLS
Go, PostgreSQL, Redis, Docker, Kubernetes, AWS, Git
`

const sampleJob = `We are hiring a Backend Engineer to build Go services.
Requirements: 5+ years of experience with Go, PostgreSQL and Docker.
Experience with Kubernetes and AWS is required. Kafka is a plus.
You will design REST APIs and collaborate with product teams.`

type fakeAnalyses struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.Analysis
	err     error
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{records: make(map[uuid.UUID]*models.Analysis)}
}

func (f *fakeAnalyses) Create(a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.records[a.ID] = a
	return nil
}

func (f *fakeAnalyses) FindByID(id uuid.UUID) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return a, nil
}

func (f *fakeAnalyses) UpdateStatus(uuid.UUID, models.AnalysisStatus) error {
	return nil
}

func (f *fakeAnalyses) UpdateResult(uuid.UUID, *repositories.AnalysisUpdateData) error {
	return nil
}

func (f *fakeAnalyses) UpdateError(uuid.UUID, string) error {
	return nil
}

func (f *fakeAnalyses) FindPendingJobs(int) ([]models.Analysis, error) {
	return nil, nil
}

func (f *fakeAnalyses) FindRecent(limit int) ([]models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Analysis{}
	for _, a := range f.records {
		if len(out) == limit {
			break
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAnalyses) Count(since time.Time) (int64, error) {
	if since.IsZero() {
		return 40, f.err
	}
	return 12, f.err
}

func (f *fakeAnalyses) AverageScore(time.Time) (float64, error) {
	return 71.5, f.err
}

func (f *fakeAnalyses) ScoreTrend(time.Time) ([]models.DailyScore, error) {
	return []models.DailyScore{{Date: "2026-10-01", AverageScore: 70, AnalysisCount: 3}}, f.err
}

func (f *fakeAnalyses) CategoryAverages(time.Time) (map[models.Category]float64, error) {
	return map[models.Category]float64{models.CategoryFormat: 82}, f.err
}

func (f *fakeAnalyses) FileTypeStats(time.Time) ([]models.FileTypeStat, error) {
	return []models.FileTypeStat{{FileType: "pdf", Count: 12, AverageScore: 71.5}}, f.err
}

type fakeDocuments struct {
	docs map[uuid.UUID]*models.Document
	err  error
}

func (f *fakeDocuments) Create(d *models.Document) error {
	f.docs[d.ID] = d
	return nil
}

func (f *fakeDocuments) FindByID(id uuid.UUID) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return d, nil
}

type fakeFeedback struct {
	saved []*models.Feedback
}

func (f *fakeFeedback) Create(fb *models.Feedback) error {
	fb.ID = uuid.New()
	f.saved = append(f.saved, fb)
	return nil
}

func (f *fakeFeedback) AverageRating(time.Time) (float64, error) {
	return 4.5, nil
}

func (f *fakeFeedback) LogUsage(string, string, string) error {
	return nil
}

func (f *fakeFeedback) FeatureUsage(time.Time) ([]models.FeatureUsage, error) {
	return []models.FeatureUsage{{Feature: "analyze", Count: 9}}, nil
}

type fakeWorker struct {
	enqueued []uuid.UUID
}

func (f *fakeWorker) Start(context.Context) {}

func (f *fakeWorker) Stop() {}

func (f *fakeWorker) EnqueueJob(id uuid.UUID) {
	f.enqueued = append(f.enqueued, id)
}

type testEnv struct {
	app      *fiber.App
	analyses *fakeAnalyses
	docs     *fakeDocuments
	feedback *fakeFeedback
	worker   *fakeWorker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		analyses: newFakeAnalyses(),
		docs:     &fakeDocuments{docs: make(map[uuid.UUID]*models.Document)},
		feedback: &fakeFeedback{},
		worker:   &fakeWorker{},
	}

	storage := services.NewStorageService(t.TempDir(), 1<<20)
	analyzer := services.NewAnalyzerService(services.NewDocumentExtractor(1<<20), nil, nil, nil, env.docs, nil, nil)

	env.app = fiber.New()
	Register(env.app.Group("/api/v1"), Handlers{
		Upload:   NewUploadHandler(env.docs, storage, nil),
		Evaluate: NewEvaluationHandler(env.analyses, env.docs, env.worker),
		Result:   NewResultHandler(env.analyses),
		Analyze:  NewAnalyzeHandler(analyzer, storage, nil),
		Stats:    NewStatsHandler(env.analyses, env.feedback, nil),
	})
	return env
}

func multipartRequest(t *testing.T, path, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := w.CreateFormFile(resumeField, fileName)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request, out any) int {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]any
	status := do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), &body)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["ai_enabled"])
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)

	var body models.AnalyzeResponse
	req := multipartRequest(t, "/api/v1/analyze", "john.txt", sampleResume, map[string]string{
		"job_description": sampleJob,
		"use_ai":          "false",
	})
	status := do(t, env.app, req, &body)

	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, body.Report)
	assert.Empty(t, body.ID)
	assert.Equal(t, models.FileTypeTXT, body.Report.Document.FileType)
	assert.Equal(t, []string{"john.smith@example.com"}, body.Report.Contact.Emails)
	assert.Len(t, body.Report.Analysis.Categories, len(models.Categories))
	require.NotNil(t, body.Report.JobMatch)
	assert.Greater(t, body.Report.JobMatch.MatchScore, 0)
}

func TestAnalyze_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		fileName string
		content  string
		want     int
	}{
		{name: "missing file", want: fiber.StatusBadRequest},
		{name: "unsupported format", fileName: "photo.png", content: "png", want: fiber.StatusUnsupportedMediaType},
		{name: "too large", fileName: "big.txt", content: strings.Repeat("a", 1<<20+1), want: fiber.StatusRequestEntityTooLarge},
		{name: "empty text", fileName: "blank.txt", content: "  \n\n  ", want: fiber.StatusUnprocessableEntity},
		{name: "corrupt pdf", fileName: "broken.pdf", content: "not a pdf", want: fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			status := do(t, env.app, multipartRequest(t, "/api/v1/analyze", tt.fileName, tt.content, nil), &body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMatch(t *testing.T) {
	env := newTestEnv(t)

	var result models.JobMatchResult
	status := do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/match", fiber.Map{
		"resume_text":     sampleResume,
		"job_description": sampleJob,
	}), &result)

	require.Equal(t, fiber.StatusOK, status)
	assert.Greater(t, result.MatchScore, 0)
	assert.Equal(t, models.SourceHeuristic, result.Source)
	assert.NotEmpty(t, result.KeywordMatches)
}

func TestMatch_Validation(t *testing.T) {
	env := newTestEnv(t)

	for name, payload := range map[string]fiber.Map{
		"no resume":       {"job_description": sampleJob},
		"no job":          {"resume_text": sampleResume},
		"bad document id": {"document_id": "nope", "job_description": sampleJob},
		"bad url":         {"resume_text": sampleResume, "job_url": "not a url"},
	} {
		t.Run(name, func(t *testing.T) {
			status := do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/match", payload), nil)
			assert.Equal(t, fiber.StatusBadRequest, status)
		})
	}

	status := do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/match", fiber.Map{
		"document_id":     uuid.NewString(),
		"job_description": sampleJob,
	}), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUploadEvaluateResult(t *testing.T) {
	env := newTestEnv(t)

	var uploaded models.UploadResponse
	status := do(t, env.app, multipartRequest(t, "/api/v1/upload", "john.txt", sampleResume, map[string]string{"session_id": "s-1"}), &uploaded)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "john.txt", uploaded.OriginalName)
	assert.Equal(t, "txt", uploaded.FileType)
	require.Len(t, env.docs.docs, 1)

	var queued models.EvaluateResponse
	status = do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/evaluate", fiber.Map{
		"document_id":     uploaded.ID,
		"job_description": sampleJob,
	}), &queued)
	require.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, string(models.StatusQueued), queued.Status)
	require.Len(t, env.worker.enqueued, 1)
	assert.Equal(t, queued.ID, env.worker.enqueued[0].String())

	var pending models.ResultResponse
	status = do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/result/"+queued.ID, nil), &pending)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(models.StatusQueued), pending.Status)
	assert.Nil(t, pending.Result)

	report := models.AnalysisReport{
		Document: models.DocumentSummary{FileName: "john.txt", FileType: models.FileTypeTXT},
		Analysis: &models.AnalysisResult{OverallScore: 77},
	}
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	id := uuid.MustParse(queued.ID)
	env.analyses.records[id].Status = models.StatusCompleted
	env.analyses.records[id].ReportJSON = string(raw)

	var done models.ResultResponse
	status = do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/result/"+queued.ID, nil), &done)
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, done.Result)
	assert.Equal(t, 77, done.Result.Analysis.OverallScore)
}

func TestUpload_Errors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, fiber.StatusBadRequest, do(t, env.app, multipartRequest(t, "/api/v1/upload", "", "", nil), nil))
	assert.Equal(t, fiber.StatusUnsupportedMediaType, do(t, env.app, multipartRequest(t, "/api/v1/upload", "resume.exe", "MZ", nil), nil))
	assert.Empty(t, env.docs.docs)
}

func TestEvaluate_Errors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, fiber.StatusBadRequest,
		do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/evaluate", fiber.Map{}), nil))
	assert.Equal(t, fiber.StatusBadRequest,
		do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/evaluate", fiber.Map{"document_id": "123"}), nil))
	assert.Equal(t, fiber.StatusNotFound,
		do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/evaluate", fiber.Map{"document_id": uuid.NewString()}), nil))

	env.docs.err = errors.New("connection refused")
	var body map[string]string
	assert.Equal(t, fiber.StatusInternalServerError,
		do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/evaluate", fiber.Map{"document_id": uuid.NewString()}), &body))
	assert.Equal(t, "Failed to load document", body["error"])
	assert.Empty(t, env.worker.enqueued)
}

func TestResult_Errors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, fiber.StatusBadRequest,
		do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/result/abc", nil), nil))
	assert.Equal(t, fiber.StatusNotFound,
		do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/result/"+uuid.NewString(), nil), nil))

	msg := "no text could be extracted"
	failed := &models.Analysis{Status: models.StatusFailed, ErrorMessage: &msg}
	require.NoError(t, env.analyses.Create(failed))

	var body models.ResultResponse
	require.Equal(t, fiber.StatusOK,
		do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/result/"+failed.ID.String(), nil), &body))
	require.NotNil(t, body.ErrorMessage)
	assert.Equal(t, msg, *body.ErrorMessage)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, env.analyses.Create(&models.Analysis{Status: models.StatusCompleted}))
	}

	var body struct {
		Analyses []models.Analysis `json:"analyses"`
		Count    int               `json:"count"`
	}
	status := do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=2", nil), &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Analyses, 2)

	env.analyses.err = errors.New("connection refused")
	assert.Equal(t, fiber.StatusInternalServerError,
		do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil), nil))
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)

	var stats models.StatsResponse
	status := do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/stats?days=7", nil), &stats)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(40), stats.TotalAnalyses)
	assert.Equal(t, int64(12), stats.RecentAnalyses)
	assert.InDelta(t, 71.5, stats.AverageScore, 0.001)
	assert.Len(t, stats.ScoreTrend, 1)
	assert.InDelta(t, 82.0, stats.CategoryAverages[models.CategoryFormat], 0.001)
	assert.Equal(t, "pdf", stats.FileTypes[0].FileType)
	assert.Equal(t, "analyze", stats.FeatureUsage[0].Feature)
	assert.InDelta(t, 4.5, stats.AverageRating, 0.001)

	env.analyses.err = errors.New("connection refused")
	assert.Equal(t, fiber.StatusInternalServerError,
		do(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil), nil))
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t)

	status := do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/feedback", fiber.Map{
		"rating":        5,
		"feedback_text": "Very useful",
		"feature_used":  "analyze",
	}), nil)
	assert.Equal(t, fiber.StatusCreated, status)
	require.Len(t, env.feedback.saved, 1)
	assert.Equal(t, 5, env.feedback.saved[0].Rating)

	for name, payload := range map[string]fiber.Map{
		"rating too high": {"rating": 6, "feature_used": "analyze"},
		"rating missing":  {"feature_used": "analyze"},
		"no feature":      {"rating": 3},
	} {
		t.Run(name, func(t *testing.T) {
			status := do(t, env.app, jsonRequest(t, http.MethodPost, "/api/v1/feedback", payload), nil)
			assert.Equal(t, fiber.StatusBadRequest, status)
		})
	}
}

func TestClampQuery(t *testing.T) {
	assert.Equal(t, 20, clampQuery(0, 20, 100))
	assert.Equal(t, 20, clampQuery(-5, 20, 100))
	assert.Equal(t, 100, clampQuery(500, 20, 100))
	assert.Equal(t, 7, clampQuery(7, 20, 100))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: resume.rtf", services.ErrUnsupportedFormat), want: fiber.StatusUnsupportedMediaType},
		{err: fmt.Errorf("%w: 11 bytes", services.ErrFileTooLarge), want: fiber.StatusRequestEntityTooLarge},
		{err: fmt.Errorf("%w: scan.pdf", services.ErrEmptyExtraction), want: fiber.StatusUnprocessableEntity},
		{err: services.ErrDecode, want: fiber.StatusUnprocessableEntity},
		{err: fmt.Errorf("%w: HTTP status 404", services.ErrJobFetch), want: fiber.StatusUnprocessableEntity},
		{err: fmt.Errorf("failed to get document: %w", repositories.ErrNotFound), want: fiber.StatusNotFound},
		{err: errors.New("connection refused"), want: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
