package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
)

type fakeAnalysisRepo struct {
	mu              sync.Mutex
	records         map[uuid.UUID]*models.Analysis
	createErr       error
	updateResultErr error
	updates         map[uuid.UUID]*repositories.AnalysisUpdateData
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{
		records: make(map[uuid.UUID]*models.Analysis),
		updates: make(map[uuid.UUID]*repositories.AnalysisUpdateData),
	}
}

func (f *fakeAnalysisRepo) Create(a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.records[a.ID] = a
	return nil
}

func (f *fakeAnalysisRepo) FindByID(id uuid.UUID) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAnalysisRepo) UpdateStatus(id uuid.UUID, status models.AnalysisStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeAnalysisRepo) UpdateResult(id uuid.UUID, data *repositories.AnalysisUpdateData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateResultErr != nil {
		return f.updateResultErr
	}
	a, ok := f.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = models.StatusCompleted
	a.OverallScore = intPtr(data.Overall)
	a.MatchScore = data.MatchScore
	a.ReportJSON = data.ReportJSON
	f.updates[id] = data
	return nil
}

func (f *fakeAnalysisRepo) UpdateError(id uuid.UUID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = models.StatusFailed
	a.ErrorMessage = &msg
	return nil
}

func (f *fakeAnalysisRepo) FindPendingJobs(limit int) ([]models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Analysis
	for _, a := range f.records {
		if a.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAnalysisRepo) FindRecent(int) ([]models.Analysis, error) {
	return nil, nil
}

func (f *fakeAnalysisRepo) Count(time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAnalysisRepo) AverageScore(time.Time) (float64, error) {
	return 0, nil
}

func (f *fakeAnalysisRepo) ScoreTrend(time.Time) ([]models.DailyScore, error) {
	return nil, nil
}

func (f *fakeAnalysisRepo) CategoryAverages(time.Time) (map[models.Category]float64, error) {
	return nil, nil
}

func (f *fakeAnalysisRepo) FileTypeStats(time.Time) ([]models.FileTypeStat, error) {
	return nil, nil
}

func (f *fakeAnalysisRepo) get(id uuid.UUID) *models.Analysis {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id]
}

type fakeDocRepo struct {
	docs map[uuid.UUID]*models.Document
}

func (f *fakeDocRepo) Create(d *models.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.docs[d.ID] = d
	return nil
}

func (f *fakeDocRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return d, nil
}

type fakeFeedbackRepo struct {
	mu     sync.Mutex
	usage  []string
	logErr error
}

func (f *fakeFeedbackRepo) Create(*models.Feedback) error {
	return nil
}

func (f *fakeFeedbackRepo) AverageRating(time.Time) (float64, error) {
	return 0, nil
}

func (f *fakeFeedbackRepo) LogUsage(feature, action, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logErr != nil {
		return f.logErr
	}
	f.usage = append(f.usage, feature+"/"+action)
	return nil
}

func (f *fakeFeedbackRepo) FeatureUsage(time.Time) ([]models.FeatureUsage, error) {
	return nil, nil
}

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) FetchJobDescription(context.Context, string) (string, error) {
	return f.text, f.err
}

var errDatabaseDown = errors.New("database is down")
