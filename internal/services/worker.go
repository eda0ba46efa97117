package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/repositories"
)

const (
	jobQueueSize  = 100
	pollInterval  = 10 * time.Second
	pollBatchSize = 10
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID)
}

type worker struct {
	analysisRepo repositories.AnalysisRepository
	analyzer     AnalyzerService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollEvery    time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]struct{}
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	analyzer AnalyzerService,
	concurrency int,
	log *zap.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		analysisRepo: analysisRepo,
		analyzer:     analyzer,
		jobQueue:     make(chan uuid.UUID, jobQueueSize),
		concurrency:  concurrency,
		pollEvery:    pollInterval,
		stopChan:     make(chan struct{}),
		logger:       logger.OrNop(log),
		pending:      make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("🚀 Starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	w.logger.Info("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("✅ Worker stopped")
	})
}

// EnqueueJob implements Worker. A job that is already queued or running is
// not queued again.
func (w *worker) EnqueueJob(analysisID uuid.UUID) {
	w.mu.Lock()
	if _, ok := w.pending[analysisID]; ok {
		w.mu.Unlock()
		return
	}
	w.pending[analysisID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobQueue <- analysisID:
		w.logger.Info("📥 Job enqueued", zap.Stringer("analysis_id", analysisID))
	case <-w.stopChan:
		w.done(analysisID)
		w.logger.Warn("⚠️ Worker stopped, cannot enqueue job", zap.Stringer("analysis_id", analysisID))
	}
}

func (w *worker) done(analysisID uuid.UUID) {
	w.mu.Lock()
	delete(w.pending, analysisID)
	w.mu.Unlock()
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			log.Debug("👷 Worker stopped")
			return
		case <-ctx.Done():
			return
		case analysisID := <-w.jobQueue:
			log.Info("👷 Processing job", zap.Stringer("analysis_id", analysisID))
			if err := w.analyzer.ProcessAnalysis(ctx, analysisID); err != nil {
				log.Error("❌ Job failed", zap.Stringer("analysis_id", analysisID), zap.Error(err))
			}
			w.done(analysisID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.analysisRepo.FindPendingJobs(pollBatchSize)
			if err != nil {
				w.logger.Warn("⚠️ Failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.logger.Info("📋 Found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
