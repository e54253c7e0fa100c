package workers

import (
	"context"
	"sync"
	"time"

	"survey-rewards-backend/internal/common/logger"
	"survey-rewards-backend/internal/features/survey/repository"
)

// ExpirationWorker periodically closes surveys whose end date has passed.
// Closing is advisory: read and submit paths also check the end date, so a
// missed tick never lets a late response through.
type ExpirationWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	repo     repository.SurveyRepository
	interval time.Duration
	wg       sync.WaitGroup
}

func NewExpirationWorker(repo repository.SurveyRepository, interval time.Duration) *ExpirationWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpirationWorker{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		interval: interval,
	}
}

func (w *ExpirationWorker) Start() {
	logger.Info().Dur("interval", w.interval).Msg("Starting expiration worker")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.sweep(w.ctx); err != nil {
					logger.Error().Err(err).Msg("Expiration sweep failed")
				}
			case <-w.ctx.Done():
				return
			}
		}
	}()
}

func (w *ExpirationWorker) Stop() {
	logger.Info().Msg("Stopping expiration worker")
	w.cancel()
	w.wg.Wait()
	logger.Info().Msg("Expiration worker stopped")
}

func (w *ExpirationWorker) sweep(ctx context.Context) error {
	surveys, err := w.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, survey := range surveys {
		if !survey.IsActive() || !survey.HasEnded(now) {
			continue
		}
		if err := w.repo.Close(ctx, survey.ID); err != nil {
			logger.Warn().Err(err).Str("survey_id", survey.ID).Msg("Failed to close ended survey")
			continue
		}
		logger.Info().Str("survey_id", survey.ID).Msg("Survey closed after end date")
	}
	return nil
}
