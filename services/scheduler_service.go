package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
)

const (
	JobLiveScores     = "live_scores"
	JobFullSync       = "full_sync"
	JobRoundStatus    = "round_status"
	JobTipCorrectness = "tip_correctness"
)

type JobStatus struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Interval   string     `json:"interval"`
	SeasonOnly bool       `json:"season_only"`
	RunCount   int        `json:"run_count"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastError  *string    `json:"last_error,omitempty"`
}

type schedulerJob struct {
	id         string
	name       string
	interval   time.Duration
	seasonOnly bool
	run        func(ctx context.Context) error

	mu        sync.Mutex
	runCount  int
	lastRun   *time.Time
	lastError *string
}

type SchedulerService interface {
	// Start launches every job's timer loop. Blocks until ctx is cancelled.
	Start(ctx context.Context) error
	// TriggerJob runs one job immediately through the same path the timers
	// use, regardless of season or the enabled flag.
	TriggerJob(ctx context.Context, jobID string) error
	// RunAll runs every job once, in registration order.
	RunAll(ctx context.Context) error
	SetEnabled(enabled bool)
	Enabled() bool
	Status() []JobStatus
}

type schedulerService struct {
	jobs       []*schedulerJob
	importRepo repositories.ImportLogRepository
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	enabled bool
}

func NewSchedulerService(
	syncService SyncService,
	rounds RoundService,
	scoring ScoringService,
	importRepo repositories.ImportLogRepository,
	enabled bool,
	logger *slog.Logger,
) SchedulerService {
	s := &schedulerService{
		importRepo: importRepo,
		logger:     logger,
		now:        time.Now,
		enabled:    enabled,
	}

	s.jobs = []*schedulerJob{
		{
			id:         JobLiveScores,
			name:       "Live score update",
			interval:   30 * time.Minute,
			seasonOnly: true,
			run: func(ctx context.Context) error {
				_, err := syncService.UpdateLiveScores(ctx, s.now().Year())
				return err
			},
		},
		{
			id:       JobFullSync,
			name:     "Full fixture sync",
			interval: 12 * time.Hour,
			run: func(ctx context.Context) error {
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					_, err := syncService.SyncGames(ctx, s.now().Year())
					return err
				})
				g.Go(func() error {
					_, err := syncService.SyncTeams(ctx)
					return err
				})
				return g.Wait()
			},
		},
		{
			id:       JobRoundStatus,
			name:     "Round status refresh",
			interval: 2 * time.Hour,
			run: func(ctx context.Context) error {
				_, err := rounds.RefreshAllRoundStatuses(ctx, s.now().Year())
				return err
			},
		},
		{
			id:         JobTipCorrectness,
			name:       "Tip correctness sweep",
			interval:   time.Hour,
			seasonOnly: true,
			run: func(ctx context.Context) error {
				_, err := scoring.ScoreCompletedGames(ctx)
				return err
			},
		},
	}
	return s
}

// isAFLSeason covers the home-and-away season and finals, roughly March
// through September.
func isAFLSeason(now time.Time) bool {
	return now.Month() >= time.March && now.Month() <= time.September
}

func (s *schedulerService) Start(ctx context.Context) error {
	s.logger.Info("scheduler starting", "jobs", len(s.jobs), "enabled", s.Enabled())

	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			ticker := time.NewTicker(job.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if !s.Enabled() {
						continue
					}
					if job.seasonOnly && !isAFLSeason(s.now()) {
						continue
					}
					s.runJob(ctx, job)
				}
			}
		})
	}
	return g.Wait()
}

// runJob executes a job, records its outcome in the registry and, on
// failure, in the persistent operations log. A failing run never stops the
// timer loop.
func (s *schedulerService) runJob(ctx context.Context, job *schedulerJob) {
	started := s.now()
	err := job.run(ctx)

	var errMsg *string
	if err != nil {
		msg := err.Error()
		errMsg = &msg
	}

	job.mu.Lock()
	job.runCount++
	job.lastRun = &started
	job.lastError = errMsg
	job.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", job.id, "error", err)
		logEntry := &models.ImportLog{
			ImportType:   "scheduler_" + job.id,
			Status:       models.ImportStatusError,
			ErrorMessage: errMsg,
		}
		if logErr := s.importRepo.Insert(ctx, logEntry); logErr != nil {
			s.logger.Error("failed to record job failure", "job", job.id, "error", logErr)
		}
		return
	}
	s.logger.Info("scheduled job finished", "job", job.id, "duration", s.now().Sub(started).String())
}

func (s *schedulerService) TriggerJob(ctx context.Context, jobID string) error {
	for _, job := range s.jobs {
		if job.id != jobID {
			continue
		}
		s.runJob(ctx, job)

		job.mu.Lock()
		lastError := job.lastError
		job.mu.Unlock()
		if lastError != nil {
			return fmt.Errorf("job %s failed: %s", jobID, *lastError)
		}
		return nil
	}
	return ErrNotFound
}

func (s *schedulerService) RunAll(ctx context.Context) error {
	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *schedulerService) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	s.logger.Info("scheduler toggled", "enabled", enabled)
}

func (s *schedulerService) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *schedulerService) Status() []JobStatus {
	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		job.mu.Lock()
		statuses = append(statuses, JobStatus{
			ID:         job.id,
			Name:       job.name,
			Interval:   job.interval.String(),
			SeasonOnly: job.seasonOnly,
			RunCount:   job.runCount,
			LastRun:    job.lastRun,
			LastError:  job.lastError,
		})
		job.mu.Unlock()
	}
	return statuses
}
