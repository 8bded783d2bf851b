package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
)

// currentRoundGraceWindow keeps a just-completed round as the "current" round
// so results stay visible before the UI jumps to the next round.
const currentRoundGraceWindow = 48 * time.Hour

type RoundService interface {
	GetRound(ctx context.Context, id int) (*models.Round, error)
	GetRoundByNumber(ctx context.Context, roundNumber, year int) (*models.Round, error)
	ListRounds(ctx context.Context, year int) ([]*models.Round, error)
	ListRoundGames(ctx context.Context, roundID int) ([]*models.Game, error)
	// IsRoundOpen reports whether the round's lockout has not yet passed.
	IsRoundOpen(ctx context.Context, roundID int) (bool, *time.Time, error)
	// CurrentRound refreshes every round of the year and picks the round the
	// UI should show.
	CurrentRound(ctx context.Context, year int) (*models.Round, error)
	// RefreshRoundStatus recomputes one round's status and lockout time from
	// its games. Safe to call repeatedly.
	RefreshRoundStatus(ctx context.Context, roundID int) (models.RoundStatus, error)
	RefreshAllRoundStatuses(ctx context.Context, year int) (int, error)
	// OverrideLockoutTime replaces a round's lockout unconditionally. Admin
	// simulate tooling only.
	OverrideLockoutTime(ctx context.Context, roundID int, lockout *time.Time) error
}

type roundService struct {
	roundRepo repositories.RoundRepository
	gameRepo  repositories.GameRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewRoundService(roundRepo repositories.RoundRepository, gameRepo repositories.GameRepository, logger *slog.Logger) RoundService {
	return &roundService{
		roundRepo: roundRepo,
		gameRepo:  gameRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveRoundStatus derives a round's status from its games' external
// completion values and start times. First match wins:
//
//  1. every game complete (100) -> completed
//  2. any game in progress (0 < completion < 100) -> active
//  3. the earliest game has nominally started -> active
//  4. otherwise -> upcoming
//
// A round with no games stays upcoming.
func ResolveRoundStatus(games []models.GameState, now time.Time) models.RoundStatus {
	if len(games) == 0 {
		return models.RoundUpcoming
	}

	allComplete := true
	anyInProgress := false
	earliest := games[0].StartTime
	for _, g := range games {
		if g.Completion != 100 {
			allComplete = false
		}
		if g.Completion > 0 && g.Completion < 100 {
			anyInProgress = true
		}
		if g.StartTime.Before(earliest) {
			earliest = g.StartTime
		}
	}

	switch {
	case allComplete:
		return models.RoundCompleted
	case anyInProgress:
		return models.RoundActive
	case !now.Before(earliest):
		return models.RoundActive
	default:
		return models.RoundUpcoming
	}
}

func (s *roundService) GetRound(ctx context.Context, id int) (*models.Round, error) {
	if _, err := s.RefreshRoundStatus(ctx, id); err != nil {
		return nil, err
	}
	round, err := s.roundRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return round, nil
}

func (s *roundService) GetRoundByNumber(ctx context.Context, roundNumber, year int) (*models.Round, error) {
	round, err := s.roundRepo.GetByNumberAndYear(ctx, roundNumber, year)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round %d/%d: %w", roundNumber, year, err)
	}
	if _, err := s.RefreshRoundStatus(ctx, round.ID); err != nil {
		return nil, err
	}
	return s.roundRepo.GetByID(ctx, round.ID)
}

func (s *roundService) ListRounds(ctx context.Context, year int) ([]*models.Round, error) {
	if year <= 0 {
		return nil, ErrInvalidYear
	}
	rounds, err := s.roundRepo.ListByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds for %d: %w", year, err)
	}
	return rounds, nil
}

func (s *roundService) ListRoundGames(ctx context.Context, roundID int) ([]*models.Game, error) {
	games, err := s.gameRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for round %d: %w", roundID, err)
	}
	return games, nil
}

func (s *roundService) IsRoundOpen(ctx context.Context, roundID int) (bool, *time.Time, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return false, nil, ErrRoundNotFound
		}
		return false, nil, fmt.Errorf("failed to get round %d: %w", roundID, err)
	}
	open := round.LockoutTime == nil || s.now().Before(*round.LockoutTime)
	return open, round.LockoutTime, nil
}

func (s *roundService) RefreshRoundStatus(ctx context.Context, roundID int) (models.RoundStatus, error) {
	games, err := s.roundRepo.GameStates(ctx, roundID)
	if err != nil {
		return "", fmt.Errorf("failed to load game states for round %d: %w", roundID, err)
	}

	status := ResolveRoundStatus(games, s.now())

	if len(games) > 0 {
		earliest := games[0].StartTime
		for _, g := range games[1:] {
			if g.StartTime.Before(earliest) {
				earliest = g.StartTime
			}
		}
		if err := s.roundRepo.SetLockoutTimeIfUnset(ctx, nil, roundID, earliest); err != nil {
			return "", fmt.Errorf("failed to set lockout for round %d: %w", roundID, err)
		}
	}

	if err := s.roundRepo.UpdateStatus(ctx, nil, roundID, status); err != nil {
		return "", fmt.Errorf("failed to update status for round %d: %w", roundID, err)
	}
	return status, nil
}

func (s *roundService) RefreshAllRoundStatuses(ctx context.Context, year int) (int, error) {
	ids, err := s.roundRepo.ListIDsByYear(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("failed to list rounds for %d: %w", year, err)
	}

	refreshed := 0
	for _, id := range ids {
		if _, err := s.RefreshRoundStatus(ctx, id); err != nil {
			s.logger.Error("round status refresh failed", "round_id", id, "error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *roundService) CurrentRound(ctx context.Context, year int) (*models.Round, error) {
	if _, err := s.RefreshAllRoundStatuses(ctx, year); err != nil {
		return nil, err
	}

	rounds, err := s.roundRepo.ListByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds for %d: %w", year, err)
	}
	if len(rounds) == 0 {
		return nil, ErrRoundNotFound
	}

	return pickCurrentRound(rounds, s.now()), nil
}

// pickCurrentRound selects the round the UI should show. A completed round
// stays current for the grace window after its last game's start so results
// remain visible; otherwise the first active round wins, then the first
// upcoming, then the highest-numbered round.
func pickCurrentRound(rounds []*models.Round, now time.Time) *models.Round {
	var lastCompleted *models.Round
	for _, r := range rounds {
		if r.Status == models.RoundCompleted {
			lastCompleted = r
		}
	}
	if lastCompleted != nil && lastCompleted.LastGameTime != nil {
		if now.Before(lastCompleted.LastGameTime.Add(currentRoundGraceWindow)) {
			return lastCompleted
		}
	}

	for _, r := range rounds {
		if r.Status == models.RoundActive {
			return r
		}
	}
	for _, r := range rounds {
		if r.Status == models.RoundUpcoming {
			return r
		}
	}
	return rounds[len(rounds)-1]
}

func (s *roundService) OverrideLockoutTime(ctx context.Context, roundID int, lockout *time.Time) error {
	err := s.roundRepo.OverrideLockoutTime(ctx, roundID, lockout)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return ErrRoundNotFound
		}
		return fmt.Errorf("failed to override lockout for round %d: %w", roundID, err)
	}
	s.logger.Info("round lockout overridden", "round_id", roundID, "lockout", lockout)
	return nil
}
