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

// Skip reasons recorded per tip within a batch submission. A skipped tip does
// not abort the batch; the caller gets the reason per game so the UI can
// explain exactly why each tip was refused.
const (
	SkipGameNotFound = "game_not_found"
	SkipInvalidTeam  = "invalid_team"
	SkipGameLocked   = "game_locked"
	SkipRoundLocked  = "round_locked"
)

type SkippedTip struct {
	GameID int    `json:"game_id"`
	Reason string `json:"reason"`
}

type BatchSubmissionResult struct {
	Submitted []*models.Tip `json:"submitted"`
	Skipped   []SkippedTip  `json:"skipped"`
	Attempted int           `json:"attempted"`
}

type TipService interface {
	// SubmitTips records a batch of tips by actingUserID on behalf of
	// targetUserID. Per-tip failures skip that tip and the batch continues;
	// only a permission failure rejects the whole batch.
	SubmitTips(ctx context.Context, actingUserID, targetUserID int, tips []models.TipSubmission) (*BatchSubmissionResult, error)
	// DeleteTip removes a tip. Allowed only before the owning round's
	// lockout; afterwards it fails hard with ErrTipLocked.
	DeleteTip(ctx context.Context, actingUserID, tipID int) error
	GetTip(ctx context.Context, id int) (*models.Tip, error)
	ListTipsForRound(ctx context.Context, roundID int, userID *int) ([]*models.Tip, error)
	ListUserTipsForRound(ctx context.Context, userID, roundID int) ([]*models.Tip, error)
	ListAllUserTips(ctx context.Context, userID int, year *int) ([]*models.Tip, error)
	GetRoundTipStats(ctx context.Context, roundID int) (*models.RoundTipStats, error)
}

type tipService struct {
	tipRepo    repositories.TipRepository
	gameRepo   repositories.GameRepository
	userRepo   repositories.UserRepository
	finalsRepo repositories.FinalsConfigRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewTipService(
	tipRepo repositories.TipRepository,
	gameRepo repositories.GameRepository,
	userRepo repositories.UserRepository,
	finalsRepo repositories.FinalsConfigRepository,
	logger *slog.Logger,
) TipService {
	return &tipService{
		tipRepo:    tipRepo,
		gameRepo:   gameRepo,
		userRepo:   userRepo,
		finalsRepo: finalsRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *tipService) SubmitTips(ctx context.Context, actingUserID, targetUserID int, tips []models.TipSubmission) (*BatchSubmissionResult, error) {
	if len(tips) == 0 {
		return nil, ErrNoTipsProvided
	}

	if err := s.checkPermission(ctx, actingUserID, targetUserID); err != nil {
		return nil, err
	}

	now := s.now()
	result := &BatchSubmissionResult{
		Submitted: make([]*models.Tip, 0, len(tips)),
		Skipped:   make([]SkippedTip, 0),
		Attempted: len(tips),
	}

	// Round commitment is evaluated against the tips that existed before this
	// batch, once per round, so a zero-tip user committing a whole round in
	// one request is not tripped up by their own earlier entries.
	committedRounds := make(map[int]bool)
	marginRounds := make(map[int]map[int]bool)

	for _, sub := range tips {
		game, err := s.gameRepo.GetByID(ctx, sub.GameID)
		if err != nil {
			if errors.Is(err, repositories.ErrGameNotFound) {
				s.logger.Warn("tip skipped, game not found", "game_id", sub.GameID, "user_id", targetUserID)
				result.Skipped = append(result.Skipped, SkippedTip{GameID: sub.GameID, Reason: SkipGameNotFound})
				continue
			}
			return nil, fmt.Errorf("failed to load game %d: %w", sub.GameID, err)
		}

		if sub.SelectedTeam != game.HomeTeam && sub.SelectedTeam != game.AwayTeam {
			s.logger.Warn("tip skipped, team not in game",
				"game_id", sub.GameID, "selected_team", sub.SelectedTeam)
			result.Skipped = append(result.Skipped, SkippedTip{GameID: sub.GameID, Reason: SkipInvalidTeam})
			continue
		}

		// Per-game gate: no tipping a game that has started or shows any
		// external progress. No role bypasses this.
		if !game.StartTime.After(now) || (game.Completion != nil && *game.Completion > 0) {
			result.Skipped = append(result.Skipped, SkippedTip{GameID: sub.GameID, Reason: SkipGameLocked})
			continue
		}

		locked, err := s.roundCommitted(ctx, targetUserID, game, now, committedRounds)
		if err != nil {
			return nil, err
		}
		if locked {
			result.Skipped = append(result.Skipped, SkippedTip{GameID: sub.GameID, Reason: SkipRoundLocked})
			continue
		}

		isMargin, err := s.isMarginGame(ctx, game, marginRounds)
		if err != nil {
			return nil, err
		}

		tip := &models.Tip{
			UserID:          targetUserID,
			GameID:          game.ID,
			SquiggleGameKey: game.SquiggleGameKey,
			RoundID:         game.RoundID,
			SelectedTeam:    sub.SelectedTeam,
			IsMarginGame:    isMargin,
		}
		if isMargin {
			tip.MarginPrediction = sub.MarginPrediction
		}

		if err := s.tipRepo.Upsert(ctx, nil, tip); err != nil {
			return nil, fmt.Errorf("failed to save tip for game %d: %w", game.ID, err)
		}
		result.Submitted = append(result.Submitted, tip)
	}

	s.logger.Info("tip batch processed",
		"acting_user_id", actingUserID, "target_user_id", targetUserID,
		"attempted", result.Attempted, "submitted", len(result.Submitted), "skipped", len(result.Skipped))
	return result, nil
}

// checkPermission allows acting for a target user when self, admin, or a
// member of the same family group.
func (s *tipService) checkPermission(ctx context.Context, actingUserID, targetUserID int) error {
	if actingUserID == targetUserID {
		return nil
	}

	acting, err := s.userRepo.GetByID(ctx, actingUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to load acting user %d: %w", actingUserID, err)
	}
	if acting.IsAdmin() {
		return nil
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load target user %d: %w", targetUserID, err)
	}

	if acting.FamilyGroupID == target.FamilyGroupID {
		return nil
	}
	return ErrForbiddenOperation
}

// roundCommitted applies the commitment rule: once a user holds at least one
// tip in a round whose first game has started, every tip of theirs in that
// round is frozen, including games that have not started. A user with zero
// tips in the round keeps tipping not-yet-started games freely.
func (s *tipService) roundCommitted(ctx context.Context, userID int, game *models.Game, now time.Time, cache map[int]bool) (bool, error) {
	if game.LockoutTime == nil || now.Before(*game.LockoutTime) {
		return false, nil
	}

	committed, ok := cache[game.RoundID]
	if !ok {
		count, err := s.tipRepo.CountUserTipsInRound(ctx, userID, game.RoundID)
		if err != nil {
			return false, fmt.Errorf("failed to count tips for round %d: %w", game.RoundID, err)
		}
		committed = count > 0
		cache[game.RoundID] = committed
	}
	return committed, nil
}

func (s *tipService) isMarginGame(ctx context.Context, game *models.Game, cache map[int]map[int]bool) (bool, error) {
	if game.RoundNumber == nil {
		return false, nil
	}

	marginGames, ok := cache[game.RoundID]
	if !ok {
		cfg, err := s.finalsRepo.GetByRoundNumber(ctx, *game.RoundNumber)
		if err != nil {
			if errors.Is(err, repositories.ErrFinalsConfigNotFound) {
				cache[game.RoundID] = nil
				return false, nil
			}
			return false, fmt.Errorf("failed to load finals config for round %d: %w", *game.RoundNumber, err)
		}
		if !cfg.RequiresMargin {
			cache[game.RoundID] = nil
			return false, nil
		}

		roundGames, err := s.gameRepo.ListByRound(ctx, game.RoundID)
		if err != nil {
			return false, fmt.Errorf("failed to list games for round %d: %w", game.RoundID, err)
		}
		marginGames = selectMarginGames(cfg.MarginGamePosition, roundGames)
		cache[game.RoundID] = marginGames
	}
	return marginGames[game.ID], nil
}

func (s *tipService) DeleteTip(ctx context.Context, actingUserID, tipID int) error {
	tip, err := s.tipRepo.GetByID(ctx, tipID)
	if err != nil {
		if errors.Is(err, repositories.ErrTipNotFound) {
			return ErrTipNotFound
		}
		return fmt.Errorf("failed to load tip %d: %w", tipID, err)
	}

	if err := s.checkPermission(ctx, actingUserID, tip.UserID); err != nil {
		return err
	}

	// Deletion is destructive, so past lockout it is a hard failure rather
	// than a soft skip.
	if tip.LockoutTime != nil && !s.now().Before(*tip.LockoutTime) {
		return ErrTipLocked
	}

	if err := s.tipRepo.Delete(ctx, tipID); err != nil {
		if errors.Is(err, repositories.ErrTipNotFound) {
			return ErrTipNotFound
		}
		return fmt.Errorf("failed to delete tip %d: %w", tipID, err)
	}
	s.logger.Info("tip deleted", "tip_id", tipID, "acting_user_id", actingUserID)
	return nil
}

func (s *tipService) GetTip(ctx context.Context, id int) (*models.Tip, error) {
	tip, err := s.tipRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTipNotFound) {
			return nil, ErrTipNotFound
		}
		return nil, fmt.Errorf("failed to get tip %d: %w", id, err)
	}
	return tip, nil
}

func (s *tipService) ListTipsForRound(ctx context.Context, roundID int, userID *int) ([]*models.Tip, error) {
	tips, err := s.tipRepo.ListForRound(ctx, roundID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips for round %d: %w", roundID, err)
	}
	return tips, nil
}

func (s *tipService) ListUserTipsForRound(ctx context.Context, userID, roundID int) ([]*models.Tip, error) {
	tips, err := s.tipRepo.ListUserTipsForRound(ctx, userID, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips for user %d round %d: %w", userID, roundID, err)
	}
	return tips, nil
}

func (s *tipService) ListAllUserTips(ctx context.Context, userID int, year *int) ([]*models.Tip, error) {
	tips, err := s.tipRepo.ListAllUserTips(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips for user %d: %w", userID, err)
	}
	return tips, nil
}

func (s *tipService) GetRoundTipStats(ctx context.Context, roundID int) (*models.RoundTipStats, error) {
	stats, err := s.tipRepo.RoundStats(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tip stats for round %d: %w", roundID, err)
	}
	return stats, nil
}
