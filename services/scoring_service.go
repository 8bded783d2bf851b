package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
)

const marginWinPoints = 1

type ScoringResult struct {
	GamesScored int `json:"games_scored"`
	TipsScored  int `json:"tips_scored"`
}

type ScoringService interface {
	// ScoreGame marks every still-unscored tip on a finished game. Repeated
	// calls leave already-scored tips alone.
	ScoreGame(ctx context.Context, gameKey string) (int64, error)
	// ScoreCompletedGames sweeps every finished game with unscored tips,
	// then fills pending margin differences and recomputes margin winners.
	ScoreCompletedGames(ctx context.Context) (*ScoringResult, error)
	// RecalculateMarginWinners recomputes the margin winners of one round
	// from scratch. Replace-on-conflict, so reruns correct earlier results.
	RecalculateMarginWinners(ctx context.Context, roundID int) ([]*models.RoundWinner, error)
	ListRoundWinners(ctx context.Context, roundID int) ([]*models.RoundWinner, error)
	FinalsConfig(ctx context.Context, roundNumber int) (*models.FinalsConfig, error)
	// MarginGames returns the round's games that carry a margin prediction,
	// empty for rounds without a margin requirement.
	MarginGames(ctx context.Context, roundID int) ([]*models.Game, error)
}

type scoringService struct {
	tipRepo      repositories.TipRepository
	squiggleRepo repositories.SquiggleGameRepository
	gameRepo     repositories.GameRepository
	roundRepo    repositories.RoundRepository
	finalsRepo   repositories.FinalsConfigRepository
	winnerRepo   repositories.RoundWinnerRepository
	logger       *slog.Logger
}

func NewScoringService(
	tipRepo repositories.TipRepository,
	squiggleRepo repositories.SquiggleGameRepository,
	gameRepo repositories.GameRepository,
	roundRepo repositories.RoundRepository,
	finalsRepo repositories.FinalsConfigRepository,
	winnerRepo repositories.RoundWinnerRepository,
	logger *slog.Logger,
) ScoringService {
	return &scoringService{
		tipRepo:      tipRepo,
		squiggleRepo: squiggleRepo,
		gameRepo:     gameRepo,
		roundRepo:    roundRepo,
		finalsRepo:   finalsRepo,
		winnerRepo:   winnerRepo,
		logger:       logger,
	}
}

func (s *scoringService) ScoreGame(ctx context.Context, gameKey string) (int64, error) {
	game, err := s.squiggleRepo.GetByKey(ctx, gameKey)
	if err != nil {
		if errors.Is(err, repositories.ErrSquiggleGameNotFound) {
			return 0, ErrGameNotFound
		}
		return 0, fmt.Errorf("failed to load game %s: %w", gameKey, err)
	}
	if game.Completion != 100 || game.Winner == nil {
		return 0, nil
	}

	scored, err := s.tipRepo.MarkCorrectness(ctx, nil, gameKey, *game.Winner)
	if err != nil {
		return 0, fmt.Errorf("failed to score tips for game %s: %w", gameKey, err)
	}
	if scored > 0 {
		s.logger.Info("tips scored", "game_key", gameKey, "winner", *game.Winner, "count", scored)
	}
	return scored, nil
}

func (s *scoringService) ScoreCompletedGames(ctx context.Context) (*ScoringResult, error) {
	games, err := s.squiggleRepo.ListCompletedUnscored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored games: %w", err)
	}

	result := &ScoringResult{}
	for _, game := range games {
		scored, err := s.tipRepo.MarkCorrectness(ctx, nil, game.SquiggleGameKey, *game.Winner)
		if err != nil {
			s.logger.Error("failed to score game", "game_key", game.SquiggleGameKey, "error", err)
			continue
		}
		result.GamesScored++
		result.TipsScored += int(scored)
	}

	if err := s.processMarginGames(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// processMarginGames fills margin differences for finished margin games and
// recomputes the winners of each affected round.
func (s *scoringService) processMarginGames(ctx context.Context) error {
	games, err := s.squiggleRepo.ListCompletedMarginPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending margin games: %w", err)
	}

	affectedRounds := make(map[int]bool)
	for _, game := range games {
		computed, err := s.tipRepo.ComputeMarginDifferences(ctx, nil, game.SquiggleGameKey, game.ActualMargin())
		if err != nil {
			s.logger.Error("failed to compute margin differences", "game_key", game.SquiggleGameKey, "error", err)
			continue
		}
		if computed > 0 {
			s.logger.Info("margin differences computed",
				"game_key", game.SquiggleGameKey, "actual_margin", game.ActualMargin(), "count", computed)
		}

		round, err := s.roundRepo.GetByNumberAndYear(ctx, game.RoundNumber, game.Year)
		if err != nil {
			s.logger.Error("failed to resolve round for margin game", "game_key", game.SquiggleGameKey, "error", err)
			continue
		}
		affectedRounds[round.ID] = true
	}

	for roundID := range affectedRounds {
		if _, err := s.RecalculateMarginWinners(ctx, roundID); err != nil {
			s.logger.Error("failed to recalculate margin winners", "round_id", roundID, "error", err)
		}
	}
	return nil
}

func (s *scoringService) RecalculateMarginWinners(ctx context.Context, roundID int) ([]*models.RoundWinner, error) {
	contenders, err := s.tipRepo.ListMarginContenders(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list margin contenders for round %d: %w", roundID, err)
	}
	if len(contenders) == 0 {
		return nil, nil
	}

	// Every tip at the minimum difference wins; ties are not broken further.
	minDiff := *contenders[0].MarginDifference
	for _, tip := range contenders[1:] {
		if *tip.MarginDifference < minDiff {
			minDiff = *tip.MarginDifference
		}
	}

	winners := make([]*models.RoundWinner, 0, len(contenders))
	keepUserIDs := make([]int, 0, len(contenders))
	for _, tip := range contenders {
		if *tip.MarginDifference != minDiff {
			continue
		}
		winner := &models.RoundWinner{
			RoundID:          roundID,
			UserID:           tip.UserID,
			WinType:          "margin",
			MarginDifference: minDiff,
			PointsAwarded:    marginWinPoints,
		}
		if err := s.winnerRepo.Upsert(ctx, nil, winner); err != nil {
			return nil, fmt.Errorf("failed to save round winner: %w", err)
		}
		winners = append(winners, winner)
		keepUserIDs = append(keepUserIDs, tip.UserID)
	}

	if err := s.winnerRepo.DeleteStale(ctx, nil, roundID, keepUserIDs); err != nil {
		return nil, fmt.Errorf("failed to prune stale winners for round %d: %w", roundID, err)
	}

	s.logger.Info("margin winners recalculated",
		"round_id", roundID, "winners", len(winners), "margin_difference", minDiff)
	return winners, nil
}

func (s *scoringService) ListRoundWinners(ctx context.Context, roundID int) ([]*models.RoundWinner, error) {
	winners, err := s.winnerRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners for round %d: %w", roundID, err)
	}
	return winners, nil
}

func (s *scoringService) FinalsConfig(ctx context.Context, roundNumber int) (*models.FinalsConfig, error) {
	cfg, err := s.finalsRepo.GetByRoundNumber(ctx, roundNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrFinalsConfigNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load finals config for round %d: %w", roundNumber, err)
	}
	return cfg, nil
}

func (s *scoringService) MarginGames(ctx context.Context, roundID int) ([]*models.Game, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round %d: %w", roundID, err)
	}

	cfg, err := s.finalsRepo.GetByRoundNumber(ctx, round.RoundNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrFinalsConfigNotFound) {
			return []*models.Game{}, nil
		}
		return nil, fmt.Errorf("failed to load finals config for round %d: %w", round.RoundNumber, err)
	}
	if !cfg.RequiresMargin {
		return []*models.Game{}, nil
	}

	games, err := s.gameRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for round %d: %w", roundID, err)
	}

	selected := selectMarginGames(cfg.MarginGamePosition, games)
	marginGames := make([]*models.Game, 0, len(selected))
	for _, g := range games {
		if selected[g.ID] {
			marginGames = append(marginGames, g)
		}
	}
	return marginGames, nil
}

// selectMarginGames picks the game ids that carry the margin prediction for
// a finals round. Games must be ordered by start time.
func selectMarginGames(position models.MarginGamePosition, games []*models.Game) map[int]bool {
	selected := make(map[int]bool)
	if len(games) == 0 {
		return selected
	}
	switch position {
	case models.MarginGameFirst:
		selected[games[0].ID] = true
	case models.MarginGameLast:
		selected[games[len(games)-1].ID] = true
	case models.MarginGameAll:
		for _, g := range games {
			selected[g.ID] = true
		}
	}
	return selected
}
