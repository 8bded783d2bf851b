package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/cookseyplate/tipping-system/live"
	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
	"github.com/cookseyplate/tipping-system/squiggle"
	"github.com/cookseyplate/tipping-system/storage"
)

const (
	importTypeGames = "squiggle"
	importTypeTeams = "teams"
	importTypeLive  = "live_scores"

	squiggleSiteURL = "https://squiggle.com.au"
)

type SyncService interface {
	// SyncGames pulls the full season fixture, upserting the external mirror
	// rows, their application projections, and any new rounds.
	SyncGames(ctx context.Context, year int) (int, error)
	// UpdateLiveScores refreshes scores for games showing progress, scores
	// newly completed games and pushes updates to connected clients.
	UpdateLiveScores(ctx context.Context, year int) (int, error)
	// SyncTeams refreshes team reference data and mirrors club logos into
	// object storage when configured.
	SyncTeams(ctx context.Context) (int, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	ListImportLogs(ctx context.Context, importType *string, limit int) ([]*models.ImportLog, error)
}

type syncService struct {
	fetcher      squiggle.Fetcher
	squiggleRepo repositories.SquiggleGameRepository
	gameRepo     repositories.GameRepository
	roundRepo    repositories.RoundRepository
	teamRepo     repositories.TeamRepository
	importRepo   repositories.ImportLogRepository
	rounds       RoundService
	scoring      ScoringService
	uploader     storage.FileUploader
	hub          *live.Hub
	logger       *slog.Logger
	httpClient   *http.Client
}

func NewSyncService(
	fetcher squiggle.Fetcher,
	squiggleRepo repositories.SquiggleGameRepository,
	gameRepo repositories.GameRepository,
	roundRepo repositories.RoundRepository,
	teamRepo repositories.TeamRepository,
	importRepo repositories.ImportLogRepository,
	rounds RoundService,
	scoring ScoringService,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
) SyncService {
	return &syncService{
		fetcher:      fetcher,
		squiggleRepo: squiggleRepo,
		gameRepo:     gameRepo,
		roundRepo:    roundRepo,
		teamRepo:     teamRepo,
		importRepo:   importRepo,
		rounds:       rounds,
		scoring:      scoring,
		uploader:     uploader,
		hub:          hub,
		logger:       logger,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// processGames groups the raw fixture by round, orders each round by start
// time and assigns the within-round ordinal that forms the game key. Games
// missing a team or venue are dropped.
func processGames(games []squiggle.APIGame, year int, logger *slog.Logger) []*models.SquiggleGame {
	byRound := make(map[int][]squiggle.APIGame)
	for _, g := range games {
		byRound[g.Round] = append(byRound[g.Round], g)
	}

	roundNumbers := make([]int, 0, len(byRound))
	for n := range byRound {
		roundNumbers = append(roundNumbers, n)
	}
	sort.Ints(roundNumbers)

	processed := make([]*models.SquiggleGame, 0, len(games))
	for _, roundNumber := range roundNumbers {
		roundGames := byRound[roundNumber]
		sort.SliceStable(roundGames, func(i, j int) bool {
			return roundGames[i].Date < roundGames[j].Date
		})

		for i, g := range roundGames {
			if g.HomeTeam == "" || g.AwayTeam == "" || g.Venue == "" {
				logger.Warn("skipping game with missing data", "round", roundNumber, "ordinal", i+1)
				continue
			}
			start, err := g.StartTime()
			if err != nil {
				logger.Warn("skipping game with unparseable date", "round", roundNumber, "error", err)
				continue
			}
			raw, err := json.Marshal(g)
			if err != nil {
				continue
			}

			tz := g.Timezone
			if tz == "" {
				tz = "Australia/Melbourne"
			}

			processed = append(processed, &models.SquiggleGame{
				SquiggleGameKey: squiggle.GameKey(roundNumber, i+1),
				RoundNumber:     roundNumber,
				GameNumber:      i + 1,
				Year:            year,
				Completion:      g.Complete,
				Date:            start,
				Timezone:        tz,
				HomeTeam:        g.HomeTeam,
				AwayTeam:        g.AwayTeam,
				HomeScore:       g.HomeScore,
				AwayScore:       g.AwayScore,
				HomeGoals:       g.HomeGoals,
				AwayGoals:       g.AwayGoals,
				HomeBehinds:     g.HomeBehinds,
				AwayBehinds:     g.AwayBehinds,
				Venue:           g.Venue,
				Winner:          g.Winner,
				LocalTime:       g.LocalTime,
				HomeMargin:      g.HomeMargin,
				IsFinal:         g.IsFinal != 0,
				IsGrandFinal:    g.IsGrandFinal != 0,
				RawJSON:         string(raw),
			})
		}
	}
	return processed
}

func (s *syncService) SyncGames(ctx context.Context, year int) (int, error) {
	raw, err := s.fetcher.FetchGames(ctx, year, nil)
	if err != nil {
		s.logImport(ctx, importTypeGames, 0, err)
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	processed := processGames(raw, year, s.logger)
	saved := 0
	for _, game := range processed {
		if err := s.saveGame(ctx, game); err != nil {
			s.logger.Error("failed to save game", "game_key", game.SquiggleGameKey, "error", err)
			continue
		}
		saved++
	}

	if _, err := s.rounds.RefreshAllRoundStatuses(ctx, year); err != nil {
		s.logger.Error("round status refresh after sync failed", "year", year, "error", err)
	}

	s.logImport(ctx, importTypeGames, saved, nil)
	s.logger.Info("fixture sync complete", "year", year, "games", saved)
	return saved, nil
}

func (s *syncService) saveGame(ctx context.Context, game *models.SquiggleGame) error {
	if err := s.squiggleRepo.Upsert(ctx, nil, game); err != nil {
		return fmt.Errorf("mirror upsert: %w", err)
	}

	roundID, err := s.roundRepo.EnsureRound(ctx, nil, game.RoundNumber, game.Year)
	if err != nil {
		return fmt.Errorf("ensure round: %w", err)
	}

	projection := &models.Game{
		SquiggleGameKey: game.SquiggleGameKey,
		RoundID:         roundID,
		HomeTeam:        game.HomeTeam,
		AwayTeam:        game.AwayTeam,
		HomeScore:       game.HomeScore,
		AwayScore:       game.AwayScore,
		StartTime:       game.Date,
		Venue:           game.Venue,
		IsComplete:      game.Completion == 100,
	}
	if err := s.gameRepo.UpsertProjection(ctx, nil, projection); err != nil {
		return fmt.Errorf("projection upsert: %w", err)
	}
	return nil
}

func (s *syncService) UpdateLiveScores(ctx context.Context, year int) (int, error) {
	raw, err := s.fetcher.FetchGames(ctx, year, nil)
	if err != nil {
		s.logImport(ctx, importTypeLive, 0, err)
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	updated := 0
	touchedRounds := make(map[int]bool)
	for _, game := range processGames(raw, year, s.logger) {
		if game.Completion == 0 && game.HomeScore == 0 && game.AwayScore == 0 {
			continue
		}

		if err := s.squiggleRepo.UpdateScores(ctx, nil, game); err != nil {
			s.logger.Error("failed to update mirror scores", "game_key", game.SquiggleGameKey, "error", err)
			continue
		}
		isComplete := game.Completion == 100
		if err := s.gameRepo.UpdateScores(ctx, nil, game.SquiggleGameKey, game.HomeScore, game.AwayScore, isComplete); err != nil {
			s.logger.Error("failed to update game scores", "game_key", game.SquiggleGameKey, "error", err)
			continue
		}
		updated++

		if isComplete && game.Winner != nil {
			if _, err := s.scoring.ScoreGame(ctx, game.SquiggleGameKey); err != nil {
				s.logger.Error("failed to score completed game", "game_key", game.SquiggleGameKey, "error", err)
			}
		}

		roundID, err := s.roundRepo.EnsureRound(ctx, nil, game.RoundNumber, game.Year)
		if err != nil {
			continue
		}
		touchedRounds[roundID] = true
		if s.hub != nil {
			s.hub.BroadcastToRound(roundID, live.MessageGameUpdated, map[string]interface{}{
				"squiggle_game_key": game.SquiggleGameKey,
				"home_score":        game.HomeScore,
				"away_score":        game.AwayScore,
				"completion":        game.Completion,
				"winner":            game.Winner,
			})
		}
	}

	for roundID := range touchedRounds {
		status, err := s.rounds.RefreshRoundStatus(ctx, roundID)
		if err != nil {
			s.logger.Error("round status refresh failed", "round_id", roundID, "error", err)
			continue
		}
		if s.hub != nil {
			s.hub.BroadcastToRound(roundID, live.MessageRoundUpdated, map[string]interface{}{
				"round_id": roundID,
				"status":   status,
			})
		}
	}

	s.logImport(ctx, importTypeLive, updated, nil)
	s.logger.Info("live score update complete", "year", year, "games_updated", updated)
	return updated, nil
}

func (s *syncService) SyncTeams(ctx context.Context) (int, error) {
	teams, err := s.fetcher.FetchTeams(ctx)
	if err != nil {
		s.logImport(ctx, importTypeTeams, 0, err)
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	saved := 0
	for _, t := range teams {
		team := &models.Team{
			ID:              t.ID,
			Name:            t.Name,
			Abbrev:          t.Abbrev,
			Logo:            t.Logo,
			PrimaryColour:   t.PrimaryColour,
			SecondaryColour: t.SecondaryColour,
		}
		if err := s.teamRepo.Upsert(ctx, team); err != nil {
			s.logger.Error("failed to save team", "team", t.Name, "error", err)
			continue
		}
		saved++

		if s.uploader != nil && t.Logo != nil {
			if err := s.mirrorLogo(ctx, team); err != nil {
				s.logger.Warn("failed to mirror team logo", "team", t.Name, "error", err)
			}
		}
	}

	s.logImport(ctx, importTypeTeams, saved, nil)
	s.logger.Info("team sync complete", "teams", saved)
	return saved, nil
}

// mirrorLogo copies the club logo from the squiggle site into object storage
// and records the stored key.
func (s *syncService) mirrorLogo(ctx context.Context, team *models.Team) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, squiggleSiteURL+*team.Logo, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching logo", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	key := fmt.Sprintf("teams/%d/logo.png", team.ID)

	result, err := s.uploader.Upload(ctx, key, contentType, resp.Body)
	if err != nil {
		return err
	}
	return s.teamRepo.UpdateLogoKey(ctx, team.ID, &result.Key)
}

func (s *syncService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if s.uploader != nil {
		for _, t := range teams {
			if t.LogoKey != nil {
				url := s.uploader.GetPublicURL(*t.LogoKey)
				t.LogoURL = &url
			}
		}
	}
	return teams, nil
}

func (s *syncService) ListImportLogs(ctx context.Context, importType *string, limit int) ([]*models.ImportLog, error) {
	logs, err := s.importRepo.List(ctx, importType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	return logs, nil
}

// logImport records the outcome of a sync pass in the operations log. Log
// write failures are reported but never replace the original outcome.
func (s *syncService) logImport(ctx context.Context, importType string, records int, cause error) {
	entry := &models.ImportLog{
		ImportType:       importType,
		Status:           models.ImportStatusSuccess,
		RecordsProcessed: records,
	}
	if cause != nil {
		entry.Status = models.ImportStatusError
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}
	if err := s.importRepo.Insert(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("failed to write import log", "import_type", importType, "error", err)
	}
}
