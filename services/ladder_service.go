package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
)

// LadderService exposes the derived standings views. Nothing here is
// persisted; every call recomputes from the current tips so the views can
// never go stale.
type LadderService interface {
	Ladder(ctx context.Context, year int) (*models.LadderResponse, error)
	// UserRank computes one user's ladder position without building the full
	// ladder, by counting the users that beat them. It must agree with the
	// position Ladder would report.
	UserRank(ctx context.Context, userID, year int) (*models.LadderEntry, error)
	FamilyGroupStandings(ctx context.Context, year int) ([]*models.FamilyGroupStanding, error)
	Streaks(ctx context.Context, userID, year int) (*models.StreakInfo, error)
	HeadToHead(ctx context.Context, user1ID, user2ID, year int) (*models.HeadToHead, error)
	RoundPerformance(ctx context.Context, userID, year int) ([]*models.RoundPerformance, error)
	TipPopularity(ctx context.Context, roundID int) ([]*models.TipPopularity, error)
}

type ladderService struct {
	ladderRepo repositories.LadderRepository
	roundRepo  repositories.RoundRepository
	now        func() time.Time
}

func NewLadderService(ladderRepo repositories.LadderRepository, roundRepo repositories.RoundRepository) LadderService {
	return &ladderService{
		ladderRepo: ladderRepo,
		roundRepo:  roundRepo,
		now:        time.Now,
	}
}

func tipPercentage(correct, completed int) float64 {
	if completed == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(completed)*100*100) / 100
}

// buildLadder orders tallies by correct tips, then percentage, then name, and
// assigns 1-based ranks.
func buildLadder(tallies []*models.UserTally) []models.LadderEntry {
	entries := make([]models.LadderEntry, 0, len(tallies))
	for _, t := range tallies {
		entries = append(entries, models.LadderEntry{
			UserTally:  *t,
			Percentage: tipPercentage(t.CorrectTips, t.CompletedTips),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CorrectTips != b.CorrectTips {
			return a.CorrectTips > b.CorrectTips
		}
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		return a.UserName < b.UserName
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (s *ladderService) Ladder(ctx context.Context, year int) (*models.LadderResponse, error) {
	if year <= 0 {
		return nil, ErrInvalidYear
	}

	tallies, err := s.ladderRepo.UserTallies(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load ladder tallies for %d: %w", year, err)
	}

	total, completed, err := s.roundRepo.RoundCounts(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load round counts for %d: %w", year, err)
	}

	return &models.LadderResponse{
		Ladder:          buildLadder(tallies),
		Year:            year,
		LastUpdated:     s.now(),
		TotalRounds:     total,
		CompletedRounds: completed,
	}, nil
}

func (s *ladderService) UserRank(ctx context.Context, userID, year int) (*models.LadderEntry, error) {
	target, err := s.ladderRepo.UserTally(ctx, userID, year)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load tally for user %d: %w", userID, err)
	}

	tallies, err := s.ladderRepo.UserTallies(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load ladder tallies for %d: %w", year, err)
	}

	entry := &models.LadderEntry{
		UserTally:  *target,
		Percentage: tipPercentage(target.CorrectTips, target.CompletedTips),
		Rank:       countBetter(target, tallies) + 1,
	}
	return entry, nil
}

// countBetter counts the users that beat the target under the exact ladder
// ordering, so the single-user rank always matches the full ladder position.
// Names are unique, which makes the user id comparison a pure formality.
func countBetter(target *models.UserTally, tallies []*models.UserTally) int {
	targetPct := tipPercentage(target.CorrectTips, target.CompletedTips)

	better := 0
	for _, t := range tallies {
		if t.UserID == target.UserID {
			continue
		}
		pct := tipPercentage(t.CorrectTips, t.CompletedTips)
		switch {
		case t.CorrectTips > target.CorrectTips:
			better++
		case t.CorrectTips == target.CorrectTips && pct > targetPct:
			better++
		case t.CorrectTips == target.CorrectTips && pct == targetPct && t.UserName < target.UserName:
			better++
		case t.CorrectTips == target.CorrectTips && pct == targetPct && t.UserName == target.UserName && t.UserID < target.UserID:
			better++
		}
	}
	return better
}

func (s *ladderService) FamilyGroupStandings(ctx context.Context, year int) ([]*models.FamilyGroupStanding, error) {
	tallies, err := s.ladderRepo.FamilyGroupTallies(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load family group tallies for %d: %w", year, err)
	}

	standings := make([]*models.FamilyGroupStanding, 0, len(tallies))
	for _, t := range tallies {
		avg := 0.0
		if t.MemberCount > 0 {
			avg = math.Round(float64(t.CorrectTips)/float64(t.MemberCount)*100) / 100
		}
		standings = append(standings, &models.FamilyGroupStanding{
			FamilyGroupTally:        *t,
			Percentage:              tipPercentage(t.CorrectTips, t.CompletedTips),
			AverageCorrectPerMember: avg,
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.CorrectTips != b.CorrectTips {
			return a.CorrectTips > b.CorrectTips
		}
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		return a.FamilyGroupName < b.FamilyGroupName
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

func (s *ladderService) Streaks(ctx context.Context, userID, year int) (*models.StreakInfo, error) {
	tips, err := s.ladderRepo.DecidedTips(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load decided tips for user %d: %w", userID, err)
	}
	return computeStreaks(tips), nil
}

// computeStreaks walks decided tips in game order, resetting the running
// streak whenever correctness flips.
func computeStreaks(tips []models.DecidedTip) *models.StreakInfo {
	info := &models.StreakInfo{TotalDecidedTips: len(tips)}
	if len(tips) == 0 {
		return info
	}

	current := 0
	var currentCorrect bool
	for i, tip := range tips {
		if i == 0 || tip.IsCorrect != currentCorrect {
			current = 1
			currentCorrect = tip.IsCorrect
		} else {
			current++
		}
		if currentCorrect && current > info.LongestCorrectStreak {
			info.LongestCorrectStreak = current
		}
		if !currentCorrect && current > info.LongestIncorrectStreak {
			info.LongestIncorrectStreak = current
		}
	}

	info.CurrentStreak = current
	streakType := models.StreakIncorrect
	if currentCorrect {
		streakType = models.StreakCorrect
	}
	info.CurrentStreakType = &streakType
	return info
}

func (s *ladderService) HeadToHead(ctx context.Context, user1ID, user2ID, year int) (*models.HeadToHead, error) {
	if user1ID == user2ID {
		return nil, ErrValidationFailed
	}
	h, err := s.ladderRepo.HeadToHead(ctx, user1ID, user2ID, year)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to compare users %d and %d: %w", user1ID, user2ID, err)
	}
	return h, nil
}

func (s *ladderService) RoundPerformance(ctx context.Context, userID, year int) ([]*models.RoundPerformance, error) {
	performance, err := s.ladderRepo.RoundPerformance(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load round performance for user %d: %w", userID, err)
	}
	return performance, nil
}

func (s *ladderService) TipPopularity(ctx context.Context, roundID int) ([]*models.TipPopularity, error) {
	popularity, err := s.ladderRepo.TipPopularity(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tip popularity for round %d: %w", roundID, err)
	}
	return popularity, nil
}
