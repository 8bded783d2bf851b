package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookseyplate/tipping-system/models"
)

type scoringFixture struct {
	svc          ScoringService
	tipRepo      *fakeTipRepo
	squiggleRepo *fakeSquiggleRepo
	roundRepo    *fakeRoundRepo
	winnerRepo   *fakeWinnerRepo
}

func newScoringFixture() *scoringFixture {
	tipRepo := newFakeTipRepo()
	squiggleRepo := newFakeSquiggleRepo()
	roundRepo := newFakeRoundRepo()
	winnerRepo := newFakeWinnerRepo()
	svc := NewScoringService(tipRepo, squiggleRepo, newFakeGameRepo(), roundRepo, newFakeFinalsRepo(), winnerRepo, testLogger())
	return &scoringFixture{svc: svc, tipRepo: tipRepo, squiggleRepo: squiggleRepo, roundRepo: roundRepo, winnerRepo: winnerRepo}
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }
func boolptr(b bool) *bool    { return &b }

func TestScoreGame(t *testing.T) {
	f := newScoringFixture()
	f.squiggleRepo.games["131"] = &models.SquiggleGame{
		SquiggleGameKey: "131", Completion: 100, Winner: strptr("Carlton"),
		HomeScore: 95, AwayScore: 80,
	}
	f.tipRepo.add(&models.Tip{UserID: 1, GameID: 1, RoundID: 13, SquiggleGameKey: "131", SelectedTeam: "Carlton"})
	f.tipRepo.add(&models.Tip{UserID: 2, GameID: 1, RoundID: 13, SquiggleGameKey: "131", SelectedTeam: "Collingwood"})

	scored, err := f.svc.ScoreGame(context.Background(), "131")
	require.NoError(t, err)
	assert.EqualValues(t, 2, scored)

	correct := 0
	for _, tip := range f.tipRepo.tips {
		require.NotNil(t, tip.IsCorrect)
		if *tip.IsCorrect {
			correct++
		}
	}
	assert.Equal(t, 1, correct)

	// Rescoring touches nothing.
	scored, err = f.svc.ScoreGame(context.Background(), "131")
	require.NoError(t, err)
	assert.EqualValues(t, 0, scored)
}

func TestScoreGame_NotDecided(t *testing.T) {
	f := newScoringFixture()
	f.squiggleRepo.games["131"] = &models.SquiggleGame{SquiggleGameKey: "131", Completion: 60}
	f.tipRepo.add(&models.Tip{UserID: 1, GameID: 1, SquiggleGameKey: "131", SelectedTeam: "Carlton"})

	scored, err := f.svc.ScoreGame(context.Background(), "131")
	require.NoError(t, err)
	assert.Zero(t, scored, "a game below 100 percent completion is never scored")

	for _, tip := range f.tipRepo.tips {
		assert.Nil(t, tip.IsCorrect)
	}

	// Complete but with no winner recorded (draw pending resolution upstream).
	f.squiggleRepo.games["131"].Completion = 100
	scored, err = f.svc.ScoreGame(context.Background(), "131")
	require.NoError(t, err)
	assert.Zero(t, scored)
}

func TestScoreGame_UnknownKey(t *testing.T) {
	f := newScoringFixture()
	_, err := f.svc.ScoreGame(context.Background(), "999")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRecalculateMarginWinners(t *testing.T) {
	f := newScoringFixture()

	// Three margin tips on the decided game: two picked the right winner,
	// one did not. The wrong pick never contends, whatever its difference.
	f.tipRepo.add(&models.Tip{
		UserID: 1, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Carlton",
		IsMarginGame: true, IsCorrect: boolptr(true), MarginDifference: intptr(2),
	})
	f.tipRepo.add(&models.Tip{
		UserID: 2, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Carlton",
		IsMarginGame: true, IsCorrect: boolptr(true), MarginDifference: intptr(3),
	})
	f.tipRepo.add(&models.Tip{
		UserID: 3, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Collingwood",
		IsMarginGame: true, IsCorrect: boolptr(false), MarginDifference: intptr(1),
	})

	winners, err := f.svc.RecalculateMarginWinners(context.Background(), 40)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, 1, winners[0].UserID)
	assert.Equal(t, 2, winners[0].MarginDifference)
	assert.Equal(t, marginWinPoints, winners[0].PointsAwarded)
	assert.Equal(t, "margin", winners[0].WinType)
}

func TestRecalculateMarginWinners_TiesAllWin(t *testing.T) {
	f := newScoringFixture()
	f.tipRepo.add(&models.Tip{
		UserID: 1, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Carlton",
		IsMarginGame: true, IsCorrect: boolptr(true), MarginDifference: intptr(4),
	})
	f.tipRepo.add(&models.Tip{
		UserID: 2, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Carlton",
		IsMarginGame: true, IsCorrect: boolptr(true), MarginDifference: intptr(4),
	})

	winners, err := f.svc.RecalculateMarginWinners(context.Background(), 40)
	require.NoError(t, err)
	assert.Len(t, winners, 2, "equal differences are not tie-broken")
}

func TestRecalculateMarginWinners_PrunesStaleWinners(t *testing.T) {
	f := newScoringFixture()

	// An earlier run crowned user 2; a corrected feed now favours user 1.
	require.NoError(t, f.winnerRepo.Upsert(context.Background(), nil, &models.RoundWinner{
		RoundID: 40, UserID: 2, WinType: "margin", MarginDifference: 3, PointsAwarded: 1,
	}))

	f.tipRepo.add(&models.Tip{
		UserID: 1, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Carlton",
		IsMarginGame: true, IsCorrect: boolptr(true), MarginDifference: intptr(1),
	})
	f.tipRepo.add(&models.Tip{
		UserID: 2, GameID: 9, RoundID: 40, SquiggleGameKey: "281", SelectedTeam: "Carlton",
		IsMarginGame: true, IsCorrect: boolptr(true), MarginDifference: intptr(3),
	})

	_, err := f.svc.RecalculateMarginWinners(context.Background(), 40)
	require.NoError(t, err)

	stored, err := f.svc.ListRoundWinners(context.Background(), 40)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].UserID)
}

func TestRecalculateMarginWinners_NoContenders(t *testing.T) {
	f := newScoringFixture()
	winners, err := f.svc.RecalculateMarginWinners(context.Background(), 40)
	require.NoError(t, err)
	assert.Nil(t, winners)
}

func TestScoreCompletedGames(t *testing.T) {
	f := newScoringFixture()

	round := f.roundRepo.add(&models.Round{RoundNumber: 28, Year: 2026, Status: models.RoundActive})

	decided := &models.SquiggleGame{
		SquiggleGameKey: "281", RoundNumber: 28, Year: 2026,
		Completion: 100, Winner: strptr("Carlton"), HomeScore: 92, AwayScore: 80,
	}
	f.squiggleRepo.games["281"] = decided
	f.squiggleRepo.completedUnscored = []*models.SquiggleGame{decided}
	f.squiggleRepo.marginPending = []*models.SquiggleGame{decided}

	// Actual margin is 12. User 1 predicted 10 (diff 2), user 2 predicted 15
	// (diff 3), user 3 picked the loser.
	f.tipRepo.add(&models.Tip{
		UserID: 1, GameID: 9, RoundID: round.ID, SquiggleGameKey: "281",
		SelectedTeam: "Carlton", IsMarginGame: true, MarginPrediction: intptr(10),
	})
	f.tipRepo.add(&models.Tip{
		UserID: 2, GameID: 9, RoundID: round.ID, SquiggleGameKey: "281",
		SelectedTeam: "Carlton", IsMarginGame: true, MarginPrediction: intptr(15),
	})
	f.tipRepo.add(&models.Tip{
		UserID: 3, GameID: 9, RoundID: round.ID, SquiggleGameKey: "281",
		SelectedTeam: "Collingwood", IsMarginGame: true, MarginPrediction: intptr(2),
	})

	result, err := f.svc.ScoreCompletedGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.GamesScored)
	assert.Equal(t, 3, result.TipsScored)

	winners, err := f.svc.ListRoundWinners(context.Background(), round.ID)
	require.NoError(t, err)
	require.Len(t, winners, 1, "closest correct margin wins alone")
	assert.Equal(t, 1, winners[0].UserID)
	assert.Equal(t, 2, winners[0].MarginDifference)
}

func TestMarginGames(t *testing.T) {
	tipRepo := newFakeTipRepo()
	squiggleRepo := newFakeSquiggleRepo()
	gameRepo := newFakeGameRepo()
	roundRepo := newFakeRoundRepo()
	finals := newFakeFinalsRepo(&models.FinalsConfig{
		RoundNumber: 25, RequiresMargin: true, MarginGamePosition: models.MarginGameFirst,
	})
	svc := NewScoringService(tipRepo, squiggleRepo, gameRepo, roundRepo, finals, newFakeWinnerRepo(), testLogger())

	start := time.Date(2026, 9, 4, 19, 50, 0, 0, time.UTC)
	finalsRound := roundRepo.add(&models.Round{RoundNumber: 25, Year: 2026})
	homeAway := roundRepo.add(&models.Round{RoundNumber: 10, Year: 2026})
	gameRepo.add(&models.Game{ID: 2, RoundID: finalsRound.ID, StartTime: start.Add(24 * time.Hour)})
	gameRepo.add(&models.Game{ID: 1, RoundID: finalsRound.ID, StartTime: start})

	games, err := svc.MarginGames(context.Background(), finalsRound.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].ID, "first by start time carries the margin")

	games, err = svc.MarginGames(context.Background(), homeAway.ID)
	require.NoError(t, err)
	assert.Empty(t, games, "rounds without a margin requirement have none")

	_, err = svc.MarginGames(context.Background(), 999)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestSelectMarginGames(t *testing.T) {
	games := []*models.Game{{ID: 10}, {ID: 20}, {ID: 30}}

	assert.Equal(t, map[int]bool{10: true}, selectMarginGames(models.MarginGameFirst, games))
	assert.Equal(t, map[int]bool{30: true}, selectMarginGames(models.MarginGameLast, games))
	assert.Equal(t, map[int]bool{10: true, 20: true, 30: true}, selectMarginGames(models.MarginGameAll, games))
	assert.Empty(t, selectMarginGames(models.MarginGameLast, nil))
}
