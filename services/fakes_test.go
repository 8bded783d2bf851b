package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRoundRepo is a map-backed RoundRepository.
type fakeRoundRepo struct {
	rounds     map[int]*models.Round
	gameStates map[int][]models.GameState
	nextID     int
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{
		rounds:     make(map[int]*models.Round),
		gameStates: make(map[int][]models.GameState),
		nextID:     1,
	}
}

func (f *fakeRoundRepo) add(r *models.Round) *models.Round {
	if r.ID == 0 {
		r.ID = f.nextID
		f.nextID++
	} else if r.ID >= f.nextID {
		f.nextID = r.ID + 1
	}
	f.rounds[r.ID] = r
	return r
}

func (f *fakeRoundRepo) GetByID(_ context.Context, id int) (*models.Round, error) {
	r, ok := f.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoundRepo) GetByNumberAndYear(_ context.Context, roundNumber, year int) (*models.Round, error) {
	for _, r := range f.rounds {
		if r.RoundNumber == roundNumber && r.Year == year {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (f *fakeRoundRepo) EnsureRound(_ context.Context, _ repositories.SQLExecutor, roundNumber, year int) (int, error) {
	for _, r := range f.rounds {
		if r.RoundNumber == roundNumber && r.Year == year {
			return r.ID, nil
		}
	}
	r := f.add(&models.Round{RoundNumber: roundNumber, Year: year, Status: models.RoundUpcoming})
	return r.ID, nil
}

func (f *fakeRoundRepo) ListByYear(_ context.Context, year int) ([]*models.Round, error) {
	rounds := make([]*models.Round, 0)
	for _, r := range f.rounds {
		if r.Year == year {
			copied := *r
			rounds = append(rounds, &copied)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })
	return rounds, nil
}

func (f *fakeRoundRepo) ListIDsByYear(ctx context.Context, year int) ([]int, error) {
	rounds, _ := f.ListByYear(ctx, year)
	ids := make([]int, 0, len(rounds))
	for _, r := range rounds {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (f *fakeRoundRepo) GameStates(_ context.Context, roundID int) ([]models.GameState, error) {
	return f.gameStates[roundID], nil
}

func (f *fakeRoundRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RoundStatus) error {
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRoundRepo) SetLockoutTimeIfUnset(_ context.Context, _ repositories.SQLExecutor, id int, lockout time.Time) error {
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	if r.LockoutTime == nil {
		r.LockoutTime = &lockout
	}
	return nil
}

func (f *fakeRoundRepo) OverrideLockoutTime(_ context.Context, id int, lockout *time.Time) error {
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	r.LockoutTime = lockout
	return nil
}

func (f *fakeRoundRepo) RoundCounts(_ context.Context, year int) (int, int, error) {
	total, completed := 0, 0
	for _, r := range f.rounds {
		if r.Year != year {
			continue
		}
		total++
		if r.Status == models.RoundCompleted {
			completed++
		}
	}
	return total, completed, nil
}

// fakeGameRepo is a map-backed GameRepository.
type fakeGameRepo struct {
	games  map[int]*models.Game
	nextID int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int]*models.Game), nextID: 1}
}

func (f *fakeGameRepo) add(g *models.Game) *models.Game {
	if g.ID == 0 {
		g.ID = f.nextID
	}
	if g.ID >= f.nextID {
		f.nextID = g.ID + 1
	}
	f.games[g.ID] = g
	return g
}

func (f *fakeGameRepo) GetByID(_ context.Context, id int) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGameRepo) ListByRound(_ context.Context, roundID int) ([]*models.Game, error) {
	games := make([]*models.Game, 0)
	for _, g := range f.games {
		if g.RoundID == roundID {
			copied := *g
			games = append(games, &copied)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].StartTime.Before(games[j].StartTime) })
	return games, nil
}

func (f *fakeGameRepo) UpsertProjection(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	for _, existing := range f.games {
		if existing.SquiggleGameKey == game.SquiggleGameKey {
			game.ID = existing.ID
			f.games[existing.ID] = game
			return nil
		}
	}
	f.add(game)
	return nil
}

func (f *fakeGameRepo) UpdateScores(_ context.Context, _ repositories.SQLExecutor, gameKey string, homeScore, awayScore int, isComplete bool) error {
	for _, g := range f.games {
		if g.SquiggleGameKey == gameKey {
			g.HomeScore = homeScore
			g.AwayScore = awayScore
			g.IsComplete = isComplete
		}
	}
	return nil
}

// fakeTipRepo is a map-backed TipRepository keyed on (user_id, game_id).
type fakeTipRepo struct {
	tips   map[int]*models.Tip
	nextID int
}

func newFakeTipRepo() *fakeTipRepo {
	return &fakeTipRepo{tips: make(map[int]*models.Tip), nextID: 1}
}

func (f *fakeTipRepo) add(t *models.Tip) *models.Tip {
	if t.ID == 0 {
		t.ID = f.nextID
		f.nextID++
	} else if t.ID >= f.nextID {
		f.nextID = t.ID + 1
	}
	f.tips[t.ID] = t
	return t
}

func (f *fakeTipRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, tip *models.Tip) error {
	for _, existing := range f.tips {
		if existing.UserID == tip.UserID && existing.GameID == tip.GameID {
			existing.SelectedTeam = tip.SelectedTeam
			existing.MarginPrediction = tip.MarginPrediction
			existing.IsMarginGame = tip.IsMarginGame
			tip.ID = existing.ID
			return nil
		}
	}
	f.add(tip)
	return nil
}

func (f *fakeTipRepo) GetByID(_ context.Context, id int) (*models.Tip, error) {
	t, ok := f.tips[id]
	if !ok {
		return nil, repositories.ErrTipNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTipRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.tips[id]; !ok {
		return repositories.ErrTipNotFound
	}
	delete(f.tips, id)
	return nil
}

func (f *fakeTipRepo) ListForRound(_ context.Context, roundID int, userID *int) ([]*models.Tip, error) {
	tips := make([]*models.Tip, 0)
	for _, t := range f.tips {
		if t.RoundID != roundID {
			continue
		}
		if userID != nil && t.UserID != *userID {
			continue
		}
		copied := *t
		tips = append(tips, &copied)
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].ID < tips[j].ID })
	return tips, nil
}

func (f *fakeTipRepo) ListUserTipsForRound(ctx context.Context, userID, roundID int) ([]*models.Tip, error) {
	return f.ListForRound(ctx, roundID, &userID)
}

func (f *fakeTipRepo) ListAllUserTips(_ context.Context, userID int, _ *int) ([]*models.Tip, error) {
	tips := make([]*models.Tip, 0)
	for _, t := range f.tips {
		if t.UserID == userID {
			copied := *t
			tips = append(tips, &copied)
		}
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].ID < tips[j].ID })
	return tips, nil
}

func (f *fakeTipRepo) CountUserTipsInRound(_ context.Context, userID, roundID int) (int, error) {
	count := 0
	for _, t := range f.tips {
		if t.UserID == userID && t.RoundID == roundID {
			count++
		}
	}
	return count, nil
}

func (f *fakeTipRepo) MarkCorrectness(_ context.Context, _ repositories.SQLExecutor, gameKey, winner string) (int64, error) {
	var scored int64
	for _, t := range f.tips {
		if t.SquiggleGameKey != gameKey || t.IsCorrect != nil {
			continue
		}
		correct := t.SelectedTeam == winner
		t.IsCorrect = &correct
		scored++
	}
	return scored, nil
}

func (f *fakeTipRepo) ComputeMarginDifferences(_ context.Context, _ repositories.SQLExecutor, gameKey string, actualMargin int) (int64, error) {
	var computed int64
	for _, t := range f.tips {
		if t.SquiggleGameKey != gameKey || !t.IsMarginGame || t.MarginPrediction == nil || t.MarginDifference != nil {
			continue
		}
		diff := actualMargin - *t.MarginPrediction
		if diff < 0 {
			diff = -diff
		}
		t.MarginDifference = &diff
		computed++
	}
	return computed, nil
}

func (f *fakeTipRepo) ListMarginContenders(_ context.Context, roundID int) ([]*models.Tip, error) {
	tips := make([]*models.Tip, 0)
	for _, t := range f.tips {
		if t.RoundID != roundID || !t.IsMarginGame || t.MarginDifference == nil {
			continue
		}
		if t.IsCorrect == nil || !*t.IsCorrect {
			continue
		}
		copied := *t
		tips = append(tips, &copied)
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].ID < tips[j].ID })
	return tips, nil
}

func (f *fakeTipRepo) RoundStats(_ context.Context, roundID int) (*models.RoundTipStats, error) {
	stats := &models.RoundTipStats{}
	users := make(map[int]bool)
	games := make(map[int]bool)
	for _, t := range f.tips {
		if t.RoundID != roundID {
			continue
		}
		stats.TotalTips++
		users[t.UserID] = true
		games[t.GameID] = true
		switch {
		case t.IsCorrect == nil:
			stats.PendingTips++
		case *t.IsCorrect:
			stats.CorrectTips++
		default:
			stats.IncorrectTips++
		}
	}
	stats.UsersTipped = len(users)
	stats.GamesWithTips = len(games)
	return stats, nil
}

// fakeUserRepo is a map-backed UserRepository.
type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByName(_ context.Context, name string) (*models.User, error) {
	for _, u := range f.users {
		if u.Name == name {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUserRepo) ListByFamilyGroup(_ context.Context, familyGroupID int) ([]*models.User, error) {
	users := make([]*models.User, 0)
	for _, u := range f.users {
		if u.FamilyGroupID == familyGroupID {
			copied := *u
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Name == user.Name {
			return repositories.ErrUserNameConflict
		}
	}
	user.ID = len(f.users) + 1
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) ListFamilyGroups(_ context.Context) ([]*models.FamilyGroup, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetFamilyGroup(_ context.Context, id int) (*models.FamilyGroup, error) {
	return nil, repositories.ErrFamilyGroupNotFound
}

// fakeFinalsRepo serves FinalsConfig rows from a map.
type fakeFinalsRepo struct {
	configs map[int]*models.FinalsConfig
}

func newFakeFinalsRepo(configs ...*models.FinalsConfig) *fakeFinalsRepo {
	f := &fakeFinalsRepo{configs: make(map[int]*models.FinalsConfig)}
	for _, c := range configs {
		f.configs[c.RoundNumber] = c
	}
	return f
}

func (f *fakeFinalsRepo) GetByRoundNumber(_ context.Context, roundNumber int) (*models.FinalsConfig, error) {
	c, ok := f.configs[roundNumber]
	if !ok {
		return nil, repositories.ErrFinalsConfigNotFound
	}
	return c, nil
}

func (f *fakeFinalsRepo) List(_ context.Context) ([]*models.FinalsConfig, error) {
	configs := make([]*models.FinalsConfig, 0, len(f.configs))
	for _, c := range f.configs {
		configs = append(configs, c)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].RoundNumber < configs[j].RoundNumber })
	return configs, nil
}

// fakeSquiggleRepo holds mirror rows plus the pre-computed sweep lists the
// real queries would derive.
type fakeSquiggleRepo struct {
	games             map[string]*models.SquiggleGame
	completedUnscored []*models.SquiggleGame
	marginPending     []*models.SquiggleGame
}

func newFakeSquiggleRepo() *fakeSquiggleRepo {
	return &fakeSquiggleRepo{games: make(map[string]*models.SquiggleGame)}
}

func (f *fakeSquiggleRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, game *models.SquiggleGame) error {
	f.games[game.SquiggleGameKey] = game
	return nil
}

func (f *fakeSquiggleRepo) UpdateScores(_ context.Context, _ repositories.SQLExecutor, game *models.SquiggleGame) error {
	f.games[game.SquiggleGameKey] = game
	return nil
}

func (f *fakeSquiggleRepo) GetByKey(_ context.Context, key string) (*models.SquiggleGame, error) {
	g, ok := f.games[key]
	if !ok {
		return nil, repositories.ErrSquiggleGameNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeSquiggleRepo) ListCompletedUnscored(_ context.Context) ([]*models.SquiggleGame, error) {
	return f.completedUnscored, nil
}

func (f *fakeSquiggleRepo) ListCompletedMarginPending(_ context.Context) ([]*models.SquiggleGame, error) {
	return f.marginPending, nil
}

// fakeWinnerRepo stores winners per round keyed by user.
type fakeWinnerRepo struct {
	winners map[int]map[int]*models.RoundWinner
}

func newFakeWinnerRepo() *fakeWinnerRepo {
	return &fakeWinnerRepo{winners: make(map[int]map[int]*models.RoundWinner)}
}

func (f *fakeWinnerRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, winner *models.RoundWinner) error {
	if f.winners[winner.RoundID] == nil {
		f.winners[winner.RoundID] = make(map[int]*models.RoundWinner)
	}
	f.winners[winner.RoundID][winner.UserID] = winner
	return nil
}

func (f *fakeWinnerRepo) DeleteStale(_ context.Context, _ repositories.SQLExecutor, roundID int, keepUserIDs []int) error {
	keep := make(map[int]bool, len(keepUserIDs))
	for _, id := range keepUserIDs {
		keep[id] = true
	}
	for userID := range f.winners[roundID] {
		if !keep[userID] {
			delete(f.winners[roundID], userID)
		}
	}
	return nil
}

func (f *fakeWinnerRepo) ListByRound(_ context.Context, roundID int) ([]*models.RoundWinner, error) {
	winners := make([]*models.RoundWinner, 0)
	for _, w := range f.winners[roundID] {
		winners = append(winners, w)
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i].UserID < winners[j].UserID })
	return winners, nil
}

// fakeLadderRepo serves canned aggregation rows.
type fakeLadderRepo struct {
	tallies      []*models.UserTally
	groupTallies []*models.FamilyGroupTally
	decided      map[int][]models.DecidedTip
}

func newFakeLadderRepo(tallies ...*models.UserTally) *fakeLadderRepo {
	return &fakeLadderRepo{tallies: tallies, decided: make(map[int][]models.DecidedTip)}
}

func (f *fakeLadderRepo) UserTallies(_ context.Context, _ int) ([]*models.UserTally, error) {
	return f.tallies, nil
}

func (f *fakeLadderRepo) UserTally(_ context.Context, userID, _ int) (*models.UserTally, error) {
	for _, t := range f.tallies {
		if t.UserID == userID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeLadderRepo) FamilyGroupTallies(_ context.Context, _ int) ([]*models.FamilyGroupTally, error) {
	return f.groupTallies, nil
}

func (f *fakeLadderRepo) DecidedTips(_ context.Context, userID, _ int) ([]models.DecidedTip, error) {
	return f.decided[userID], nil
}

func (f *fakeLadderRepo) HeadToHead(_ context.Context, user1ID, user2ID, _ int) (*models.HeadToHead, error) {
	return &models.HeadToHead{}, nil
}

func (f *fakeLadderRepo) RoundPerformance(_ context.Context, _, _ int) ([]*models.RoundPerformance, error) {
	return nil, nil
}

func (f *fakeLadderRepo) TipPopularity(_ context.Context, _ int) ([]*models.TipPopularity, error) {
	return nil, nil
}
