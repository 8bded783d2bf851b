package squiggle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	gameDayTTL   = 5 * time.Minute
	offSeasonTTL = time.Hour
	teamsTTL     = 24 * time.Hour
)

type cacheEntry struct {
	fetchedAt time.Time
	ttl       time.Duration
	games     []APIGame
	teams     []APITeam
}

func (e *cacheEntry) fresh(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// CachedFetcher wraps a Fetcher with an in-memory TTL cache. Game responses
// are cached briefly on game days and longer otherwise; on upstream failure
// an expired entry is served rather than erroring out.
type CachedFetcher struct {
	upstream Fetcher
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCachedFetcher(upstream Fetcher, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[string]*cacheEntry),
	}
}

func (f *CachedFetcher) FetchGames(ctx context.Context, year int, round *int) ([]APIGame, error) {
	key := fmt.Sprintf("games_%d_all", year)
	if round != nil {
		key = fmt.Sprintf("games_%d_%d", year, *round)
	}

	f.mu.Lock()
	cached := f.entries[key]
	f.mu.Unlock()

	now := f.now()
	if cached != nil && cached.fresh(now) {
		return cached.games, nil
	}

	games, err := f.upstream.FetchGames(ctx, year, round)
	if err != nil {
		if cached != nil {
			f.logger.Warn("squiggle fetch failed, serving stale games", "key", key, "error", err)
			return cached.games, nil
		}
		return nil, err
	}

	f.mu.Lock()
	f.entries[key] = &cacheEntry{fetchedAt: now, ttl: f.gamesTTL(now), games: games}
	f.mu.Unlock()
	return games, nil
}

func (f *CachedFetcher) FetchTeams(ctx context.Context) ([]APITeam, error) {
	const key = "teams"

	f.mu.Lock()
	cached := f.entries[key]
	f.mu.Unlock()

	now := f.now()
	if cached != nil && cached.fresh(now) {
		return cached.teams, nil
	}

	teams, err := f.upstream.FetchTeams(ctx)
	if err != nil {
		if cached != nil {
			f.logger.Warn("squiggle fetch failed, serving stale teams", "error", err)
			return cached.teams, nil
		}
		return nil, err
	}

	f.mu.Lock()
	f.entries[key] = &cacheEntry{fetchedAt: now, ttl: teamsTTL, teams: teams}
	f.mu.Unlock()
	return teams, nil
}

// Clear drops all cached entries.
func (f *CachedFetcher) Clear() {
	f.mu.Lock()
	f.entries = make(map[string]*cacheEntry)
	f.mu.Unlock()
}

// Stats reports the cached keys, for the admin cache endpoint.
func (f *CachedFetcher) Stats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys
}

// Saturday and Sunday count as game days and get the short TTL.
func (f *CachedFetcher) gamesTTL(now time.Time) time.Duration {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return gameDayTTL
	default:
		return offSeasonTTL
	}
}
