// Package squiggle talks to the public Squiggle AFL API and shapes its
// responses for ingestion.
package squiggle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.squiggle.com.au"

	userAgent      = "Cooksey-Plate-2026/1.0"
	requestTimeout = 10 * time.Second
)

// APIGame mirrors one entry of the games response. Score fields may be null
// upstream for unplayed games; json leaves them at zero.
type APIGame struct {
	ID           int     `json:"id"`
	Round        int     `json:"round"`
	Year         int     `json:"year"`
	Complete     int     `json:"complete"`
	Date         string  `json:"date"`
	Timezone     string  `json:"tz"`
	LocalTime    *string `json:"localtime"`
	HomeTeam     string  `json:"hteam"`
	AwayTeam     string  `json:"ateam"`
	HomeScore    int     `json:"hscore"`
	AwayScore    int     `json:"ascore"`
	HomeGoals    int     `json:"hgoals"`
	AwayGoals    int     `json:"agoals"`
	HomeBehinds  int     `json:"hbehinds"`
	AwayBehinds  int     `json:"abehinds"`
	HomeMargin   int     `json:"hmargin"`
	Venue        string  `json:"venue"`
	Winner       *string `json:"winner"`
	IsFinal      int     `json:"is_final"`
	IsGrandFinal int     `json:"is_grand_final"`
}

// StartTime resolves the game's scheduled start from the date and tz offset.
func (g APIGame) StartTime() (time.Time, error) {
	tz := g.Timezone
	if tz == "" {
		tz = "+10:00"
	}
	t, err := time.Parse("2006-01-02 15:04:05 -07:00", g.Date+" "+tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse game date %q: %w", g.Date, err)
	}
	return t, nil
}

type APITeam struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Abbrev          string  `json:"abbrev"`
	Logo            *string `json:"logo"`
	PrimaryColour   *string `json:"primarycolour"`
	SecondaryColour *string `json:"secondarycolour"`
}

type gamesResponse struct {
	Games []APIGame `json:"games"`
}

type teamsResponse struct {
	Teams []APITeam `json:"teams"`
}

// Fetcher is the upstream surface the sync layer consumes. The caching
// wrapper and the raw client both satisfy it.
type Fetcher interface {
	FetchGames(ctx context.Context, year int, round *int) ([]APIGame, error)
	FetchTeams(ctx context.Context) ([]APITeam, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

func (c *Client) FetchGames(ctx context.Context, year int, round *int) ([]APIGame, error) {
	url := fmt.Sprintf("%s/?q=games;year=%d;format=json", c.baseURL, year)
	if round != nil {
		url = fmt.Sprintf("%s;round=%d", url, *round)
	}

	var resp gamesResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fetch games for %d: %w", year, err)
	}
	c.logger.Info("fetched games from squiggle", "year", year, "count", len(resp.Games))
	return resp.Games, nil
}

func (c *Client) FetchTeams(ctx context.Context) ([]APITeam, error) {
	url := fmt.Sprintf("%s/?q=teams;format=json", c.baseURL)

	var resp teamsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	c.logger.Info("fetched teams from squiggle", "count", len(resp.Teams))
	return resp.Teams, nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
