package squiggle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return client, server
}

func TestClient_FetchGames(t *testing.T) {
	var gotURL string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		assert.Contains(t, r.Header.Get("User-Agent"), "Cooksey-Plate")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"games":[
			{"id":1,"round":13,"year":2026,"complete":100,"date":"2026-06-13 19:20:00","tz":"+10:00",
			 "hteam":"Carlton","ateam":"Collingwood","hscore":95,"ascore":80,"hmargin":15,
			 "venue":"M.C.G.","winner":"Carlton","is_final":0,"is_grand_final":0}
		]}`)
	})
	defer server.Close()

	games, err := client.FetchGames(context.Background(), 2026, nil)
	require.NoError(t, err)
	assert.Equal(t, "/?q=games;year=2026;format=json", gotURL)

	require.Len(t, games, 1)
	g := games[0]
	assert.Equal(t, 13, g.Round)
	assert.Equal(t, 100, g.Complete)
	assert.Equal(t, "Carlton", g.HomeTeam)
	require.NotNil(t, g.Winner)
	assert.Equal(t, "Carlton", *g.Winner)
}

func TestClient_FetchGamesWithRound(t *testing.T) {
	var gotURL string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		io.WriteString(w, `{"games":[]}`)
	})
	defer server.Close()

	round := 7
	_, err := client.FetchGames(context.Background(), 2026, &round)
	require.NoError(t, err)
	assert.Equal(t, "/?q=games;year=2026;format=json;round=7", gotURL)
}

func TestClient_FetchTeams(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/?q=teams;format=json", r.URL.String())
		io.WriteString(w, `{"teams":[
			{"id":1,"name":"Carlton","abbrev":"CAR","logo":"/teams/carlton.png"},
			{"id":2,"name":"Collingwood","abbrev":"COL"}
		]}`)
	})
	defer server.Close()

	teams, err := client.FetchTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "CAR", teams[0].Abbrev)
	require.NotNil(t, teams[0].Logo)
	assert.Nil(t, teams[1].Logo)
}

func TestClient_NonOKStatus(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	defer server.Close()

	_, err := client.FetchGames(context.Background(), 2026, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAPIGame_StartTime(t *testing.T) {
	g := APIGame{Date: "2026-06-13 19:20:00", Timezone: "+10:00"}
	start, err := g.StartTime()
	require.NoError(t, err)

	want := time.Date(2026, 6, 13, 19, 20, 0, 0, time.FixedZone("", 10*60*60))
	assert.True(t, start.Equal(want))

	// Missing tz falls back to AEST.
	g.Timezone = ""
	start, err = g.StartTime()
	require.NoError(t, err)
	assert.True(t, start.Equal(want))

	g.Date = "not a date"
	_, err = g.StartTime()
	assert.Error(t, err)
}
