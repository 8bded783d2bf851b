package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cookseyplate/tipping-system/handlers"
)

// SetupRoutes wires the full API surface onto the router.
func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	roundHandler *handlers.RoundHandler,
	tipHandler *handlers.TipHandler,
	ladderHandler *handlers.LadderHandler,
	userHandler *handlers.UserHandler,
	syncHandler *handlers.SyncHandler,
	schedulerHandler *handlers.SchedulerHandler,
	logHandler *handlers.LogHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api", func(api chi.Router) {
		api.Route("/rounds", func(r chi.Router) {
			r.Get("/current/{year}", roundHandler.GetCurrentRound)
			r.Get("/{year}", roundHandler.ListRounds)
			r.Get("/{roundID}/games", roundHandler.GetRoundGames)
			r.Get("/{roundID}/tips", roundHandler.GetRoundTips)
			r.Get("/{roundID}/stats", roundHandler.GetRoundStats)
			r.Get("/{roundID}/is-open", roundHandler.IsRoundOpen)
			r.Post("/{roundID}/update-status", roundHandler.RefreshRoundStatus)
			r.Post("/{roundID}/lockout", roundHandler.OverrideLockout)
		})

		api.Route("/tips", func(r chi.Router) {
			r.Post("/", tipHandler.SubmitTips)
			r.Get("/user/{userID}/round/{roundID}", tipHandler.GetUserTipsForRound)
			r.Get("/user/{userID}", tipHandler.GetUserTips)
			r.Get("/round/{roundID}", tipHandler.GetRoundTips)
			r.Get("/round/{roundID}/winners", tipHandler.GetRoundWinners)
			r.Post("/round/{roundID}/calculate-margin-winner", tipHandler.CalculateMarginWinner)
			r.Get("/finals-config/{roundNumber}", tipHandler.GetFinalsConfig)
			r.Get("/round/{roundID}/margin-games", tipHandler.GetMarginGames)
			r.Post("/game/{gameKey}/update-correctness", tipHandler.UpdateCorrectness)
			r.Delete("/{tipID}", tipHandler.DeleteTip)
		})

		api.Route("/ladder", func(r chi.Router) {
			r.Get("/round/{roundID}/popularity", ladderHandler.GetTipPopularity)
			r.Get("/{year}", ladderHandler.GetLadder)
			r.Get("/{year}/family-groups", ladderHandler.GetFamilyGroupStandings)
			r.Get("/{year}/head-to-head/{user1ID}/{user2ID}", ladderHandler.GetHeadToHead)
			r.Get("/{year}/user/{userID}", ladderHandler.GetUserRank)
			r.Get("/{year}/user/{userID}/performance", ladderHandler.GetRoundPerformance)
			r.Get("/{year}/user/{userID}/streaks", ladderHandler.GetStreaks)
		})

		api.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Post("/", userHandler.CreateUser)
			r.Get("/name/{name}", userHandler.GetUserByName)
			r.Get("/{userID}", userHandler.GetUser)
			r.Put("/{userID}", userHandler.UpdateUser)
			r.Get("/{userID}/can-tip-for", userHandler.GetTippableUsers)
			r.Get("/{userID}/stats", userHandler.GetUserStats)
		})

		api.Route("/family-groups", func(r chi.Router) {
			r.Get("/", userHandler.ListFamilyGroups)
			r.Get("/{groupID}", userHandler.GetFamilyGroup)
		})

		api.Route("/squiggle", func(r chi.Router) {
			r.Get("/teams", syncHandler.ListTeams)
			r.Post("/update/{year}", syncHandler.SyncGames)
			r.Post("/live-scores/{year}", syncHandler.UpdateLiveScores)
			r.Post("/update-teams", syncHandler.SyncTeams)
			r.Get("/cache/stats", syncHandler.CacheStats)
			r.Delete("/cache", syncHandler.ClearCache)
		})

		api.Route("/scheduler", func(r chi.Router) {
			r.Get("/status", schedulerHandler.Status)
			r.Post("/trigger/{jobID}", schedulerHandler.TriggerJob)
			r.Post("/enable", schedulerHandler.Enable)
			r.Post("/disable", schedulerHandler.Disable)
			r.Post("/sync-all", schedulerHandler.RunAll)
		})

		api.Route("/logs", func(r chi.Router) {
			r.Get("/sync", logHandler.ListSyncLogs)
		})
	})

	router.Get("/ws/rounds/{roundID}", webSocketHandler.ServeRound)
}
