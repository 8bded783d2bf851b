package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/services"
)

type TipHandler struct {
	tipService     services.TipService
	scoringService services.ScoringService
}

func NewTipHandler(ts services.TipService, ss services.ScoringService) *TipHandler {
	return &TipHandler{
		tipService:     ts,
		scoringService: ss,
	}
}

type submitTipsInput struct {
	ActingUserID int                    `json:"acting_user_id"`
	UserID       int                    `json:"user_id"`
	Tips         []models.TipSubmission `json:"tips"`
}

func (h *TipHandler) SubmitTips(w http.ResponseWriter, r *http.Request) {
	var input submitTipsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ActingUserID == 0 {
		input.ActingUserID = input.UserID
	}

	result, err := h.tipService.SubmitTips(r.Context(), input.ActingUserID, input.UserID, input.Tips)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) GetUserTipsForRound(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tips, err := h.tipService.ListUserTipsForRound(r.Context(), userID, roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tips": tips}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) GetUserTips(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tips, err := h.tipService.ListAllUserTips(r.Context(), userID, year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tips": tips}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) GetRoundTips(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tips, err := h.tipService.ListTipsForRound(r.Context(), roundID, nil)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tips": tips}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) DeleteTip(w http.ResponseWriter, r *http.Request) {
	tipID, err := getIDFromURL(r, "tipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actingUserID, err := queryInt(r, "acting_user_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if actingUserID == nil {
		badRequestResponse(w, r, errMissingActingUser)
		return
	}

	if err := h.tipService.DeleteTip(r.Context(), *actingUserID, tipID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": true, "tip_id": tipID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateCorrectness rescoring entry point for one game, keyed by the
// external game key.
func (h *TipHandler) UpdateCorrectness(w http.ResponseWriter, r *http.Request) {
	gameKey := chi.URLParam(r, "gameKey")
	if gameKey == "" {
		badRequestResponse(w, r, errMissingGameKey)
		return
	}

	scored, err := h.scoringService.ScoreGame(r.Context(), gameKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game_key": gameKey, "tips_scored": scored}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) GetFinalsConfig(w http.ResponseWriter, r *http.Request) {
	roundNumber, err := getIDFromURL(r, "roundNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cfg, err := h.scoringService.FinalsConfig(r.Context(), roundNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"finals_config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) GetMarginGames(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.scoringService.MarginGames(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round_id": roundID, "margin_games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) CalculateMarginWinner(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	winners, err := h.scoringService.RecalculateMarginWinners(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round_id": roundID, "winners": winners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TipHandler) GetRoundWinners(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	winners, err := h.scoringService.ListRoundWinners(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round_id": roundID, "winners": winners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
