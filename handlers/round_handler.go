package handlers

import (
	"net/http"
	"time"

	"github.com/cookseyplate/tipping-system/services"
)

type RoundHandler struct {
	roundService services.RoundService
	tipService   services.TipService
}

func NewRoundHandler(rs services.RoundService, ts services.TipService) *RoundHandler {
	return &RoundHandler{
		roundService: rs,
		tipService:   ts,
	}
}

func (h *RoundHandler) GetCurrentRound(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.CurrentRound(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rounds, err := h.roundService.ListRounds(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds, "year": year}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) GetRoundGames(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.roundService.ListRoundGames(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) GetRoundTips(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := queryInt(r, "user_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tips, err := h.tipService.ListTipsForRound(r.Context(), roundID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tips": tips}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) GetRoundStats(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.tipService.GetRoundTipStats(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) RefreshRoundStatus(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.roundService.RefreshRoundStatus(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round_id": roundID, "status": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) IsRoundOpen(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	open, lockout, err := h.roundService.IsRoundOpen(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"round_id": roundID, "is_open": open, "lockout_time": lockout}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type overrideLockoutInput struct {
	LockoutTime *time.Time `json:"lockout_time"`
}

// OverrideLockout replaces a round's lockout time, used to simulate lockout
// scenarios in test seasons.
func (h *RoundHandler) OverrideLockout(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input overrideLockoutInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.roundService.OverrideLockoutTime(r.Context(), roundID, input.LockoutTime); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"round_id": roundID, "lockout_time": input.LockoutTime}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
