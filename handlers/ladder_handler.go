package handlers

import (
	"net/http"

	"github.com/cookseyplate/tipping-system/services"
)

type LadderHandler struct {
	ladderService services.LadderService
}

func NewLadderHandler(ls services.LadderService) *LadderHandler {
	return &LadderHandler{ladderService: ls}
}

func (h *LadderHandler) GetLadder(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ladder, err := h.ladderService.Ladder(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, ladder, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.ladderService.UserRank(r.Context(), userID, year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry, "year": year}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) GetFamilyGroupStandings(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.ladderService.FamilyGroupStandings(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings, "year": year}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) GetHeadToHead(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	user1ID, err := getIDFromURL(r, "user1ID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	user2ID, err := getIDFromURL(r, "user2ID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	comparison, err := h.ladderService.HeadToHead(r.Context(), user1ID, user2ID, year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"head_to_head": comparison, "year": year}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) GetRoundPerformance(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	performance, err := h.ladderService.RoundPerformance(r.Context(), userID, year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"performance": performance, "year": year}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	streaks, err := h.ladderService.Streaks(r.Context(), userID, year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"streaks": streaks, "year": year}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) GetTipPopularity(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	popularity, err := h.ladderService.TipPopularity(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"popularity": popularity, "round_id": roundID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
