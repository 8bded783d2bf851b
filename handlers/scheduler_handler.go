package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cookseyplate/tipping-system/services"
)

// SchedulerHandler is the admin control surface over the background jobs.
// Every manual trigger runs the same job logic the timers use.
type SchedulerHandler struct {
	schedulerService services.SchedulerService
}

func NewSchedulerHandler(ss services.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{schedulerService: ss}
}

func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	response := jsonResponse{
		"enabled": h.schedulerService.Enabled(),
		"jobs":    h.schedulerService.Status(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchedulerHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		badRequestResponse(w, r, errMissingJobID)
		return
	}

	if err := h.schedulerService.TriggerJob(r.Context(), jobID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"job_id": jobID, "triggered": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchedulerHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.schedulerService.SetEnabled(true)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"enabled": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchedulerHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.schedulerService.SetEnabled(false)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"enabled": false}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchedulerHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	if err := h.schedulerService.RunAll(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"ran_all": true, "jobs": h.schedulerService.Status()}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
