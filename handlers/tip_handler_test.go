package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/services"
)

// stubTipService returns canned results so handler tests exercise only the
// HTTP surface.
type stubTipService struct {
	submitResult *services.BatchSubmissionResult
	submitErr    error
	deleteErr    error

	gotActingUserID int
	gotTargetUserID int
}

func (s *stubTipService) SubmitTips(_ context.Context, actingUserID, targetUserID int, _ []models.TipSubmission) (*services.BatchSubmissionResult, error) {
	s.gotActingUserID = actingUserID
	s.gotTargetUserID = targetUserID
	return s.submitResult, s.submitErr
}

func (s *stubTipService) DeleteTip(_ context.Context, actingUserID, _ int) error {
	s.gotActingUserID = actingUserID
	return s.deleteErr
}

func (s *stubTipService) GetTip(_ context.Context, _ int) (*models.Tip, error) { return nil, nil }

func (s *stubTipService) ListTipsForRound(_ context.Context, _ int, _ *int) ([]*models.Tip, error) {
	return nil, nil
}

func (s *stubTipService) ListUserTipsForRound(_ context.Context, _, _ int) ([]*models.Tip, error) {
	return nil, nil
}

func (s *stubTipService) ListAllUserTips(_ context.Context, _ int, _ *int) ([]*models.Tip, error) {
	return nil, nil
}

func (s *stubTipService) GetRoundTipStats(_ context.Context, _ int) (*models.RoundTipStats, error) {
	return nil, nil
}

func newTipRouter(stub *stubTipService) *chi.Mux {
	h := NewTipHandler(stub, nil)
	router := chi.NewRouter()
	router.Post("/api/tips", h.SubmitTips)
	router.Delete("/api/tips/{tipID}", h.DeleteTip)
	return router
}

func TestSubmitTips_ActingUserDefaultsToTarget(t *testing.T) {
	stub := &stubTipService{submitResult: &services.BatchSubmissionResult{}}
	router := newTipRouter(stub)

	body := `{"user_id":7,"tips":[{"game_id":1,"selected_team":"Carlton"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tips", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, stub.gotActingUserID)
	assert.Equal(t, 7, stub.gotTargetUserID)
}

func TestSubmitTips_ForbiddenBatch(t *testing.T) {
	stub := &stubTipService{submitErr: services.ErrForbiddenOperation}
	router := newTipRouter(stub)

	body := `{"acting_user_id":3,"user_id":7,"tips":[{"game_id":1,"selected_team":"Carlton"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tips", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 3, stub.gotActingUserID)
}

func TestSubmitTips_RejectsUnknownFields(t *testing.T) {
	router := newTipRouter(&stubTipService{})

	body := `{"user_id":7,"picks":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tips", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTip_LockedRound(t *testing.T) {
	stub := &stubTipService{deleteErr: services.ErrTipLocked}
	router := newTipRouter(stub)

	req := httptest.NewRequest(http.MethodDelete, "/api/tips/12?acting_user_id=7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusLocked, w.Code, "deleting past lockout reports 423")
}

func TestDeleteTip_RequiresActingUser(t *testing.T) {
	router := newTipRouter(&stubTipService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/tips/12", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "acting_user_id")
}

func TestDeleteTip_Success(t *testing.T) {
	stub := &stubTipService{}
	router := newTipRouter(stub)

	req := httptest.NewRequest(http.MethodDelete, "/api/tips/12?acting_user_id=7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)
	assert.Equal(t, 7, stub.gotActingUserID)
}
