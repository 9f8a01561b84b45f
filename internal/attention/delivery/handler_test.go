package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"famsync-backend/internal/attention/domain"
	"famsync-backend/internal/attention/dto"
	"famsync-backend/internal/attention/usecase"

	"github.com/gin-gonic/gin"
)

// stubUsecase records the last call and returns canned results
type stubUsecase struct {
	usecase.AttentionUsecase

	err       error
	request   *domain.AttentionRequest
	mode      domain.AttentionMode
	lastSend  usecase.SendInput
	lastActor string
	lastMode  [2]bool
}

func (s *stubUsecase) GetMode(ctx context.Context, familyID, userID string) (domain.AttentionMode, error) {
	s.lastActor = userID
	return s.mode, s.err
}

func (s *stubUsecase) SetMode(ctx context.Context, familyID, actingUID string, enabled, allowLoud bool) (domain.AttentionMode, error) {
	s.lastActor = actingUID
	s.lastMode = [2]bool{enabled, allowLoud}
	return domain.AttentionMode{FamilyID: familyID, UserID: actingUID, Enabled: enabled, AllowLoud: allowLoud}, s.err
}

func (s *stubUsecase) SendRequest(ctx context.Context, in usecase.SendInput) (*domain.AttentionRequest, error) {
	s.lastSend = in
	if s.err != nil {
		return nil, s.err
	}
	return s.request, nil
}

func (s *stubUsecase) Ack(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error) {
	s.lastActor = actingUID
	if s.err != nil {
		return nil, s.err
	}
	return s.request, nil
}

func (s *stubUsecase) Cancel(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error) {
	s.lastActor = actingUID
	if s.err != nil {
		return nil, s.err
	}
	return s.request, nil
}

func (s *stubUsecase) GetRequest(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error) {
	s.lastActor = actingUID
	if s.err != nil {
		return nil, s.err
	}
	return s.request, nil
}

func (s *stubUsecase) GetActiveForTarget(ctx context.Context, familyID, actingUID string) (*domain.AttentionRequest, error) {
	s.lastActor = actingUID
	if s.err != nil {
		return nil, s.err
	}
	return s.request, nil
}

func setupRouter(uc usecase.AttentionUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	family := r.Group("/api/families/:familyId")
	family.Use(func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-Test-User"))
		c.Next()
	})
	NewAttentionHandler(uc).RegisterRoutes(family)
	return r
}

func doRequest(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func sentRequest() *domain.AttentionRequest {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	return &domain.AttentionRequest{
		ID:          "req-1",
		FamilyID:    "fam-1",
		SenderUID:   "alice",
		TargetUID:   "bob",
		Intensity:   domain.IntensityNormal,
		DurationSec: 30,
		Status:      domain.StatusSent,
		CreatedAt:   now,
		ExpiresAt:   now.Add(30 * time.Second),
	}
}

func TestSendRequest_Created(t *testing.T) {
	uc := &stubUsecase{request: sentRequest()}
	r := setupRouter(uc)

	w := doRequest(r, http.MethodPost, "/api/families/fam-1/attention/requests", "alice",
		`{"target_uid":"bob","intensity":"normal","duration_sec":30,"message":"come downstairs"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	in := uc.lastSend
	if in.FamilyID != "fam-1" || in.SenderUID != "alice" || in.TargetUID != "bob" {
		t.Errorf("input = %+v", in)
	}
	if in.Intensity != domain.IntensityNormal || in.DurationSec != 30 {
		t.Errorf("input = %+v", in)
	}
	if in.Message == nil || *in.Message != "come downstairs" {
		t.Errorf("message = %v", in.Message)
	}

	var got domain.AttentionRequest
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "req-1" || got.Status != domain.StatusSent {
		t.Errorf("response = %+v", got)
	}
}

func TestSendRequest_MalformedBody(t *testing.T) {
	r := setupRouter(&stubUsecase{})

	w := doRequest(r, http.MethodPost, "/api/families/fam-1/attention/requests", "alice", `{"intensity":"normal"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := decodeError(t, w).Code; code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("%w: bad duration", domain.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{domain.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{domain.ErrPolicyDenied, http.StatusUnprocessableEntity, "POLICY_DENIED"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			r := setupRouter(&stubUsecase{err: tt.err})

			w := doRequest(r, http.MethodPost, "/api/families/fam-1/attention/requests/req-1/ack", "bob", "")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.Error != "internal server error" {
				t.Errorf("internal error leaked: %q", resp.Error)
			}
		})
	}
}

func TestAckAndCancel_PassActingUser(t *testing.T) {
	uc := &stubUsecase{request: sentRequest()}
	r := setupRouter(uc)

	if w := doRequest(r, http.MethodPost, "/api/families/fam-1/attention/requests/req-1/ack", "bob", ""); w.Code != http.StatusOK {
		t.Fatalf("ack status = %d", w.Code)
	}
	if uc.lastActor != "bob" {
		t.Errorf("ack actor = %q", uc.lastActor)
	}

	if w := doRequest(r, http.MethodPost, "/api/families/fam-1/attention/requests/req-1/cancel", "alice", ""); w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}
	if uc.lastActor != "alice" {
		t.Errorf("cancel actor = %q", uc.lastActor)
	}
}

func TestGetActiveRequest_NotShadowedByRequestID(t *testing.T) {
	uc := &stubUsecase{err: domain.ErrNotFound}
	r := setupRouter(uc)

	w := doRequest(r, http.MethodGet, "/api/families/fam-1/attention/requests/active", "bob", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if uc.lastActor != "bob" {
		t.Errorf("actor = %q", uc.lastActor)
	}
}

func TestSetMode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"both flags", `{"enabled":true,"allow_loud":false}`, http.StatusOK},
		{"missing allow_loud", `{"enabled":true}`, http.StatusBadRequest},
		{"string boolean", `{"enabled":"true","allow_loud":false}`, http.StatusBadRequest},
		{"numeric boolean", `{"enabled":1,"allow_loud":0}`, http.StatusBadRequest},
		{"not json", `enabled=true`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUsecase{}
			r := setupRouter(uc)

			w := doRequest(r, http.MethodPut, "/api/families/fam-1/attention/mode", "bob", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && uc.lastMode != [2]bool{true, false} {
				t.Errorf("mode = %v", uc.lastMode)
			}
		})
	}
}

func TestGetMode(t *testing.T) {
	uc := &stubUsecase{mode: domain.DefaultMode("fam-1", "bob")}
	r := setupRouter(uc)

	w := doRequest(r, http.MethodGet, "/api/families/fam-1/attention/mode", "bob", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got domain.AttentionMode
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Enabled || got.AllowLoud {
		t.Errorf("default mode = %+v, want disabled", got)
	}
}
