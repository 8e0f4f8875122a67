package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feastlyapp/feastly-backend/internal/auth"
	"github.com/feastlyapp/feastly-backend/internal/users"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
)

type stubAuthService struct {
	loginResp    *auth.LoginResponse
	registerResp *auth.LoginResponse
	refreshResp  *auth.TokenPair
	err          error

	loggedOutID string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginResp, s.err
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return s.registerResp, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return s.refreshResp, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOutID = accessID
	return s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestRegisterReturnsTokensAndUser(t *testing.T) {
	svc := &stubAuthService{
		registerResp: &auth.LoginResponse{
			TokenPair: auth.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"},
			User:      &users.UserDTO{Email: "new@example.com"},
		},
	}
	resp := postJSON(t, Register(svc, nil), "/api/v1/auth/register",
		`{"email":"new@example.com","name":"New Diner","password":"longenough1"}`)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access-token" {
		t.Fatalf("expected access token in payload got %+v", envelope.Data)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "new@example.com" {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	resp := postJSON(t, Register(&stubAuthService{}, nil), "/api/v1/auth/register",
		`{"email":"new@example.com","name":"New Diner","password":"short"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", envelope.Error.Code)
	}
}

func TestLoginPropagatesServiceError(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	resp := postJSON(t, Login(svc, nil), "/api/v1/auth/login",
		`{"email":"diner@example.com","password":"wrong-password"}`)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRefreshReturnsNewPair(t *testing.T) {
	svc := &stubAuthService{refreshResp: &auth.TokenPair{AccessToken: "next-access", RefreshToken: "next-refresh"}}
	resp := postJSON(t, RefreshToken(svc, nil), "/api/v1/auth/refresh",
		`{"access_token":"stale","refresh_token":"current"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "next-access" {
		t.Fatalf("expected rotated pair got %+v", envelope.Data)
	}
}

func TestLogoutRequiresBearerToken(t *testing.T) {
	svc := &stubAuthService{}
	handler := Logout(svc, testJWTConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer got %d", resp.Code)
	}
	if svc.loggedOutID != "" {
		t.Fatalf("expected no logout call, got %q", svc.loggedOutID)
	}
}
