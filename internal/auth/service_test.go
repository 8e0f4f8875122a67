package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/internal/users"
	pkgAuth "github.com/feastlyapp/feastly-backend/pkg/auth"
	"github.com/feastlyapp/feastly-backend/pkg/config"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "feastly-test",
	ExpirationMinutes: 15,
}

// fast argon params keep the test suite snappy
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     8,
	ArgonKeyLen:      16,
}

type fakeUserRepo struct {
	byEmail   map[string]*models.User
	createErr error
	created   []users.CreateUserDTO
}

func (f *fakeUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, dto)
	return dto.ToModel(), nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeSessionManager struct {
	sessions map[string]string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: map[string]string{}}
}

func (f *fakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.sessions[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", errors.New("invalid refresh token")
	}
	delete(f.sessions, oldAccessID)
	newID := oldAccessID + "-next"
	token := "refresh-" + newID
	f.sessions[newID] = token
	return newID, token, nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(f.sessions, accessID)
	return nil
}

func seedUser(t *testing.T, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	user := users.CreateUserDTO{Email: email, Name: "Test User", Role: role}.ToModel()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user.PasswordHash = hash
	return user
}

func newTestService(t *testing.T, repo *fakeUserRepo, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:          repo,
		SessionManager:    sessions,
		JWTConfig:         testJWTConfig,
		PasswordConfig:    testPasswordConfig,
		IsUniqueViolation: func(err error) bool { return strings.Contains(err.Error(), "duplicate") },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "demo@feastly.app", "hunter2secret", enums.UserRoleCustomer)
	repo := &fakeUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := newTestService(t, repo, newFakeSessionManager())

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Demo@Feastly.app", Password: "hunter2secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "demo@feastly.app", "hunter2secret", enums.UserRoleCustomer)
	repo := &fakeUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := newTestService(t, repo, newFakeSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeUserRepo{byEmail: map[string]*models.User{}}, newFakeSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "missing@feastly.app", Password: "whatever"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	// unknown user and wrong password must be indistinguishable
	if typed := pkgerrors.As(err); typed.Message() != invalidCredentialsMessage {
		t.Fatalf("credential probe leak: %v", err)
	}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc := newTestService(t, repo, newFakeSessionManager())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New@Feastly.app",
		Name:     "New Customer",
		Password: "longenoughpw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.created))
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", resp.User.Role)
	}
	if resp.User.Email != "new@feastly.app" {
		t.Fatalf("expected normalized email, got %s", resp.User.Email)
	}
	if repo.created[0].PasswordHash == "longenoughpw" || repo.created[0].PasswordHash == "" {
		t.Fatal("password stored without hashing")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{createErr: errors.New(`duplicate key value violates unique constraint "idx_users_email"`)}
	svc := newTestService(t, repo, newFakeSessionManager())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@feastly.app",
		Name:     "Someone",
		Password: "longenoughpw",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "demo@feastly.app", "hunter2secret", enums.UserRoleCustomer)
	repo := &fakeUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	sessions := newFakeSessionManager()
	svc := newTestService(t, repo, sessions)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "hunter2secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == login.AccessToken || pair.RefreshToken == login.RefreshToken {
		t.Fatal("expected rotated credentials")
	}

	// old refresh token is now dead
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeUserRepo{}, newFakeSessionManager())

	forged, err := pkgAuth.MintAccessToken(config.JWTConfig{
		Secret:            "other-secret",
		Issuer:            testJWTConfig.Issuer,
		ExpirationMinutes: 15,
	}, time.Now().UTC(), pkgAuth.AccessTokenPayload{Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint forged token: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: forged, RefreshToken: "anything"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionManager()
	sessions.sessions["jti-1"] = "refresh-jti-1"
	svc := newTestService(t, &fakeUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.sessions["jti-1"]; ok {
		t.Fatal("session not revoked")
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty access id")
	}
}
