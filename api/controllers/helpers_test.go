package controllers

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/api/middleware"
	"github.com/feastlyapp/feastly-backend/pkg/config"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "issuer",
		ExpirationMinutes:      60,
		RefreshTokenTTLMinutes: 120,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// asUser stamps the request context the way the auth middleware would.
func asUser(r *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(r.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return r.WithContext(ctx)
}
