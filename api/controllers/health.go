package controllers

import (
	"context"
	"net/http"

	"github.com/feastlyapp/feastly-backend/api/responses"
	"github.com/feastlyapp/feastly-backend/pkg/config"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feastly-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing store answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache Pinger) http.HandlerFunc {
	deps := []struct {
		name string
		dep  Pinger
	}{
		{"database", database},
		{"redis", cache},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feastly-Env", cfg.App.Env)
		for _, d := range deps {
			if d.dep == nil {
				continue
			}
			if err := d.dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, d.name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
