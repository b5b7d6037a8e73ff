package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Pinger はバッキングストアの疎通確認を行う。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health はバッキングストアへの疎通を確認し、JSONで状態を返す。
// GET /health
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
