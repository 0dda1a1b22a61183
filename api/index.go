package handler

import (
	"context"
	"net/http"

	"github.com/arnavshah/manifest-api-go/internal/app"
	"github.com/arnavshah/manifest-api-go/internal/config"
	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

var (
	serve   http.Handler
	initErr error
)

func init() {
	gin.SetMode(gin.ReleaseMode)

	cfg := config.Load()
	log := logger.NewLogger(cfg.Debug)
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		initErr = err
		log.Error("Failed to start manifest API", "error", err)
		return
	}
	serve = a.RefreshingHandler(cfg.RefreshInterval)
}

// Handler is the entry point for Vercel Go Runtime. There is no background
// loop between invocations, so a stale cache is refreshed on the way in.
func Handler(w http.ResponseWriter, req *http.Request) {
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	serve.ServeHTTP(w, req)
}
