package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route onto a fresh engine. gatherer backs /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(h.Log), gin.Recovery())
	r.Use(cors.New(corsConfig(h.Config.CORSOrigins)))

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", "route not found")
	})

	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.POST("/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/sites", h.ListSites)
		api.GET("/passengers", h.ListPassengers)
		api.GET("/trips", h.ListTrips)
		api.POST("/validate/trip", h.ValidateTrip)
		api.GET("/sites/:site/pob", h.SitePOB)
		api.GET("/sites/:site/manifest", h.SiteManifest)
		api.GET("/sites/:site/weeks", h.SiteWeeks)
		api.POST("/refresh", h.Refresh)

		edit := api.Group("")
		edit.Use(h.AdminOnly())
		edit.POST("/trips", h.CreateTrip)
		edit.PUT("/trips/:id", h.UpdateTrip)
		edit.DELETE("/trips/:id", h.DeleteTrip)
		edit.POST("/trips/:id/reorder", h.ReorderTrip)
		edit.POST("/trips/:id/move", h.MoveTrip)
		edit.POST("/passengers", h.CreatePassenger)
		edit.PUT("/sites/:site/pob", h.UpdateSitePOB)
	}

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware(), h.AdminOnly())
	{
		admin.POST("/operators", h.CreateOperator)
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	board := r.Group("/board")
	board.Use(h.BoardKeyMiddleware())
	{
		board.GET("/sites/:site/pob", h.BoardPOB)
		board.GET("/usage", h.GetMyUsage)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
