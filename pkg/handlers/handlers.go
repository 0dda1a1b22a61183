package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/manifest-api-go/internal/config"
	"github.com/arnavshah/manifest-api-go/pkg/auth"
	"github.com/arnavshah/manifest-api-go/pkg/coordinator"
	"github.com/arnavshah/manifest-api-go/pkg/database"
	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SiteWriter is implemented by stores that own site snapshots
type SiteWriter interface {
	UpsertSite(ctx context.Context, site models.Site) (models.Site, error)
}

// Handler contains dependencies for the route handlers
type Handler struct {
	DB     *gorm.DB
	Coord  *coordinator.Coordinator
	Sites  SiteWriter
	Log    logger.Logger
	Config *config.Config
}

// Index returns the service banner
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Offshore Manifest API",
		"version": h.Config.AppVersion,
	})
}

// Health reports cache freshness
func (h *Handler) Health(c *gin.Context) {
	snap := h.Coord.Snapshot()
	status := "ok"
	if snap.RefreshedAt.IsZero() {
		status = "starting"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"refreshed_at": snap.RefreshedAt,
		"trips":        len(snap.Trips),
		"sites":        len(snap.Sites),
	})
}

// Login handles operator login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	op, err := auth.Authenticate(h.DB, req.Username, req.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
		return
	}

	token, err := auth.CreateToken(*op)
	if err != nil {
		h.Log.Error("Could not create token", "username", op.Username, "error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not create token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  token,
		"token_type":    "bearer",
		"is_admin":      op.IsAdmin,
		"home_location": op.HomeLocation,
	})
}

// CreateOperator adds an operator account
func (h *Handler) CreateOperator(c *gin.Context) {
	var req struct {
		Username     string `json:"username" binding:"required"`
		Password     string `json:"password" binding:"required,min=8"`
		IsAdmin      bool   `json:"is_admin"`
		HomeLocation string `json:"home_location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not hash password")
		return
	}

	op := database.Operator{
		Username:     req.Username,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
		HomeLocation: req.HomeLocation,
	}
	if err := h.DB.Create(&op).Error; err != nil {
		respondError(c, http.StatusConflict, "conflict", "Username already exists")
		return
	}
	c.JSON(http.StatusCreated, op)
}

// GenerateKey issues a board key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "name is required")
		return
	}

	key := auth.GenerateHMACKey(req.Name)
	apiKey := database.NewAPIKey(key, req.Name, req.RateLimit)

	if err := h.DB.Create(&apiKey).Error; err != nil {
		respondError(c, http.StatusConflict, "conflict", "A key with this name already exists")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all board keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not list keys")
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes a board key
func (h *Handler) RevokeKey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid key id")
		return
	}
	res := h.DB.Delete(&database.APIKey{}, id)
	if res.Error != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not delete key")
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "not_found", "key not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the daily request limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "rate_limit is required")
			return
		}
	}

	if req.RateLimit <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid rate limit")
		return
	}

	res := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit)
	if res.Error != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not update key limit")
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "not_found", "key not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns the last 30 days of usage for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not fetch usage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// RecordUsage counts a board request against its key with a single upsert
func (h *Handler) RecordUsage(c *gin.Context, pobQueries int) {
	apiKeyRaw, exists := c.Get(apiKeyKey)
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"pob_queries":   gorm.Expr("pob_queries + ?", pobQueries),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		POBQueries:   pobQueries,
	}).Error
	if err != nil {
		h.Log.Warn("Could not record board usage", "key_id", apiKey.ID, "error", err)
	}
}
