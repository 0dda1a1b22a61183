package handlers

import (
	"net/http"

	"github.com/arnavshah/manifest-api-go/pkg/database"
	"github.com/gin-gonic/gin"
)

// GetMyUsage returns usage stats for the calling board key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get(apiKeyKey)
	if !exists {
		respondError(c, http.StatusInternalServerError, "internal_error", "API Key context missing")
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", apiKey.ID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not fetch usage details")
		return
	}

	var totalRequests, totalQueries int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalQueries += int64(u.POBQueries)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":    totalRequests,
			"pob_queries": totalQueries,
		},
	})
}
