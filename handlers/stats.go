package handlers

import (
	"net/http"
	"time"

	"gamegscore/concurrent"
	"gamegscore/db"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

// GetProfileStats - GET /api/stats, aggregates over the owner's reviews
func GetProfileStats(c *gin.Context) {
	ownerID, ok := ownerFromQuery(c)
	if !ok {
		return
	}

	start := time.Now()
	stats, err := concurrent.CalculateProfileStats(c.Request.Context(), db.DB, ownerID)
	if err != nil {
		utils.LogError("profile stats failed", map[string]interface{}{"owner_id": ownerID, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statistics":       stats,
		"calculation_time": time.Since(start).String(),
	})
}
