package handlers

import (
	"net/http"

	"gamegscore/cache"
	"gamegscore/db"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

// CreateTables - GET /api/create-tables
func CreateTables(c *gin.Context) {
	if err := db.CreateTables(db.DB); err != nil {
		utils.LogError("create tables failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tables"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tables created successfully!"})
}

// ResetDatabase - GET /api/DANGEROUS-RESET-DB, drops every review and user
func ResetDatabase(c *gin.Context) {
	if !AllowReset {
		c.JSON(http.StatusForbidden, gin.H{"error": "Database reset is disabled"})
		return
	}

	if err := db.ResetDatabase(db.DB); err != nil {
		utils.LogError("database reset failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset database"})
		return
	}

	if err := cache.InvalidateAllReviews(c.Request.Context()); err != nil {
		utils.LogWarn("cache flush after reset failed", map[string]interface{}{"error": err.Error()})
	}

	utils.LogWarn("database reset", map[string]interface{}{"ip": c.ClientIP()})
	c.JSON(http.StatusOK, gin.H{"message": "Database reset successfully!"})
}
