package handlers

import (
	"fmt"
	"net/http"

	"gamegscore/db"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "API Perfil Gamer", "status": "online"})
}

// Hello - GET /api/ola
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mensagem": "Olá, direto do Backend Go!"})
}

// TestDB - GET /api/test-db
func TestDB(c *gin.Context) {
	if err := db.Ping(c.Request.Context(), db.DB); err != nil {
		utils.LogError("database check failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"database_status": fmt.Sprintf("Connected to %s successfully!", db.DB.Dialector.Name()),
	})
}
