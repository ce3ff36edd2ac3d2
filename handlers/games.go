package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"gamegscore/cache"
	"gamegscore/catalog"
	"gamegscore/models"
	"gamegscore/monitoring"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

// GetGameByID - GET /api/game/:id
func GetGameByID(c *gin.Context) {
	gameID, err := parseID(c.Param("id"), false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}
	if catalog.Client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Game catalog is not configured"})
		return
	}

	ctx := c.Request.Context()

	var cached models.GameDetails
	if err := cache.GetCatalogGame(ctx, gameID, &cached); err == nil {
		utils.Log.Debug(fmt.Sprintf("Cache HIT: game %d", gameID))
		monitoring.CatalogRequests.WithLabelValues("game", "cache").Inc()
		c.JSON(http.StatusOK, cached)
		return
	}

	game, err := catalog.Client.Game(ctx, gameID)
	if errors.Is(err, catalog.ErrGameNotFound) {
		monitoring.CatalogRequests.WithLabelValues("game", "upstream").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		monitoring.CatalogRequests.WithLabelValues("game", "error").Inc()
		utils.LogError("catalog lookup failed", map[string]interface{}{"game_id": gameID, "error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load game details"})
		return
	}
	monitoring.CatalogRequests.WithLabelValues("game", "upstream").Inc()

	if err := cache.SetCatalogGame(ctx, gameID, game); err != nil && !errors.Is(err, cache.ErrRedisUnavailable) {
		utils.LogWarn("caching game failed", map[string]interface{}{"game_id": gameID, "error": err.Error()})
	}

	c.JSON(http.StatusOK, game)
}
