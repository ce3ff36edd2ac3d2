package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gamegscore/cache"
	"gamegscore/catalog"
	"gamegscore/models"
	"gamegscore/monitoring"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

// SearchGames - GET /api/search?q=, results in catalog order
func SearchGames(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}
	if catalog.Client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Game catalog is not configured"})
		return
	}

	ctx := c.Request.Context()

	var cached []models.GameSummary
	if err := cache.GetSearch(ctx, query, &cached); err == nil {
		utils.Log.Debug(fmt.Sprintf("Cache HIT: search %q", query))
		monitoring.CatalogRequests.WithLabelValues("search", "cache").Inc()
		c.JSON(http.StatusOK, cached)
		return
	}

	results, err := catalog.Client.Search(ctx, query)
	if err != nil {
		monitoring.CatalogRequests.WithLabelValues("search", "error").Inc()
		utils.LogError("catalog search failed", map[string]interface{}{"query": query, "error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to search the game catalog"})
		return
	}
	monitoring.CatalogRequests.WithLabelValues("search", "upstream").Inc()

	if results == nil {
		results = []models.GameSummary{}
	}
	if err := cache.SetSearch(ctx, query, results); err != nil && !errors.Is(err, cache.ErrRedisUnavailable) {
		utils.LogWarn("caching search failed", map[string]interface{}{"query": query, "error": err.Error()})
	}

	c.JSON(http.StatusOK, results)
}
