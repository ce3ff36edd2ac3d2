package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gamegscore/middleware"
	"gamegscore/monitoring"

	"github.com/gin-gonic/gin"
)

var errBadID = errors.New("invalid id")

// AuthMiddleware resolves the bearer token, when there is one, into the request owner.
// Requests without a token stay anonymous and fall back to owner_id or the default owner.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || Tokens == nil {
			monitoring.AuthenticationAttempts.WithLabelValues("failure").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ownerID, err := Tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			monitoring.AuthenticationAttempts.WithLabelValues("failure").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		monitoring.AuthenticationAttempts.WithLabelValues("success").Inc()
		c.Set(middleware.OwnerKey, ownerID)
		c.Next()
	}
}

// resolveOwner picks the token owner, then the explicit id, then the default owner
func resolveOwner(c *gin.Context, explicit uint) uint {
	if v, ok := c.Get(middleware.OwnerKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	if explicit != 0 {
		return explicit
	}
	return DefaultOwnerID
}

// ownerFromQuery reads ?owner_id= and resolves the owner
func ownerFromQuery(c *gin.Context) (uint, bool) {
	explicit, err := parseID(c.Query("owner_id"), true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner_id"})
		return 0, false
	}
	return resolveOwner(c, explicit), true
}

// parseID parses a positive id; an empty string is accepted as zero when optional
func parseID(raw string, optional bool) (uint, error) {
	if raw == "" && optional {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}
