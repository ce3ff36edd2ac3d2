package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gamegscore/cache"
	"gamegscore/db"
	"gamegscore/models"
	"gamegscore/monitoring"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetReview - GET /api/review?game_id=&owner_id=
func GetReview(c *gin.Context) {
	gameID, err := parseID(c.Query("game_id"), false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game_id is required"})
		return
	}
	ownerID, ok := ownerFromQuery(c)
	if !ok {
		return
	}

	var review models.Review
	err = db.DB.WithContext(c.Request.Context()).
		Where("game_id = ? AND owner_id = ?", gameID, ownerID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}
	if err != nil {
		utils.LogError("load review failed", map[string]interface{}{"game_id": gameID, "owner_id": ownerID, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load review"})
		return
	}

	c.JSON(http.StatusOK, review)
}

// SaveReview - POST /api/review, creates or updates the owner's review of a game
func SaveReview(c *gin.Context) {
	var input models.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		monitoring.ReviewsSubmitted.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		monitoring.ReviewsSubmitted.WithLabelValues("invalid").Inc()
		utils.ValidationErrorResponse(c, err)
		return
	}

	ownerID := resolveOwner(c, input.OwnerID)
	review, created, err := upsertReview(c.Request.Context(), ownerID, input)
	if err != nil {
		monitoring.ReviewsSubmitted.WithLabelValues("failed").Inc()
		utils.LogError("save review failed", map[string]interface{}{"game_id": input.GameID, "owner_id": ownerID, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save review"})
		return
	}

	// Invalidate the owner's profile list
	go func(oID uint) {
		if err := cache.InvalidateMyReviews(context.Background(), oID); err != nil {
			utils.LogWarn("review cache invalidation failed", map[string]interface{}{"owner_id": oID, "error": err.Error()})
			return
		}
		utils.Log.Debug(fmt.Sprintf("My-reviews cache invalidated for owner %d (ASYNC)", oID))
	}(ownerID)

	message := "Review updated successfully!"
	if created {
		message = "Review saved successfully!"
		monitoring.ReviewsSubmitted.WithLabelValues("created").Inc()
	} else {
		monitoring.ReviewsSubmitted.WithLabelValues("updated").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "review": review})
}

// upsertReview keeps a single row per (game, owner)
func upsertReview(ctx context.Context, ownerID uint, input models.ReviewInput) (*models.Review, bool, error) {
	scores := input.Scores()
	row := models.Review{
		GameID:       input.GameID,
		OwnerID:      ownerID,
		GameName:     input.GameName,
		Jogabilidade: scores.Jogabilidade,
		Graficos:     scores.Graficos,
		Narrativa:    scores.Narrativa,
		Audio:        scores.Audio,
		Desempenho:   scores.Desempenho,
		NotaGeral:    scores.Average(),
	}

	var review models.Review
	created := false
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("game_id = ? AND owner_id = ?", input.GameID, ownerID).
			Count(&existing).Error; err != nil {
			return err
		}
		created = existing == 0

		if err := saveReviewRow(tx, &row); err != nil {
			return err
		}
		return tx.Where("game_id = ? AND owner_id = ?", input.GameID, ownerID).First(&review).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &review, created, nil
}

// saveReviewRow inserts the review or, when the (game, owner) pair already
// has a row, overwrites its name and scores in the same statement.
func saveReviewRow(tx *gorm.DB, review *models.Review) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_id"}, {Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"game_name", "jogabilidade", "graficos", "narrativa", "audio", "desempenho", "nota_geral", "updated_at",
		}),
	}).Create(review).Error
}

// GetMyReviews - GET /api/my-reviews, most recently updated first
func GetMyReviews(c *gin.Context) {
	ownerID, ok := ownerFromQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var cached []models.MyReviewSummary
	if err := cache.GetMyReviews(ctx, ownerID, &cached); err == nil {
		utils.Log.Debug(fmt.Sprintf("Cache HIT: my-reviews for owner %d", ownerID))
		c.JSON(http.StatusOK, cached)
		return
	}

	reviews := make([]models.MyReviewSummary, 0)
	err := db.DB.WithContext(ctx).Model(&models.Review{}).
		Select("id, game_id, game_name, nota_geral").
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").Order("id DESC").
		Scan(&reviews).Error
	if err != nil {
		utils.LogError("load my reviews failed", map[string]interface{}{"owner_id": ownerID, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	if err := cache.SetMyReviews(ctx, ownerID, reviews); err != nil && !errors.Is(err, cache.ErrRedisUnavailable) {
		utils.LogWarn("caching my reviews failed", map[string]interface{}{"owner_id": ownerID, "error": err.Error()})
	}

	c.JSON(http.StatusOK, reviews)
}
