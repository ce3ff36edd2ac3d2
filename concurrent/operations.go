package concurrent

import (
	"context"
	"fmt"
	"time"

	"gamegscore/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

/*
CalculateProfileStats - each aggregate over the owner's reviews is an
independent query, so the four of them run at the same time and the
request waits for the slowest one instead of their sum.
*/

const statsTimeout = 5 * time.Second

// CalculateProfileStats aggregates the reviews of one owner
func CalculateProfileStats(ctx context.Context, conn *gorm.DB, ownerID uint) (*models.ProfileStats, error) {
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	stats := &models.ProfileStats{OwnerID: ownerID}
	g, gctx := errgroup.WithContext(ctx)

	owned := func() *gorm.DB {
		return conn.WithContext(gctx).Model(&models.Review{}).Where("owner_id = ?", ownerID)
	}

	// Goroutine 1: number of reviews
	g.Go(func() error {
		if err := owned().Count(&stats.TotalReviews).Error; err != nil {
			return fmt.Errorf("count reviews: %w", err)
		}
		return nil
	})

	// Goroutine 2: overall average
	g.Go(func() error {
		var avg struct{ Avg *float64 }
		if err := owned().Select("AVG(nota_geral) AS avg").Scan(&avg).Error; err != nil {
			return fmt.Errorf("average score: %w", err)
		}
		if avg.Avg != nil {
			stats.AverageScore = *avg.Avg
		}
		return nil
	})

	// Goroutine 3: average per dimension
	g.Go(func() error {
		var dims struct {
			Jogabilidade *float64
			Graficos     *float64
			Narrativa    *float64
			Audio        *float64
			Desempenho   *float64
		}
		err := owned().Select(
			"AVG(jogabilidade) AS jogabilidade, AVG(graficos) AS graficos, " +
				"AVG(narrativa) AS narrativa, AVG(audio) AS audio, AVG(desempenho) AS desempenho",
		).Scan(&dims).Error
		if err != nil {
			return fmt.Errorf("dimension averages: %w", err)
		}
		stats.DimensionAverages = models.ReviewScores{
			Jogabilidade: deref(dims.Jogabilidade),
			Graficos:     deref(dims.Graficos),
			Narrativa:    deref(dims.Narrativa),
			Audio:        deref(dims.Audio),
			Desempenho:   deref(dims.Desempenho),
		}
		return nil
	})

	// Goroutine 4: best rated game, most recent wins ties
	g.Go(func() error {
		var best []models.Review
		err := owned().Order("nota_geral DESC").Order("updated_at DESC").Limit(1).Find(&best).Error
		if err != nil {
			return fmt.Errorf("best game: %w", err)
		}
		if len(best) > 0 {
			stats.BestGame = best[0].GameName
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
