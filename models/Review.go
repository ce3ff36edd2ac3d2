package models

import "time"

const (
	MinScore     = 0.0
	MaxScore     = 10.0
	ScoreStep    = 0.5
	DefaultScore = 5.0
)

// Score dimensions, in display order
const (
	FieldJogabilidade = "jogabilidade"
	FieldGraficos     = "graficos"
	FieldNarrativa    = "narrativa"
	FieldAudio        = "audio"
	FieldDesempenho   = "desempenho"
)

var ScoreFields = []string{FieldJogabilidade, FieldGraficos, FieldNarrativa, FieldAudio, FieldDesempenho}

// ReviewScores holds the five dimensions of a review
type ReviewScores struct {
	Jogabilidade float64 `json:"jogabilidade"`
	Graficos     float64 `json:"graficos"`
	Narrativa    float64 `json:"narrativa"`
	Audio        float64 `json:"audio"`
	Desempenho   float64 `json:"desempenho"`
}

func DefaultScores() ReviewScores {
	return ReviewScores{
		Jogabilidade: DefaultScore,
		Graficos:     DefaultScore,
		Narrativa:    DefaultScore,
		Audio:        DefaultScore,
		Desempenho:   DefaultScore,
	}
}

// Average is the arithmetic mean of the five dimensions
func (s ReviewScores) Average() float64 {
	return (s.Jogabilidade + s.Graficos + s.Narrativa + s.Audio + s.Desempenho) / 5
}

// Get returns the value of a named dimension
func (s ReviewScores) Get(field string) (float64, bool) {
	switch field {
	case FieldJogabilidade:
		return s.Jogabilidade, true
	case FieldGraficos:
		return s.Graficos, true
	case FieldNarrativa:
		return s.Narrativa, true
	case FieldAudio:
		return s.Audio, true
	case FieldDesempenho:
		return s.Desempenho, true
	}
	return 0, false
}

// With returns a copy with one dimension replaced
func (s ReviewScores) With(field string, value float64) (ReviewScores, bool) {
	switch field {
	case FieldJogabilidade:
		s.Jogabilidade = value
	case FieldGraficos:
		s.Graficos = value
	case FieldNarrativa:
		s.Narrativa = value
	case FieldAudio:
		s.Audio = value
	case FieldDesempenho:
		s.Desempenho = value
	default:
		return s, false
	}
	return s, true
}

// Review is one saved review; there is at most one per (game, owner)
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GameID       uint      `gorm:"not null;uniqueIndex:idx_review_game_owner" json:"game_id"`
	OwnerID      uint      `gorm:"not null;uniqueIndex:idx_review_game_owner;index" json:"owner_id"`
	GameName     string    `gorm:"not null" json:"game_name"`
	Jogabilidade float64   `gorm:"not null" json:"jogabilidade"`
	Graficos     float64   `gorm:"not null" json:"graficos"`
	Narrativa    float64   `gorm:"not null" json:"narrativa"`
	Audio        float64   `gorm:"not null" json:"audio"`
	Desempenho   float64   `gorm:"not null" json:"desempenho"`
	NotaGeral    float64   `gorm:"not null" json:"nota_geral"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r Review) Scores() ReviewScores {
	return ReviewScores{
		Jogabilidade: r.Jogabilidade,
		Graficos:     r.Graficos,
		Narrativa:    r.Narrativa,
		Audio:        r.Audio,
		Desempenho:   r.Desempenho,
	}
}

// ReviewInput is the body of POST /api/review
type ReviewInput struct {
	GameID       uint     `json:"game_id" validate:"required,gte=1"`
	GameName     string   `json:"game_name" validate:"required,max=255"`
	OwnerID      uint     `json:"owner_id"`
	Jogabilidade *float64 `json:"jogabilidade" validate:"required,gte=0,lte=10,halfstep"`
	Graficos     *float64 `json:"graficos" validate:"required,gte=0,lte=10,halfstep"`
	Narrativa    *float64 `json:"narrativa" validate:"required,gte=0,lte=10,halfstep"`
	Audio        *float64 `json:"audio" validate:"required,gte=0,lte=10,halfstep"`
	Desempenho   *float64 `json:"desempenho" validate:"required,gte=0,lte=10,halfstep"`
}

// NewReviewInput builds a request body from a score vector
func NewReviewInput(gameID uint, gameName string, ownerID uint, s ReviewScores) ReviewInput {
	return ReviewInput{
		GameID:       gameID,
		GameName:     gameName,
		OwnerID:      ownerID,
		Jogabilidade: &s.Jogabilidade,
		Graficos:     &s.Graficos,
		Narrativa:    &s.Narrativa,
		Audio:        &s.Audio,
		Desempenho:   &s.Desempenho,
	}
}

// Scores assumes the input passed validation
func (in ReviewInput) Scores() ReviewScores {
	return ReviewScores{
		Jogabilidade: *in.Jogabilidade,
		Graficos:     *in.Graficos,
		Narrativa:    *in.Narrativa,
		Audio:        *in.Audio,
		Desempenho:   *in.Desempenho,
	}
}

// MyReviewSummary is one row of the owner's profile list
type MyReviewSummary struct {
	ID        uint    `json:"id"`
	GameID    uint    `json:"game_id"`
	GameName  string  `json:"game_name"`
	NotaGeral float64 `json:"nota_geral"`
}

// ProfileStats aggregates an owner's reviews
type ProfileStats struct {
	OwnerID           uint         `json:"owner_id"`
	TotalReviews      int64        `json:"total_reviews"`
	AverageScore      float64      `json:"average_score"`
	BestGame          string       `json:"best_game"`
	DimensionAverages ReviewScores `json:"dimension_averages"`
}
