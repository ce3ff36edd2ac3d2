package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageIsExactOnTheHalfGrid(t *testing.T) {
	s := ReviewScores{Jogabilidade: 8, Graficos: 6, Narrativa: 7, Audio: 9, Desempenho: 5}
	assert.Equal(t, 7.0, s.Average())

	// every grid point in every position
	for step := 0; step <= 20; step++ {
		v := float64(step) * ScoreStep
		for _, field := range ScoreFields {
			s, ok := DefaultScores().With(field, v)
			assert.True(t, ok)
			assert.Equal(t, (v+4*DefaultScore)/5, s.Average(), "field %s value %v", field, v)
		}
	}
}

func TestDefaultScores(t *testing.T) {
	s := DefaultScores()
	assert.Equal(t, 5.0, s.Average())
	for _, field := range ScoreFields {
		v, ok := s.Get(field)
		assert.True(t, ok)
		assert.Equal(t, DefaultScore, v)
	}
}

func TestWithUnknownField(t *testing.T) {
	s, ok := DefaultScores().With("story", 9)
	assert.False(t, ok)
	assert.Equal(t, DefaultScores(), s)

	_, ok = s.Get("story")
	assert.False(t, ok)
}

func TestReviewInputRoundTrip(t *testing.T) {
	s := ReviewScores{Jogabilidade: 8, Graficos: 6.5, Narrativa: 7, Audio: 9, Desempenho: 5}
	in := NewReviewInput(12, "Portal", 1, s)

	assert.Equal(t, uint(12), in.GameID)
	assert.Equal(t, s, in.Scores())
}
