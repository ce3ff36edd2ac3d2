package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamegscore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSearchSendsQuery(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "zelda breath", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, []models.GameSummary{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}})
	})

	results, err := c.Search(context.Background(), "zelda breath")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].Name)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Review not found"})
	})

	_, err := c.Review(context.Background(), 21, 1)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Review not found", apiErr.Message)
	assert.True(t, IsAPIError(err))
}

func TestErrorEnvelopeWithOKStatus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "not found"})
	})

	_, err := c.Review(context.Background(), 21, 1)
	assert.True(t, IsAPIError(err))
}

func TestStatusWithoutEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Search(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestMalformedBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	_, err := c.Search(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.False(t, IsAPIError(err))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL)
	srv.Close()

	_, err := c.Hello(context.Background())
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestGameWithoutName(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/game/42", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 42})
	})

	game, err := c.Game(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), game.ID)
	assert.Empty(t, game.Name)
}

func TestSubmitReviewBodyAndToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, float64(21), body["game_id"])
		assert.Equal(t, "Portal", body["game_name"])
		assert.Equal(t, 8.5, body["jogabilidade"])
		assert.Equal(t, float64(1), body["owner_id"])

		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Review saved successfully!"})
	})
	c.token = "tok"

	scores := models.DefaultScores()
	scores.Jogabilidade = 8.5
	msg, err := c.SubmitReview(context.Background(), models.NewReviewInput(21, "Portal", 1, scores))
	require.NoError(t, err)
	assert.Equal(t, "Review saved successfully!", msg)
}

func TestSubmitReviewWithoutMessage(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{})
	})

	_, err := c.SubmitReview(context.Background(), models.NewReviewInput(1, "x", 1, models.DefaultScores()))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestMyReviewsOwnerParam(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("owner_id"))
		writeJSON(w, http.StatusOK, []models.MyReviewSummary{{ID: 1, GameName: "Doom", NotaGeral: 8}})
	})

	reviews, err := c.MyReviews(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Doom", reviews[0].GameName)
}

func TestAdminCalls(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/create-tables":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Tables created successfully!"})
		case "/api/DANGEROUS-RESET-DB":
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Database reset is disabled"})
		case "/api/create-user":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(w, http.StatusOK, models.AuthResponse{Message: "User created successfully!", UserID: 3, Token: "t"})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	msg, err := c.CreateTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tables created successfully!", msg)

	_, err = c.ResetDatabase(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Database reset is disabled", apiErr.Message)

	user, err := c.CreateUser(ctx, models.CreateUserInput{})
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.UserID)
}
