package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"gamegscore/cache"
	"gamegscore/catalog"
	"gamegscore/config"
	"gamegscore/db"
	"gamegscore/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu       sync.Mutex
	games    map[uint]models.GameDetails
	results  []models.GameSummary
	searches int
	err      error
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]models.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.results, f.err
}

func (f *fakeCatalog) Game(ctx context.Context, id uint) (*models.GameDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.games[id]
	if !ok {
		return nil, catalog.ErrGameNotFound
	}
	return &g, nil
}

func thumb(s string) *string { return &s }

// setupServer wires the handlers to an in-memory database and a fake catalog
func setupServer(t *testing.T) (*gin.Engine, *fakeCatalog) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.CreateTables(conn))
	db.DB = conn

	fake := &fakeCatalog{
		games: map[uint]models.GameDetails{
			21: {ID: 21, Name: "Portal", Description: "Think with portals.", ImageURL: "https://img/portal.jpg"},
		},
		results: []models.GameSummary{
			{ID: 22, Name: "Portal 2", ThumbnailURL: thumb("https://img/p2.jpg")},
			{ID: 21, Name: "Portal"},
		},
	}
	catalog.Client = fake

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Admin.AllowReset = true
	Configure(cfg)

	t.Cleanup(func() {
		_ = sqlDB.Close()
		db.DB = nil
		catalog.Client = nil
		cache.RedisClient = nil
	})

	r := gin.New()
	RegisterRoutes(r)
	return r, fake
}

func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	require.NoError(t, cache.InitRedis(mr.Addr(), "", 0))
	return mr
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func scoresBody(gameID uint, name string, ownerID uint, s models.ReviewScores) models.ReviewInput {
	return models.NewReviewInput(gameID, name, ownerID, s)
}

func TestHelloAndRoot(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodGet, "/api/ola", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var hello map[string]string
	decode(t, w, &hello)
	assert.NotEmpty(t, hello["mensagem"])

	w = do(t, r, http.MethodGet, "/api", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"online"`)
}

func TestTestDB(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodGet, "/api/test-db", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Contains(t, body["database_status"], "sqlite")
}

func TestSearch(t *testing.T) {
	r, fake := setupServer(t)
	withRedis(t)

	w := do(t, r, http.MethodGet, "/api/search?q=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, fake.searches)

	w = do(t, r, http.MethodGet, "/api/search?q=portal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results []models.GameSummary
	decode(t, w, &results)
	require.Len(t, results, 2)
	assert.Equal(t, "Portal 2", results[0].Name)
	assert.Nil(t, results[1].ThumbnailURL)

	// second lookup is served from the cache
	w = do(t, r, http.MethodGet, "/api/search?q=Portal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.searches)
}

func TestSearchUpstreamFailure(t *testing.T) {
	r, fake := setupServer(t)
	fake.err = catalog.ErrUpstream

	w := do(t, r, http.MethodGet, "/api/search?q=portal", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestGetGame(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodGet, "/api/game/21", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var game models.GameDetails
	decode(t, w, &game)
	assert.Equal(t, "Portal", game.Name)
	assert.Equal(t, "Think with portals.", game.Description)

	w = do(t, r, http.MethodGet, "/api/game/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/game/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveReviewRowOverwritesExistingPair(t *testing.T) {
	setupServer(t)
	first := models.Review{GameID: 21, OwnerID: 4, GameName: "Portal", Jogabilidade: 2, Graficos: 2, Narrativa: 2, Audio: 2, Desempenho: 2, NotaGeral: 2}
	require.NoError(t, db.DB.Create(&first).Error)

	// a writer that missed the existing row still lands on it instead of failing
	late := models.Review{GameID: 21, OwnerID: 4, GameName: "Portal", Jogabilidade: 9, Graficos: 9, Narrativa: 9, Audio: 9, Desempenho: 9.5, NotaGeral: 9.1}
	require.NoError(t, saveReviewRow(db.DB, &late))

	var rows []models.Review
	require.NoError(t, db.DB.Where("game_id = ? AND owner_id = ?", 21, 4).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, 9.5, rows[0].Desempenho)
	assert.Equal(t, 9.1, rows[0].NotaGeral)
}

func TestConcurrentFirstSavesOfOneReview(t *testing.T) {
	r, _ := setupServer(t)
	s := models.DefaultScores()

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 6, s)).Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	var count int64
	require.NoError(t, db.DB.Model(&models.Review{}).Where("game_id = ? AND owner_id = ?", 21, 6).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReviewLifecycle(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodGet, "/api/review?game_id=21&owner_id=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Review not found"}`, w.Body.String())

	first := models.ReviewScores{Jogabilidade: 8, Graficos: 6, Narrativa: 7, Audio: 9, Desempenho: 5}
	w = do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 1, first))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved struct {
		Message string        `json:"message"`
		Review  models.Review `json:"review"`
	}
	decode(t, w, &saved)
	assert.Equal(t, "Review saved successfully!", saved.Message)
	assert.Equal(t, 7.0, saved.Review.NotaGeral)

	w = do(t, r, http.MethodGet, "/api/review?game_id=21&owner_id=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loaded models.Review
	decode(t, w, &loaded)
	assert.Equal(t, first, loaded.Scores())
	assert.Equal(t, 7.0, loaded.NotaGeral)

	second := models.ReviewScores{Jogabilidade: 10, Graficos: 10, Narrativa: 9.5, Audio: 10, Desempenho: 10}
	w = do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 1, second))
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &saved)
	assert.Equal(t, "Review updated successfully!", saved.Message)
	assert.Equal(t, 9.9, saved.Review.NotaGeral)

	var count int64
	require.NoError(t, db.DB.Model(&models.Review{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSaveReviewValidation(t *testing.T) {
	r, _ := setupServer(t)

	offGrid := models.ReviewScores{Jogabilidade: 7.3, Graficos: 6, Narrativa: 7, Audio: 9, Desempenho: 5}
	w := do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 1, offGrid))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "jogabilidade")

	tooHigh := models.ReviewScores{Jogabilidade: 11, Graficos: 6, Narrativa: 7, Audio: 9, Desempenho: 5}
	w = do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 1, tooHigh))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/review", map[string]interface{}{"game_id": 21, "game_name": "Portal", "jogabilidade": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	decode(t, w, &body)
	assert.NotEmpty(t, body.Error)
	assert.Contains(t, body.Errors, "graficos")

	w = do(t, r, http.MethodPost, "/api/review", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwnerResolution(t *testing.T) {
	r, _ := setupServer(t)
	s := models.DefaultScores()

	// no owner anywhere falls back to the default owner
	w := do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 0, s))
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/review?game_id=21", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// a token wins over the owner in the body
	token, err := Tokens.Sign(5)
	require.NoError(t, err)
	w = do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 1, s), "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	var saved struct {
		Review models.Review `json:"review"`
	}
	decode(t, w, &saved)
	assert.Equal(t, uint(5), saved.Review.OwnerID)

	w = do(t, r, http.MethodGet, "/api/review?game_id=21&owner_id=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/my-reviews", nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/my-reviews?owner_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitFollowsTokenOwner(t *testing.T) {
	setupServer(t)
	withRedis(t)
	RateLimit = 2
	t.Cleanup(func() { RateLimit = 0 })
	r := gin.New()
	RegisterRoutes(r)

	token, err := Tokens.Sign(9)
	require.NoError(t, err)
	fromAddr := func(addr string, auth bool) int {
		req := httptest.NewRequest(http.MethodGet, "/api/my-reviews", nil)
		req.RemoteAddr = addr
		if auth {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, fromAddr("192.0.2.1:4000", true))
	assert.Equal(t, http.StatusOK, fromAddr("192.0.2.2:4000", true))
	assert.Equal(t, http.StatusTooManyRequests, fromAddr("192.0.2.3:4000", true))
	assert.Equal(t, http.StatusOK, fromAddr("192.0.2.3:4000", false))
}

func TestMyReviews(t *testing.T) {
	r, _ := setupServer(t)
	withRedis(t)

	w := do(t, r, http.MethodGet, "/api/my-reviews?owner_id=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.NoError(t, db.DB.Create(&models.Review{GameID: 1, OwnerID: 3, GameName: "Myst", NotaGeral: 6}).Error)
	require.NoError(t, db.DB.Create(&models.Review{GameID: 2, OwnerID: 3, GameName: "Doom", NotaGeral: 8.5}).Error)
	require.NoError(t, db.DB.Create(&models.Review{GameID: 2, OwnerID: 4, GameName: "Doom", NotaGeral: 1}).Error)
	require.NoError(t, cache.InvalidateMyReviews(context.Background(), 3))

	w = do(t, r, http.MethodGet, "/api/my-reviews?owner_id=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.MyReviewSummary
	decode(t, w, &list)
	require.Len(t, list, 2)
	names := []string{list[0].GameName, list[1].GameName}
	assert.ElementsMatch(t, []string{"Myst", "Doom"}, names)
}

func TestCreateUserAndLogin(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodPost, "/api/create-user", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created models.AuthResponse
	decode(t, w, &created)
	assert.Equal(t, uint(1), created.UserID)
	assert.NotEmpty(t, created.Token)

	// the default test user exists only once
	w = do(t, r, http.MethodPost, "/api/create-user", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/create-user", models.CreateUserInput{Name: "Ana Gamer", Email: "Ana@Example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &created)
	assert.Equal(t, uint(2), created.UserID)

	w = do(t, r, http.MethodPost, "/api/login", models.LoginInput{Email: "ana@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	var login models.AuthResponse
	decode(t, w, &login)
	id, err := Tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(2), id)

	w = do(t, r, http.MethodPost, "/api/login", models.LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the default user has no password and cannot log in
	w = do(t, r, http.MethodPost, "/api/login", models.LoginInput{Email: defaultUserEmail, Password: "whatever"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTablesAndReset(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodGet, "/api/create-tables", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Tables created successfully!"}`, w.Body.String())

	require.NoError(t, db.DB.Create(&models.Review{GameID: 1, OwnerID: 1, GameName: "Myst"}).Error)

	AllowReset = false
	w = do(t, r, http.MethodGet, "/api/DANGEROUS-RESET-DB", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	AllowReset = true
	w = do(t, r, http.MethodGet, "/api/DANGEROUS-RESET-DB", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProfileStats(t *testing.T) {
	r, _ := setupServer(t)

	w := do(t, r, http.MethodPost, "/api/review", scoresBody(21, "Portal", 1, models.ReviewScores{Jogabilidade: 8, Graficos: 6, Narrativa: 7, Audio: 9, Desempenho: 5}))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/stats?owner_id=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Statistics models.ProfileStats `json:"statistics"`
	}
	decode(t, w, &body)
	assert.Equal(t, int64(1), body.Statistics.TotalReviews)
	assert.Equal(t, 7.0, body.Statistics.AverageScore)
	assert.Equal(t, "Portal", body.Statistics.BestGame)
}
