package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamegscore/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrUpstream     = errors.New("catalog request failed")
)

// Provider is the third-party game catalog
type Provider interface {
	Search(ctx context.Context, query string) ([]models.GameSummary, error)
	Game(ctx context.Context, id uint) (*models.GameDetails, error)
}

// Client is the provider used by the HTTP handlers
var Client Provider

// Giant Bomb status codes
const (
	statusOK       = 1
	statusNotFound = 101
)

// game resources live under the 3030- guid prefix
const gameGUIDPrefix = "3030-"

type GiantBomb struct {
	baseURL   string
	apiKey    string
	userAgent string
	limit     int
	http      *http.Client
}

type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Limit     int
	Timeout   time.Duration
}

func NewGiantBomb(opts Options) *GiantBomb {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &GiantBomb{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		limit:     opts.Limit,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type gbImage struct {
	ThumbURL  string `json:"thumb_url"`
	MediumURL string `json:"medium_url"`
}

type gbGame struct {
	ID    uint     `json:"id"`
	Name  string   `json:"name"`
	Deck  string   `json:"deck"`
	Image *gbImage `json:"image"`
}

type gbEnvelope struct {
	Error      string          `json:"error"`
	StatusCode int             `json:"status_code"`
	Results    json.RawMessage `json:"results"`
}

// Search returns catalog games matching the query, in catalog order
func (g *GiantBomb) Search(ctx context.Context, query string) ([]models.GameSummary, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("resources", "game")
	params.Set("field_list", "id,name,image")
	params.Set("limit", strconv.Itoa(g.limit))

	var games []gbGame
	if err := g.get(ctx, "/search/", params, &games); err != nil {
		return nil, err
	}

	results := make([]models.GameSummary, 0, len(games))
	for _, game := range games {
		summary := models.GameSummary{ID: game.ID, Name: game.Name}
		if game.Image != nil && game.Image.ThumbURL != "" {
			thumb := game.Image.ThumbURL
			summary.ThumbnailURL = &thumb
		}
		results = append(results, summary)
	}
	return results, nil
}

// Game returns the details of one catalog game
func (g *GiantBomb) Game(ctx context.Context, id uint) (*models.GameDetails, error) {
	params := url.Values{}
	params.Set("field_list", "id,name,deck,image")

	var game gbGame
	path := fmt.Sprintf("/game/%s%d/", gameGUIDPrefix, id)
	if err := g.get(ctx, path, params, &game); err != nil {
		return nil, err
	}
	if game.ID == 0 {
		return nil, ErrGameNotFound
	}

	details := &models.GameDetails{
		ID:          game.ID,
		Name:        game.Name,
		Description: game.Deck,
	}
	if game.Image != nil {
		details.ImageURL = game.Image.MediumURL
	}
	return details, nil
}

func (g *GiantBomb) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("api_key", g.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	// Giant Bomb rejects requests without a user agent
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrGameNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var envelope gbEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	switch envelope.StatusCode {
	case statusOK:
	case statusNotFound:
		return ErrGameNotFound
	default:
		return fmt.Errorf("%w: %s (code %d)", ErrUpstream, envelope.Error, envelope.StatusCode)
	}

	// an empty result comes back as [] for single resources
	if len(envelope.Results) == 0 || string(envelope.Results) == "[]" {
		if _, isSlice := dest.(*[]gbGame); isSlice {
			return nil
		}
		return ErrGameNotFound
	}
	if err := json.Unmarshal(envelope.Results, dest); err != nil {
		return fmt.Errorf("%w: decode results: %v", ErrUpstream, err)
	}
	return nil
}
