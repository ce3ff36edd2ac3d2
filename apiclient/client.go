package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamegscore/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrMalformedResponse is returned when a body is neither the expected shape nor an {error} object
var ErrMalformedResponse = errors.New("malformed response")

// APIError is an {"error": "..."} answer from the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// IsAPIError reports whether err carries an {error} answer
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Client talks to the GameG Score REST API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sends the bearer token on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messageResponse struct {
	Message string `json:"message"`
}

// Hello - GET /api/ola
func (c *Client) Hello(ctx context.Context) (string, error) {
	var resp struct {
		Mensagem string `json:"mensagem"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ola", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Mensagem, nil
}

// TestDB - GET /api/test-db
func (c *Client) TestDB(ctx context.Context) (string, error) {
	var resp struct {
		DatabaseStatus string `json:"database_status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/test-db", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.DatabaseStatus == "" {
		return "", ErrMalformedResponse
	}
	return resp.DatabaseStatus, nil
}

// Search - GET /api/search?q=
func (c *Client) Search(ctx context.Context, query string) ([]models.GameSummary, error) {
	results := make([]models.GameSummary, 0)
	q := url.Values{"q": {query}}
	if err := c.do(ctx, http.MethodGet, "/api/search", q, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Game - GET /api/game/:id. Details are returned as sent, even without a name.
func (c *Client) Game(ctx context.Context, id uint) (*models.GameDetails, error) {
	var game models.GameDetails
	path := "/api/game/" + strconv.FormatUint(uint64(id), 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// Review - GET /api/review?game_id=&owner_id=
func (c *Client) Review(ctx context.Context, gameID, ownerID uint) (*models.Review, error) {
	q := url.Values{"game_id": {strconv.FormatUint(uint64(gameID), 10)}}
	if ownerID != 0 {
		q.Set("owner_id", strconv.FormatUint(uint64(ownerID), 10))
	}
	var review models.Review
	if err := c.do(ctx, http.MethodGet, "/api/review", q, nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// SubmitReview - POST /api/review, returns the server message
func (c *Client) SubmitReview(ctx context.Context, input models.ReviewInput) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/review", nil, input, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "", ErrMalformedResponse
	}
	return resp.Message, nil
}

// MyReviews - GET /api/my-reviews
func (c *Client) MyReviews(ctx context.Context, ownerID uint) ([]models.MyReviewSummary, error) {
	var q url.Values
	if ownerID != 0 {
		q = url.Values{"owner_id": {strconv.FormatUint(uint64(ownerID), 10)}}
	}
	reviews := make([]models.MyReviewSummary, 0)
	if err := c.do(ctx, http.MethodGet, "/api/my-reviews", q, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Stats - GET /api/stats
func (c *Client) Stats(ctx context.Context, ownerID uint) (*models.ProfileStats, error) {
	var q url.Values
	if ownerID != 0 {
		q = url.Values{"owner_id": {strconv.FormatUint(uint64(ownerID), 10)}}
	}
	var resp struct {
		Statistics models.ProfileStats `json:"statistics"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/stats", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Statistics, nil
}

// CreateUser - POST /api/create-user. A zero input creates the default test user.
func (c *Client) CreateUser(ctx context.Context, input models.CreateUserInput) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/create-user", nil, input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login - POST /api/login
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	input := models.LoginInput{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTables - GET /api/create-tables
func (c *Client) CreateTables(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodGet, "/api/create-tables", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetDatabase - GET /api/DANGEROUS-RESET-DB
func (c *Client) ResetDatabase(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodGet, "/api/DANGEROUS-RESET-DB", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// do sends one request. An {error} body becomes *APIError whatever the status code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '{' {
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: envelope.Error}
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}
