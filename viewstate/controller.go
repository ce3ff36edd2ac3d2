package viewstate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"gamegscore/apiclient"
	"gamegscore/models"

	"github.com/sirupsen/logrus"
)

var ErrUnknownField = errors.New("unknown review field")

// Controller owns the dashboard state. Operations may be called from any
// goroutine; the lock is never held while a request is in flight.
//
// Search, SelectGame and GoBack each start a new navigation. A response that
// arrives after a newer navigation started is dropped.
type Controller struct {
	store            Store
	identity         Identity
	log              logrus.FieldLogger
	clearQueryOnBack bool

	mu    sync.Mutex
	state State
	nav   uint64
}

type Option func(*Controller)

// WithIdentity sets who reviews are read and written for, FixedOwner(1) by default
func WithIdentity(id Identity) Option {
	return func(c *Controller) { c.identity = id }
}

// WithClearQueryOnBack makes GoBack also empty the search box
func WithClearQueryOnBack() Option {
	return func(c *Controller) { c.clearQueryOnBack = true }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		identity: FixedOwner(1),
		log:      logrus.StandardLogger(),
		state:    initialState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	c.state.Query = query
	c.mu.Unlock()
}

// begin starts a navigation and returns its sequence number; callers hold the lock.
// The replaced navigation's loading flags are cleared with it.
func (c *Controller) begin() uint64 {
	c.nav++
	c.state.SearchLoading = false
	c.state.DetailsLoading = false
	return c.nav
}

func (c *Controller) current(seq uint64) bool {
	return seq == c.nav
}

func (c *Controller) resetForm() {
	c.state.Review = models.DefaultScores()
	c.state.Average = nil
	c.state.ReviewStatus = ""
}

// Search looks the query up in the catalog. An empty query changes nothing.
func (c *Controller) Search(ctx context.Context, query string) []models.GameSummary {
	if query == "" {
		return nil
	}

	c.mu.Lock()
	seq := c.begin()
	c.state.Query = query
	c.state.Results = []models.GameSummary{}
	c.state.Selected = nil
	c.state.SearchLoading = true
	c.state.SearchStatus = ""
	c.mu.Unlock()

	results, err := c.store.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(seq) {
		c.log.WithField("query", query).Debug("stale search response dropped")
		return nil
	}
	c.state.SearchLoading = false
	if err != nil {
		c.log.WithFields(logrus.Fields{"query": query, "error": err.Error()}).Warn("search failed")
		c.state.SearchStatus = StatusSearchFailed
		return nil
	}
	if results == nil {
		results = []models.GameSummary{}
	}
	c.state.Results = results
	return append([]models.GameSummary(nil), results...)
}

// SelectGame opens a game and then loads the owner's review of it.
// A response without a name leaves no game selected and reports nothing.
func (c *Controller) SelectGame(ctx context.Context, id uint) *models.GameDetails {
	c.mu.Lock()
	seq := c.begin()
	c.state.Results = []models.GameSummary{}
	c.state.Selected = nil
	c.state.DetailsLoading = true
	c.resetForm()
	c.mu.Unlock()

	game, err := c.store.Game(ctx, id)

	c.mu.Lock()
	if !c.current(seq) {
		c.mu.Unlock()
		c.log.WithField("game_id", id).Debug("stale game response dropped")
		return nil
	}
	c.state.DetailsLoading = false

	switch {
	case err != nil && !apiclient.IsAPIError(err) && !errors.Is(err, apiclient.ErrMalformedResponse):
		c.state.ReviewStatus = StatusDetailsFailed
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{"game_id": id, "error": err.Error()}).Warn("game details failed")
		return nil
	case err != nil || game == nil || game.Name == "":
		c.mu.Unlock()
		return nil
	}

	selected := *game
	c.state.Selected = &selected
	c.mu.Unlock()

	c.loadReview(ctx, seq, selected.ID)

	out := selected
	return &out
}

// loadReview fills the form from the owner's saved review, or defaults it
func (c *Controller) loadReview(ctx context.Context, seq uint64, gameID uint) {
	var review *models.Review
	owner, err := c.identity.OwnerID(ctx)
	if err == nil {
		review, err = c.store.Review(ctx, gameID, owner)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(seq) {
		return
	}

	switch {
	case apiclient.IsAPIError(err):
		c.state.Review = models.DefaultScores()
		avg := c.state.Review.Average()
		c.state.Average = &avg
		c.state.ReviewStatus = StatusFirstReview
	case err != nil:
		c.log.WithFields(logrus.Fields{"game_id": gameID, "error": err.Error()}).Warn("review load failed")
		c.state.ReviewStatus = StatusLoadFailed
	default:
		c.state.Review = review.Scores()
		avg := review.NotaGeral
		c.state.Average = &avg
		c.state.ReviewStatus = StatusReviewLoaded
	}
}

// UpdateField sets one score and recomputes the average. The value is
// clamped to [0,10] and snapped to the 0.5 grid first.
func (c *Controller) UpdateField(field string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	scores, ok := c.state.Review.With(field, snapScore(value))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.state.Review = scores
	avg := scores.Average()
	c.state.Average = &avg
	return nil
}

func snapScore(v float64) float64 {
	if math.IsNaN(v) || v < models.MinScore {
		return models.MinScore
	}
	if v > models.MaxScore {
		return models.MaxScore
	}
	return math.Round(v/models.ScoreStep) * models.ScoreStep
}

// SubmitReview saves the form for the selected game and returns the new
// status. Nothing is sent when no game is selected. Failures are not retried.
func (c *Controller) SubmitReview(ctx context.Context) string {
	c.mu.Lock()
	if c.state.Selected == nil {
		c.mu.Unlock()
		return ""
	}
	game := *c.state.Selected
	scores := c.state.Review
	seq := c.nav
	c.state.ReviewStatus = StatusSaving
	c.mu.Unlock()

	var msg string
	owner, err := c.identity.OwnerID(ctx)
	if err == nil {
		msg, err = c.store.SubmitReview(ctx, models.NewReviewInput(game.ID, game.Name, owner, scores))
	}

	status := msg
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		status = "Error: " + apiErr.Message
	case err != nil:
		c.log.WithFields(logrus.Fields{"game_id": game.ID, "error": err.Error()}).Warn("review save failed")
		status = StatusSaveFailed
	}

	c.mu.Lock()
	if c.current(seq) {
		c.state.ReviewStatus = status
	}
	c.mu.Unlock()

	if err == nil {
		c.RefreshMyReviews(ctx)
	}
	return status
}

// GoBack leaves the selected game and resets the form
func (c *Controller) GoBack() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	c.state.Selected = nil
	c.resetForm()
	if c.clearQueryOnBack {
		c.state.Query = ""
	}
}

// Init loads the API greeting and the database status, then the owner's
// reviews when the database answered.
func (c *Controller) Init(ctx context.Context) {
	if msg, err := c.store.Hello(ctx); err != nil {
		c.log.WithError(err).Warn("api greeting failed")
	} else {
		c.mu.Lock()
		c.state.APIMessage = msg
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.state.DBStatus = StatusTestingDB
	c.mu.Unlock()

	dbStatus, err := c.store.TestDB(ctx)
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		dbStatus = apiErr.Message
	case errors.Is(err, apiclient.ErrMalformedResponse):
		dbStatus = StatusDBFailed
	case err != nil:
		c.log.WithError(err).Warn("database status failed")
		dbStatus = StatusDBUnreachable
	}

	c.mu.Lock()
	c.state.DBStatus = dbStatus
	c.mu.Unlock()

	if err == nil {
		c.RefreshMyReviews(ctx)
	}
}

// RefreshMyReviews reloads the owner's review list; on failure the old list stays
func (c *Controller) RefreshMyReviews(ctx context.Context) []models.MyReviewSummary {
	var reviews []models.MyReviewSummary
	owner, err := c.identity.OwnerID(ctx)
	if err == nil {
		reviews, err = c.store.MyReviews(ctx, owner)
	}
	if err != nil {
		c.log.WithError(err).Warn("my reviews failed")
		return nil
	}
	if reviews == nil {
		reviews = []models.MyReviewSummary{}
	}

	c.mu.Lock()
	c.state.MyReviews = reviews
	c.mu.Unlock()
	return append([]models.MyReviewSummary(nil), reviews...)
}

func (c *Controller) CreateTables(ctx context.Context) string {
	c.setAdminStatus(&c.state.TableStatus, StatusCreating)
	msg, err := c.store.CreateTables(ctx)
	return c.setAdminStatus(&c.state.TableStatus, c.adminResult(msg, err))
}

// CreateUser creates the default test user
func (c *Controller) CreateUser(ctx context.Context) string {
	c.setAdminStatus(&c.state.UserStatus, StatusCreating)
	var msg string
	resp, err := c.store.CreateUser(ctx, models.CreateUserInput{})
	if resp != nil {
		msg = resp.Message
	}
	return c.setAdminStatus(&c.state.UserStatus, c.adminResult(msg, err))
}

// ResetDatabase wipes the database once confirm agrees. Without confirmation nothing changes.
func (c *Controller) ResetDatabase(ctx context.Context, confirm func() bool) string {
	if confirm == nil || !confirm() {
		return ""
	}
	c.setAdminStatus(&c.state.ResetStatus, StatusDeleting)
	msg, err := c.store.ResetDatabase(ctx)
	status := c.setAdminStatus(&c.state.ResetStatus, c.adminResult(msg, err))
	if err == nil {
		c.RefreshMyReviews(ctx)
	}
	return status
}

func (c *Controller) setAdminStatus(field *string, status string) string {
	c.mu.Lock()
	*field = status
	c.mu.Unlock()
	return status
}

func (c *Controller) adminResult(msg string, err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case err != nil:
		c.log.WithError(err).Warn("admin request failed")
		return StatusRequestFailed
	}
	return msg
}
