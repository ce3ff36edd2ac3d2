package viewstate

import (
	"context"
	"fmt"

	"gamegscore/models"
)

// Review status lines shown next to the form
const (
	StatusFirstReview   = "be the first to review."
	StatusReviewLoaded  = "review loaded from your profile."
	StatusLoadFailed    = "failed to load review."
	StatusSaveFailed    = "failed to save review."
	StatusSaving        = "saving..."
	StatusSearchFailed  = "search failed."
	StatusDetailsFailed = "failed to load game details."
)

// Dashboard status lines
const (
	StatusTestingDB     = "testing connection..."
	StatusDBFailed      = "failed to connect to database"
	StatusDBUnreachable = "database connection error."
	StatusCreating      = "creating..."
	StatusDeleting      = "deleting..."
	StatusRequestFailed = "request failed."
)

// State is everything the dashboard renders. It only changes through Controller operations.
type State struct {
	Query         string               `json:"query"`
	Results       []models.GameSummary `json:"results"`
	SearchLoading bool                 `json:"search_loading"`
	SearchStatus  string               `json:"search_status"`

	Selected       *models.GameDetails `json:"selected_game"`
	DetailsLoading bool                `json:"details_loading"`

	Review       models.ReviewScores `json:"review"`
	Average      *float64            `json:"average"`
	ReviewStatus string              `json:"review_status"`

	MyReviews []models.MyReviewSummary `json:"my_reviews"`

	APIMessage  string `json:"api_message"`
	DBStatus    string `json:"db_status"`
	TableStatus string `json:"table_status"`
	UserStatus  string `json:"user_status"`
	ResetStatus string `json:"reset_status"`
}

func initialState() State {
	return State{
		Results:   []models.GameSummary{},
		Review:    models.DefaultScores(),
		MyReviews: []models.MyReviewSummary{},
	}
}

// AverageLabel renders the average with one decimal, or "-" when there is none
func (s State) AverageLabel() string {
	if s.Average == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *s.Average)
}

func (s State) clone() State {
	out := s
	out.Results = append([]models.GameSummary(nil), s.Results...)
	out.MyReviews = append([]models.MyReviewSummary(nil), s.MyReviews...)
	if out.Results == nil {
		out.Results = []models.GameSummary{}
	}
	if out.MyReviews == nil {
		out.MyReviews = []models.MyReviewSummary{}
	}
	if s.Selected != nil {
		game := *s.Selected
		out.Selected = &game
	}
	if s.Average != nil {
		avg := *s.Average
		out.Average = &avg
	}
	return out
}

// Store is the remote review API
type Store interface {
	Hello(ctx context.Context) (string, error)
	TestDB(ctx context.Context) (string, error)
	Search(ctx context.Context, query string) ([]models.GameSummary, error)
	Game(ctx context.Context, id uint) (*models.GameDetails, error)
	Review(ctx context.Context, gameID, ownerID uint) (*models.Review, error)
	SubmitReview(ctx context.Context, input models.ReviewInput) (string, error)
	MyReviews(ctx context.Context, ownerID uint) ([]models.MyReviewSummary, error)
	CreateTables(ctx context.Context) (string, error)
	CreateUser(ctx context.Context, input models.CreateUserInput) (*models.AuthResponse, error)
	ResetDatabase(ctx context.Context) (string, error)
}

// Identity resolves who the reviews belong to
type Identity interface {
	OwnerID(ctx context.Context) (uint, error)
}

// FixedOwner always answers the same owner
type FixedOwner uint

func (f FixedOwner) OwnerID(context.Context) (uint, error) {
	return uint(f), nil
}
