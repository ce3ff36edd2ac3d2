package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gamegscore/models"
	"gamegscore/viewstate"

	"github.com/spf13/cobra"
)

func newStatusCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show API and database status and your reviews",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			sess.controller.Init(cmd.Context())
			s := sess.controller.Snapshot()
			printf(cmd, "API: %s\nDatabase: %s\n", s.APIMessage, s.DBStatus)
			printMyReviews(cmd, s.MyReviews)
		},
	}
}

func newSearchCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the game catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := sess.controller.Search(cmd.Context(), strings.Join(args, " "))
			s := sess.controller.Snapshot()
			if s.SearchStatus != "" {
				return fmt.Errorf("%s", s.SearchStatus)
			}
			if len(results) == 0 {
				printf(cmd, "no games found.\n")
				return nil
			}
			for _, game := range results {
				printf(cmd, "%8d  %s\n", game.ID, game.Name)
			}
			return nil
		},
	}
}

func newShowCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show a game and your review of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			if _, err := selectGame(cmd, sess, id); err != nil {
				return err
			}
			printReview(cmd, sess.controller.Snapshot())
			return nil
		},
	}
}

func newRateCmd(sess *session) *cobra.Command {
	scores := map[string]*float64{}
	cmd := &cobra.Command{
		Use:   "rate <game-id>",
		Short: "Create or update your review of a game",
		Long:  "Loads your current review of the game, applies the given scores and saves it. Scores not given keep their loaded value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			if _, err := selectGame(cmd, sess, id); err != nil {
				return err
			}
			// without the saved review, scores not given would be overwritten with defaults
			if status := sess.controller.Snapshot().ReviewStatus; status == viewstate.StatusLoadFailed {
				return fmt.Errorf("%s nothing was saved", status)
			}

			for _, field := range models.ScoreFields {
				if !cmd.Flags().Changed(field) {
					continue
				}
				if err := sess.controller.UpdateField(field, *scores[field]); err != nil {
					return err
				}
			}

			status := sess.controller.SubmitReview(cmd.Context())
			s := sess.controller.Snapshot()
			printReview(cmd, s)
			if status == viewstate.StatusSaveFailed || strings.HasPrefix(status, "Error: ") {
				return fmt.Errorf("%s", status)
			}
			return nil
		},
	}
	for _, field := range models.ScoreFields {
		scores[field] = cmd.Flags().Float64(field, models.DefaultScore, field+" score, 0 to 10 in steps of 0.5")
	}
	return cmd
}

func newProfileCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "List your reviews and profile statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printMyReviews(cmd, sess.controller.RefreshMyReviews(cmd.Context()))

			stats, err := sess.client.Stats(cmd.Context(), sess.owner)
			if err != nil {
				return err
			}
			printf(cmd, "\nReviews: %d  Average: %.1f  Best: %s\n", stats.TotalReviews, stats.AverageScore, stats.BestGame)
			d := stats.DimensionAverages
			printf(cmd, "jogabilidade %.1f  graficos %.1f  narrativa %.1f  audio %.1f  desempenho %.1f\n",
				d.Jogabilidade, d.Graficos, d.Narrativa, d.Audio, d.Desempenho)
			return nil
		},
	}
}

func newLoginCmd(sess *session) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token for --token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sess.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printf(cmd, "%s (user %d)\n%s\n", resp.Message, resp.UserID, resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminCmd(sess *session) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Database maintenance",
	}

	admin.AddCommand(&cobra.Command{
		Use:   "create-tables",
		Short: "Create the database tables",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printf(cmd, "%s\n", sess.controller.CreateTables(cmd.Context()))
		},
	})

	admin.AddCommand(&cobra.Command{
		Use:   "create-user",
		Short: "Create the default test user",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printf(cmd, "%s\n", sess.controller.CreateUser(cmd.Context()))
		},
	})

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every table",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			confirm := confirmFrom(cmd.InOrStdin(), cmd.OutOrStdout(), "This deletes every review and user. Are you sure? [y/N] ")
			if yes {
				confirm = func() bool { return true }
			}
			status := sess.controller.ResetDatabase(cmd.Context(), confirm)
			if status == "" {
				status = "reset cancelled."
			}
			printf(cmd, "%s\n", status)
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	admin.AddCommand(reset)

	return admin
}

// selectGame opens a game through the controller, turning a silent miss into an error
func selectGame(cmd *cobra.Command, sess *session, id uint) (*models.GameDetails, error) {
	game := sess.controller.SelectGame(cmd.Context(), id)
	if game == nil {
		if status := sess.controller.Snapshot().ReviewStatus; status != "" {
			return nil, fmt.Errorf("%s", status)
		}
		return nil, fmt.Errorf("game %d not found", id)
	}
	return game, nil
}

// confirmFrom asks on w and reads the answer from r
func confirmFrom(r io.Reader, w io.Writer, prompt string) func() bool {
	return func() bool {
		fmt.Fprint(w, prompt)
		answer, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func parseGameID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid game id %q", raw)
	}
	return uint(id), nil
}

func printReview(cmd *cobra.Command, s viewstate.State) {
	if s.Selected != nil {
		printf(cmd, "%s (#%d)\n", s.Selected.Name, s.Selected.ID)
		if s.Selected.Description != "" {
			printf(cmd, "%s\n", s.Selected.Description)
		}
		printf(cmd, "\n")
	}
	for _, field := range models.ScoreFields {
		value, _ := s.Review.Get(field)
		printf(cmd, "  %-13s %4.1f\n", field, value)
	}
	printf(cmd, "  %-13s %4s\n", "nota geral", s.AverageLabel())
	if s.ReviewStatus != "" {
		printf(cmd, "\n%s\n", s.ReviewStatus)
	}
}

func printMyReviews(cmd *cobra.Command, reviews []models.MyReviewSummary) {
	if len(reviews) == 0 {
		printf(cmd, "You have not reviewed any game yet.\n")
		return
	}
	printf(cmd, "My reviews:\n")
	for _, r := range reviews {
		printf(cmd, "  %-40s %4.1f\n", r.GameName, r.NotaGeral)
	}
}
