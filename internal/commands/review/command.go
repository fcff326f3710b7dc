package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/commands/cmdutil"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

var (
	userID string
	title  string
	rating float64
)

// ReviewCmd stores a review from the command line.
var ReviewCmd = &cobra.Command{
	Use:   "review [text]",
	Short: "Store a review in a user's memory",
	Long:  `Store a review in a user's memory. Omit --rating to record the review as not rated.`,
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := retrieval.ReviewInput{
			UserID: strings.TrimSpace(userID),
			Title:  strings.TrimSpace(title),
			Text:   strings.TrimSpace(strings.Join(args, " ")),
		}
		if in.UserID == "" || in.Title == "" {
			return errors.New("--user and --title are required")
		}
		if in.Text == "" {
			in.Text = consts.DefaultReviewText
		}
		if cmd.Flags().Changed("rating") {
			if rating < 0 || rating > 10 {
				return fmt.Errorf("rating must be between 0 and 10, got %g", rating)
			}
			r := rating
			in.Rating = &r
		}

		a, err := cmdutil.Open(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Gateway.RecordReview(cmd.Context(), in); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored review of %s for %s\n", in.Title, in.UserID)
		return nil
	},
}

func init() {
	ReviewCmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	ReviewCmd.Flags().StringVarP(&title, "title", "t", "", "movie title")
	ReviewCmd.Flags().Float64VarP(&rating, "rating", "r", 0, "rating from 0 to 10")
}
