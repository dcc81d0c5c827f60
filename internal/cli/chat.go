package cli

import (
	"fmt"
	"strings"

	"github.com/peakmode/coach/internal/config"
	"github.com/peakmode/coach/internal/store"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		userID  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message through the assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := config.Load(paths.Config)
			if err != nil {
				cfg = config.Defaults()
			}

			// One-shot turns run against an in-memory store so smoke
			// tests never touch the real conversation history.
			db, err := store.Open(":memory:", log)
			if err != nil {
				return err
			}
			defer db.Close()
			history := store.NewHistoryStore(db, cfg.Assistant.HistoryCap)

			runner := buildRunner(cfg, history)
			defer runner.Shutdown()

			runner.Open(userID)
			outcome, err := runner.Send(userID, message)
			if err != nil {
				return err
			}
			if outcome == nil {
				return nil
			}

			fmt.Println(outcome.Assistant.Text)
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[intent=%s confidence=%.2f path=%s]\n",
					outcome.Result.Intent.Intent, outcome.Result.Intent.Confidence, outcome.Result.Path)
				for _, card := range outcome.Assistant.Cards {
					fmt.Fprintf(cmd.ErrOrStderr(), "[card type=%s title=%q]\n", card.Type, card.Title)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "local", "user ID for the turn")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print classification details")

	return cmd
}
