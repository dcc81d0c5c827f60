package cli

import (
	"fmt"

	"github.com/peakmode/coach/internal/config"
	"github.com/peakmode/coach/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show coachd status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("coachd %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			// Load config; a missing file just means defaults
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Gateway:  port=%d bind=%s\n", cfg.Gateway.Port, cfg.Gateway.Bind)
			fmt.Printf("Store:    %s\n", paths.StorePath(cfg.Store.Path))

			if cfg.Backend.BaseURL != "" {
				fmt.Printf("Backend:  %s (probe=%dms timeout=%dms)\n",
					cfg.Backend.BaseURL, cfg.Backend.ProbeTimeoutMS, cfg.Backend.TimeoutMS)
			} else {
				fmt.Println("Backend:  (not configured — offline classification only)")
			}

			if cfg.Coaching.BaseURL != "" {
				fmt.Printf("Coaching: %s (stall=%dms)\n", cfg.Coaching.BaseURL, cfg.Coaching.StallTimeoutMS)
			} else {
				fmt.Println("Coaching: (not configured)")
			}

			fmt.Printf("History:  cap=%d\n", cfg.Assistant.HistoryCap)

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
