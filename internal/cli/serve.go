package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/peakmode/coach/internal/actions"
	"github.com/peakmode/coach/internal/assistant"
	"github.com/peakmode/coach/internal/config"
	"github.com/peakmode/coach/internal/dispatch"
	"github.com/peakmode/coach/internal/gateway"
	"github.com/peakmode/coach/internal/intent"
	"github.com/peakmode/coach/internal/logging"
	"github.com/peakmode/coach/internal/nlp"
	"github.com/peakmode/coach/internal/store"
	"github.com/peakmode/coach/internal/stream"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// The --log-level flag wins over the config file.
			if logLevel == "" {
				log = logging.NewStyled(nil, cfg.Logging.Level, cfg.Logging.ConsoleStyle)
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("preparing data directory: %w", err)
			}

			dbPath := paths.StorePath(cfg.Store.Path)
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			log.Info().Str("path", dbPath).Msg("conversation store ready")

			history := store.NewHistoryStore(db, cfg.Assistant.HistoryCap)

			runner := buildRunner(cfg, history)
			defer runner.Shutdown()

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, runner, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

// buildRunner wires the classification pipeline and coaching stream from config.
func buildRunner(cfg config.Config, history *store.HistoryStore) *assistant.Runner {
	var (
		probe  nlp.ConnectivityProbe = nlp.StaticProbe(false)
		online dispatch.Classifier
	)
	if cfg.Backend.BaseURL != "" {
		probe = nlp.NewHealthProbe(cfg.Backend.BaseURL, time.Duration(cfg.Backend.ProbeTimeoutMS)*time.Millisecond)
		online = nlp.NewClient(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutMS)*time.Millisecond)
		log.Info().Str("url", cfg.Backend.BaseURL).Msg("online classification backend configured")
	} else {
		log.Warn().Msg("no classification backend configured — running offline only")
	}

	var answerer actions.Answerer
	if client, ok := online.(*nlp.Client); ok {
		answerer = client
	}
	registry := actions.NewRegistry(answerer, log)
	dispatcher := dispatch.New(probe, online, intent.NewOfflineClassifier(), registry, log)

	var coach *stream.Client
	if cfg.Coaching.BaseURL != "" {
		coach = stream.NewClient(cfg.Coaching.BaseURL, time.Duration(cfg.Coaching.StallTimeoutMS)*time.Millisecond)
		log.Info().Str("url", cfg.Coaching.BaseURL).Msg("coaching stream backend configured")
	} else {
		log.Warn().Msg("no coaching backend configured — coach sessions will be unavailable")
	}

	return assistant.NewRunner(dispatcher, history, coach, cfg.Assistant.Welcome, log)
}
