// Package main runs a live betting session against the chat coinflip game:
// connect, read the balance, then let the risk engine drive rounds until a
// stop condition fires or the operator shuts it down.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"coinflip-pilot/internal/config"
	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/engine"
	"coinflip-pilot/internal/game/chat"
	"coinflip-pilot/internal/notifier"
	"coinflip-pilot/internal/observability"
	"coinflip-pilot/internal/session"
	"coinflip-pilot/internal/storage"
	chstore "coinflip-pilot/internal/storage/clickhouse"
	"coinflip-pilot/internal/storage/memory"
	"coinflip-pilot/internal/storage/migrations"
	pgstore "coinflip-pilot/internal/storage/postgres"
	"coinflip-pilot/internal/verification"
)

func main() {
	configPath := flag.String("config", "pilot.yaml", "Path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Game client
	client, err := chat.Dial(ctx, cfg.Gateway.URL, cfg.Gateway.Channel, &chat.ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
		ResultTimeout:     cfg.Gateway.ResultTimeout,
	}, log.With().Str("component", "chat").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("connect to gateway")
	}
	defer client.Close()

	balance, err := client.Balance(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("read starting balance")
	}
	log.Info().Float64("balance", balance).Msg("starting balance")

	eng, err := engine.New(cfg.RiskConfig(), balance)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid risk configuration")
	}

	// Storage
	sessions, rounds, archive, closeStores, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect storage")
	}
	defer closeStores()

	runner := session.New(eng, client, notifier.NewLogNotifier(log), session.Config{
		CommandRetries: cfg.Gateway.CommandRetries,
		BetDelayMin:    cfg.Gateway.BetDelayMin,
		BetDelayMax:    cfg.Gateway.BetDelayMax,
	}, log.With().Str("component", "session").Logger(),
		session.WithSessionStore(sessions),
		session.WithRoundStore(rounds),
		session.WithRoundArchive(archive),
	)

	// Verification monitor pauses the session; only SIGUSR1 resumes it.
	var monitor *verification.Monitor
	if cfg.Verification.Enabled {
		monitor = verification.New(client, runner, cfg.Verification.CheckInterval,
			log.With().Str("component", "verification").Logger())
		monitor.Start()
		defer monitor.Stop()
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Listen, log)
	}

	go handleSignals(ctx, cancel, client, runner, monitor, log)

	summary, err := runner.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("session failed")
	}

	log.Info().
		Str("stop_reason", summary.StopReason).
		Float64("starting_balance", summary.StartingBalance).
		Float64("final_balance", summary.FinalBalance).
		Float64("net_profit", summary.NetProfit).
		Int("rounds", summary.TotalRounds).
		Float64("win_rate_pct", summary.WinRatePct).
		Float64("max_drawdown_pct", summary.MaxDrawdownPct).
		Dur("duration", summary.Duration).
		Msg("session summary")
}

// handleSignals maps operator signals onto session control: SIGINT/SIGTERM
// stop the session, SIGUSR1 resyncs the balance and resumes after a
// verification pause.
func handleSignals(ctx context.Context, cancel context.CancelFunc, client *chat.Client, runner *session.Runner, monitor *verification.Monitor, log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				log.Info().Msg("resume requested")
				if balance, err := client.Balance(ctx); err != nil {
					log.Warn().Err(err).Msg("balance resync failed, resuming with tracked balance")
				} else {
					runner.SyncBalance(balance)
				}
				if monitor != nil {
					monitor.Reset()
				}
				runner.Resume()
			default:
				log.Info().Str("signal", sig.String()).Msg("shutdown requested")
				runner.RequestStop(domain.StopReasonManual)
				cancel()
				return
			}
		}
	}
}

// buildStores connects the configured backends, falling back to in-memory
// stores when no DSN is configured.
func buildStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.SessionStore, storage.RoundStore, storage.RoundArchiveStore, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var sessions storage.SessionStore
	var rounds storage.RoundStore
	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, closeAll, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, nil, nil, closeAll, err
		}
		sessions = pgstore.NewSessionStore(pool)
		rounds = pgstore.NewRoundStore(pool)
		log.Info().Msg("using postgres storage")
	} else {
		sessions = memory.NewSessionStore()
		rounds = memory.NewRoundStore()
		log.Info().Msg("using in-memory storage, session history will not survive restart")
	}

	var archive storage.RoundArchiveStore
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, nil, closeAll, err
		}
		closers = append(closers, func() { conn.Close() })
		archive = chstore.NewRoundArchiveStore(conn)
		log.Info().Msg("using clickhouse round archive")
	}

	return sessions, rounds, archive, closeAll, nil
}

func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	log.Info().Str("addr", addr).Msg("metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics listener failed")
	}
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Logging.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
