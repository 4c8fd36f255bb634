package main

import (
	"context"
	"net/http"
	"time"

	"scoreboard/internal/award"
	"scoreboard/internal/config"
	"scoreboard/internal/dedupe"
	"scoreboard/internal/logging"
	"scoreboard/internal/rank"
	"scoreboard/internal/relay"
	"scoreboard/internal/rules"
	"scoreboard/internal/store"
	httptransport "scoreboard/internal/transport/http"

	"github.com/rs/zerolog/log"
)

func main() {
	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)
	cfg := app.Server

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrap ledger failed")
	}

	tbl, err := rules.NewTable(cfg.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load rule table failed")
	}
	tbl.StartReloader(ctx, cfg.RulesReload())

	guard := dedupe.NewGuard(cfg.IdempotencyTTL(), cfg.ReplayTTL())
	guard.StartJanitor(ctx, time.Minute)

	board := rank.NewBoard()
	seedBoard(ctx, st, board)

	events := award.NewEventLog(cfg.NotifierRetention)
	rel := relay.New(st, relay.Config{
		Workers:     cfg.RelayWorkers,
		QueueSize:   cfg.RelayQueueSize,
		RetryMax:    cfg.RelayRetryMax,
		RetryBase:   cfg.RelayRetryBase(),
		EnqueueWait: cfg.RelayEnqueueWait(),
	})
	rel.Start(ctx)

	coord := award.NewCoordinator(tbl, guard, board, events, rel, award.Options{
		IncludeTopK: cfg.AwardIncludeTopK,
		TopKSize:    cfg.AwardTopKSize,
	})

	r := httptransport.NewRouter(st, cfg, coord, tbl, rel)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Int("users", board.Len()).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

// seedBoard reconciles the in-memory board from the durable totals, so
// ranks survive a restart up to whatever the relay had flushed.
func seedBoard(ctx context.Context, st *store.Store, board *rank.Board) {
	totals, err := st.ListUserTotals(ctx)
	if err != nil {
		log.Error().Err(err).Msg("seed board from ledger failed; starting cold")
		return
	}
	for _, ut := range totals {
		board.SeedTotal(ut.UserID, ut.Total)
	}
	log.Info().Int("users", len(totals)).Msg("board seeded from ledger")
}
