package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/qa-forum/frontend/internal/config"
	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/metrics"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/api"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/forum"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/push"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/session"
)

// app holds everything a command needs, built from env and flags.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	client   *api.Client
	store    *session.PebbleStore
	accounts *account.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlagOverrides(cmd, cfg)

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using process environment only")
	}

	store, err := session.OpenPebble(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client := api.NewClient(cfg.API, m)

	return &app{
		cfg:      cfg,
		metrics:  m,
		client:   client,
		store:    store,
		accounts: account.NewService(client, store),
	}, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("api"); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := flags.GetString("ws"); v != "" {
		cfg.Push.URL = v
	}
	if v, _ := flags.GetString("data-dir"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
}

// synchronizer builds the live list; withPush attaches the push channel.
func (a *app) synchronizer(withPush bool) *forum.Synchronizer {
	opts := forum.Options{Metrics: a.metrics}
	if withPush {
		pushOpts := push.DefaultOptions(a.cfg.Push.URL)
		pushOpts.Policy = push.Policy{MaxRetries: a.cfg.Push.MaxRetries, BaseDelay: a.cfg.Push.BaseDelay}
		opts.Push = &pushOpts
	}
	return forum.NewSynchronizer(a.client, a.store, opts)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close session store")
	}
}
