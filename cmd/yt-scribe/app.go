package main

import (
	"os"
	"path/filepath"

	"github.com/ytscribe/ytscribe/internal/config"
	"github.com/ytscribe/ytscribe/internal/jobs"
	"github.com/ytscribe/ytscribe/internal/store"
	"github.com/ytscribe/ytscribe/internal/ytdlp"
)

// app bundles the per-invocation dependencies every command needs.
// Built fresh for each RunE; nothing command-scoped lives in globals.
type app struct {
	cfg        *config.Config
	store      *store.Store
	runner     *ytdlp.Runner
	supervisor *jobs.Supervisor
}

func newApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.General.DataDir = config.ExpandPath(dataDirFlag)
		cfg.General.DatabasePath = filepath.Join(cfg.General.DataDir, "yt-scribe.db")
	}
	if dbFlag != "" {
		cfg.General.DatabasePath = config.ExpandPath(dbFlag)
	}
	config.InitLogger(cfg)

	if err := os.MkdirAll(cfg.General.DataDir, 0o755); err != nil {
		return nil, err
	}
	st, err := store.New(cfg.General.DatabasePath)
	if err != nil {
		return nil, err
	}

	runner := ytdlp.NewRunner(cfg.YouTube)
	runner.RateLog = st

	return &app{
		cfg:        cfg,
		store:      st,
		runner:     runner,
		supervisor: jobs.NewSupervisor(st, cfg.General.DataDir),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// workerCount resolves the effective concurrency: flag wins, then
// config, floor of 1.
func (a *app) workerCount() int {
	n := concurrency
	if n <= 0 {
		n = a.cfg.General.MaxConcurrency
	}
	if n <= 0 {
		n = 1
	}
	return n
}
