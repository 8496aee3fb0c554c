package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"lrusvc/internal/comments"
	"lrusvc/internal/config"
	"lrusvc/internal/logging"
	"lrusvc/internal/metrics"
	"lrusvc/internal/peer"
	"lrusvc/internal/posts"
	"lrusvc/internal/server"
	"lrusvc/internal/store"
)

// service is the part that differs between the posts and comments commands.
type service interface {
	Register(mux *http.ServeMux, m *metrics.Metrics)
}

type buildFunc func(st *store.Store, pc *peer.Client, capacity int, log *slog.Logger) (service, error)

func runPosts(ctx *cli.Context) error {
	return run(ctx, "posts", func(st *store.Store, pc *peer.Client, capacity int, log *slog.Logger) (service, error) {
		return posts.New(st, pc, capacity, log)
	})
}

func runComments(ctx *cli.Context) error {
	return run(ctx, "comments", func(st *store.Store, pc *peer.Client, capacity int, log *slog.Logger) (service, error) {
		return comments.New(st, pc, capacity, log)
	})
}

func run(ctx *cli.Context, name string, build buildFunc) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	log = log.With("service", name)

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := build(st, peer.New(cfg.Peer, nil), cfg.CacheCapacity, log)
	if err != nil {
		return err
	}
	log.Info("LRU cache enabled", "capacity", cfg.CacheCapacity, "peer", cfg.Peer.URL("/"), "datadir", describeDataDir(cfg))

	mux := http.NewServeMux()
	m := metrics.New(name)
	svc.Register(mux, m)

	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(sigctx, cfg.Listen, server.Mux(mux, m), log)
}

func describeDataDir(cfg config.Config) string {
	if cfg.DataDir == "" {
		return "(memory)"
	}
	return cfg.DataDir
}
