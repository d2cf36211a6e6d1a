package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"flowviewer/internal/config"
	"flowviewer/internal/server"
	"flowviewer/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("Invalid LOG_LEVEL: %s", cfg.Log.Level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logrus.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer st.Close()

	logrus.Infof("Using %s store, chart time offset %s", cfg.Store.Backend, cfg.Chart.TZOffset)

	srv := server.New(cfg, st)
	logrus.Infof("Starting server on %s", cfg.ListenAddr())
	if err := srv.Run(ctx); err != nil {
		logrus.Errorf("Server error: %v", err)
	}
}
