package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rozovalentina/musicnet-signaling-server/internal/config"
	"github.com/rozovalentina/musicnet-signaling-server/internal/server"
	"github.com/rozovalentina/musicnet-signaling-server/internal/signaling"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("bad configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := signaling.NewRegistry()

	hub := signaling.NewHub(registry, log)
	go hub.Run(ctx)

	sweeper := signaling.NewSweeper(registry, log, cfg.SweepInterval, cfg.WaitingTTL, cfg.EmptyGrace)
	go sweeper.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.Health)
	mux.HandleFunc("/ws", server.ServeWs(hub, log))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("signaling server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
