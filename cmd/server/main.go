package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kavin024/colorclash/internal/cache"
	"github.com/kavin024/colorclash/internal/config"
	"github.com/kavin024/colorclash/internal/room"
	"github.com/kavin024/colorclash/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not load .env")
	}
	cfg := config.Load()

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	history := cache.NewPublisher(cfg.RedisAddr)
	defer history.Close()
	if history != nil {
		logrus.WithField("addr", cfg.RedisAddr).Info("action history enabled")
	}

	hub := ws.NewHub()
	sessions := room.NewManager(cfg, hub, history)
	server := ws.NewServer(hub, sessions)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown incomplete")
	}
	sessions.Stop()
}
