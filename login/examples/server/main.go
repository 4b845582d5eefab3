// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command server is a relying party wired with caplogin: a login page which
// redirects straight to the provider when it can, a callback for both the
// code and implicit flows, local login, logout with a forced provider prompt
// and a provider-side change password link.
//
// It is configured with CAPLOGIN_ environment variables, see config.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/caplogin/storage"
	caplogredis "github.com/hashicorp/caplogin/storage/redis"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "caplogin",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config, logger hclog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	s, err := newServer(cfg, store, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srvCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "issuer", cfg.Issuer)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCh <- err
		}
	}()

	select {
	case err := <-srvCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore connects to redis when configured, otherwise login state is kept
// in memory and lost on restart.
func openStore(ctx context.Context, cfg *config, logger hclog.Logger) (storage.Store, func(), error) {
	const op = "openStore"
	if cfg.RedisAddr == "" {
		m := storage.NewMemory()
		return m, m.Stop, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("%s: unable to reach redis at %s: %w", op, cfg.RedisAddr, err)
	}
	s, err := caplogredis.New(client, cfg.RedisPrefix)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("using redis store", "addr", cfg.RedisAddr)
	return s, func() { _ = client.Close() }, nil
}
