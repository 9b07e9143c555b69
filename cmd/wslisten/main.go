// Command wslisten connects to the realtime endpoint and prints notification
// events. With -clients > 1 it holds that many sockets open and reports
// connection and event counts instead, which is useful for load checks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"murmur/internal/config"
	"murmur/internal/middleware"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/wsclient"
)

type counters struct {
	attempted atomic.Int64
	connected atomic.Int64
	failed    atomic.Int64
	events    atomic.Int64
}

func main() {
	if err := run(); err != nil {
		observability.Logger.Error("wslisten failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	baseURL := flag.String("url", "http://localhost:8375", "API base URL")
	token := flag.String("token", "", "Bearer token")
	userID := flag.Uint("user", 0, "Sign a development token for this user id with JWT_SECRET instead of -token")
	clients := flag.Int("clients", 1, "Number of concurrent sockets")
	duration := flag.Duration("duration", 0, "Stop after this long (0 waits for a signal)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := observability.InitLogger(cfg.Env, cfg.LogLevel)

	if *token == "" {
		if *userID == 0 {
			return errors.New("one of -token or -user is required")
		}
		if cfg.Env == "production" {
			return errors.New("refusing to sign tokens in production; pass -token")
		}
		if *token, err = middleware.IssueToken(cfg.JWTSecret, *userID, time.Hour); err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
	}
	if *clients < 1 {
		*clients = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	client := wsclient.New(*baseURL, *token)
	var stats counters
	out := json.NewEncoder(os.Stdout)
	var outMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			stats.attempted.Add(1)

			conn, err := client.Dial(ctx)
			if err != nil {
				stats.failed.Add(1)
				log.Warn("connect failed", slog.Int("client", id), slog.String("error", err.Error()))
				return
			}
			stats.connected.Add(1)

			err = wsclient.Listen(ctx, conn, func(ev notifications.Event) {
				stats.events.Add(1)
				if *clients == 1 {
					outMu.Lock()
					_ = out.Encode(ev)
					outMu.Unlock()
				}
			})
			if err != nil {
				log.Warn("socket closed", slog.Int("client", id), slog.String("error", err.Error()))
			}
		}(i)
		if *clients > 1 {
			// Spread ticket requests so the per-IP limiter is not tripped at once.
			time.Sleep(50 * time.Millisecond)
		}
	}

	wg.Wait()
	log.Info("wslisten finished",
		slog.Int64("attempted", stats.attempted.Load()),
		slog.Int64("connected", stats.connected.Load()),
		slog.Int64("failed", stats.failed.Load()),
		slog.Int64("events", stats.events.Load()),
	)
	if stats.connected.Load() == 0 {
		return errors.New("no socket connected")
	}
	return nil
}
