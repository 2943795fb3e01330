package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/infra-challenge/greeter/internal/config"
	applog "github.com/infra-challenge/greeter/internal/platform/logging"
	"github.com/infra-challenge/greeter/internal/server"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run returns the process exit code: 0 after a clean shutdown, 1 on any
// configuration, bind or serve failure.
func run(ctx context.Context) int {
	defer func() {
		_ = applog.Sync()
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(ctx, "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogError(ctx, "config load failed", err)
		return 1
	}
	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		applog.LogError(ctx, "invalid log level", err)
		return 1
	}

	srv := server.New(cfg, Version)
	if err := srv.Run(ctx); err != nil {
		if errors.Is(err, server.ErrBind) {
			applog.LogError(ctx, "listen failed", err, zap.String("addr", cfg.Addr()))
		} else {
			applog.LogError(ctx, "server error", err)
		}
		return 1
	}
	applog.LogInfo(ctx, "server exited")
	return 0
}
