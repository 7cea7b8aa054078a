package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gowvp/botview/internal/app"
	"github.com/gowvp/botview/internal/conf"
	"github.com/ixugo/goddd/pkg/system"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// buildVersion 编译期通过 -ldflags "-X main.buildVersion=xxx" 注入
var buildVersion = "dev"

func main() {
	var confPath string
	flag.StringVar(&confPath, "conf", filepath.Join(system.Getwd(), "configs", "config.toml"), "配置文件路径")
	flag.Parse()

	var bc conf.Bootstrap
	if err := conf.SetupConfig(&bc, confPath); err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	bc.ConfigPath = confPath
	bc.BuildVersion = buildVersion

	log, closeLogger, err := setupLogger(bc.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup logger:", err)
		os.Exit(1)
	}
	defer closeLogger()

	handler, cleanup, err := app.NewHTTPHandler(&bc, log)
	if err != nil {
		slog.Error("wire app", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("http server started", "addr", srv.Addr, "version", buildVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "err", err)
	}
}

// setupLogger 日志同时打到控制台与按天轮转的文件，保留 7 天
func setupLogger(debug bool) (*slog.Logger, func(), error) {
	logDir := filepath.Join(system.Getwd(), "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}
	rotator, err := rotatelogs.New(
		filepath.Join(logDir, "server.%Y-%m-%d.log"),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stdout, rotator), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(log)
	return log, func() { _ = rotator.Close() }, nil
}
