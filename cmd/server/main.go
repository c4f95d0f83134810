package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HMasataka/corsserve/internal/config"
	"github.com/HMasataka/corsserve/internal/server"
)

func main() {
	opts, ok, err := parseOptions(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if !ok {
		return
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg = opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// 起動時のカレントディレクトリを配信ルートとして固定する
	root, err := os.Getwd()
	if err != nil {
		slog.Error("failed to get working directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s, err := server.New(cfg, root, server.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// バインドエラーは Run 内でメッセージを出力済み
	if err := s.Run(ctx); err != nil {
		slog.Debug("server exited", slog.String("error", err.Error()))
	}
}
