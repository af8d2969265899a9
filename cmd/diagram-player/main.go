package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/park285/cheese-diagram-player/internal/config"
	"github.com/park285/cheese-diagram-player/internal/msgcat"
	"github.com/park285/cheese-diagram-player/internal/obslog"
	"go.uber.org/zap"
)

const usage = `usage: diagram-player <command> [flags]

commands:
  build   publish a PGN file as a diagram document (YAML)
  view    browse a document in the terminal
  serve   serve a document and its diagram images over HTTP
  play    run a headless navigation and print what the surface was told
`

var errUsage = errors.New("usage")

func main() {
	opts := obslog.OptionsFromEnv()
	if len(os.Args) > 1 && os.Args[1] == "view" {
		// the viewer owns the terminal
		opts.Console = false
	}
	if err := obslog.Init(opts); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		obslog.L().Error("command_failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("messages: %w", err)
	}
	env := &env{cfg: cfg, labels: msgcat.NewLabels(cat), logger: obslog.L(), stdout: stdout}

	switch args[0] {
	case "build":
		return env.build(args[1:])
	case "view":
		return env.view(ctx, args[1:])
	case "serve":
		return env.serve(ctx, args[1:])
	case "play":
		return env.play(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return errUsage
	}
}
