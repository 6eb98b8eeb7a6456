// Command pos runs the register as an interactive terminal session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appkg "github.com/xenking/kdelights/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pos:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	lg, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	cfg, err := appkg.LoadConfig()
	if err != nil {
		return err
	}
	session, err := appkg.NewSession(ctx, lg, cfg, appkg.Telemetry{})
	if err != nil {
		return err
	}

	t := newTerminal(session.Register, session.Renderer, os.Stdin, os.Stdout)
	t.receiptPath = cfg.ReceiptPath
	return t.Run(ctx)
}

// newLogger logs warnings and errors to stderr so prompts stay readable.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
