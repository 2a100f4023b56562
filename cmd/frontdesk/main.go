package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Raymond9734/film-rental-frontdesk/internal/config"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/telemetry"
)

const usage = `usage: frontdesk <command> [flags]

commands:
  customers        list the customer directory
  customer-add     register a customer
  customer-edit    change a customer's details
  customer-delete  deactivate a customer
  film             show a film's details
  films            search the catalog
  inventory        list the copies of a film that can be rented
  rent             rent a copy to a customer
  return           close a rental
  top              show the most rented films and actors
`

func main() {
	// Logs go to stderr so the tables on stdout stay clean
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		logger.Error("failed to load env file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "frontdesk-cli",
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		logger.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = run(ctx, os.Args[1:], cfg.FrontDesk, os.Stdout, os.Stderr, logger)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if ferr := shutdownTracing(flushCtx); ferr != nil {
		logger.Warn("failed to flush traces", slog.String("error", ferr.Error()))
	}
	cancel()

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, models.UserMessage(err))
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// run executes one command. Usage problems are reported on stderr and
// returned as errUsage.
func run(ctx context.Context, args []string, cfg config.FrontDeskConfig, stdout, stderr io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	a := newApp(cfg, stdout, logger)
	name, rest := args[0], args[1:]

	cmd, ok := a.commands()[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return errUsage
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	exec := cmd(fs)
	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if err := exec(ctx); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
		}
		return err
	}
	return nil
}
