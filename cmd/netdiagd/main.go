package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/netdiag/backend/internal/bridge"
	"github.com/netdiag/backend/internal/discovery"
	"github.com/netdiag/backend/internal/oui"
	"github.com/netdiag/backend/internal/stress"
)

var (
	// Set by LDFLAGS.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	ScanDeadline time.Duration
	ScanDelay    time.Duration
	Verbose      bool
	JSONLogs     bool
	ShowVersion  bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("netdiagd version: %s, commit: %s, date: %s\n", version, commit, date)
		return nil
	}

	log := newLogger(cfg.Verbose, cfg.JSONLogs)

	registry := oui.New()
	log.Info("netdiagd: loaded OUI registry", "entries", registry.Len())

	scanner := discovery.New(registry,
		discovery.WithLogger(log.With("component", "discovery")),
		discovery.WithDeadline(cfg.ScanDeadline),
		discovery.WithScanDelay(cfg.ScanDelay),
	)
	engine := stress.New(
		stress.WithLogger(log.With("component", "stress")),
	)
	backend := bridge.New(
		bridge.WithLogger(log.With("component", "bridge")),
		bridge.WithScanner(scanner),
		bridge.WithEngine(engine),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// This binary does not implement the UI transport (spec §6/§1
	// non-goal); running a scan on start is a smoke test showing the
	// bridge is wired end to end.
	devices, err := backend.ScanNetwork(ctx)
	if err != nil {
		log.Error("netdiagd: scan failed", "error", err)
		return err
	}
	out, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}

func parseFlags() config {
	var cfg config
	flag.DurationVar(&cfg.ScanDeadline, "scan-deadline", 5*time.Second, "how long to wait for ARP replies during a scan")
	flag.DurationVar(&cfg.ScanDelay, "scan-delay", 0, "fixed delay between ARP request frames during a scan burst")
	flag.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging")
	flag.BoolVar(&cfg.JSONLogs, "json-logs", false, "emit structured JSON logs instead of color text")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print build version and exit")
	flag.Parse()
	return cfg
}

func newLogger(verbose, jsonLogs bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
