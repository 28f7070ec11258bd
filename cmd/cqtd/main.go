// Package main is the entry point for cqtd, a headless constant-Q
// transform daemon. In --serve mode it exposes internal/ipc's Unix-socket
// control plane; otherwise it runs a single analysis against a raw PCM
// file and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/austinkregel/constantq-go/internal/config"
	"github.com/austinkregel/constantq-go/internal/ipc"
	"github.com/austinkregel/constantq-go/internal/orchestrate"
	"github.com/austinkregel/constantq-go/internal/pcmio"
	"github.com/austinkregel/constantq-go/internal/wire"
)

// Version is set at build time via ldflags.
var Version = "dev"

type cliConfig struct {
	Serve      bool
	SocketPath string
	ConfigDir  string
	Verbose    bool

	// One-shot mode flags.
	Input         string
	Format        string
	Channels      int
	SampleRate    int
	MinFrequency  float64
	MaxFrequency  float64
	BinsPerOctave int
	Threshold     float64
	FrameInterval int
	WorkerCount   int
}

func main() {
	cfg := parseFlags()

	if cfg.Verbose {
		log.Printf("cqtd version %s starting...", Version)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}

	pflag.BoolVarP(&cfg.Serve, "serve", "s", false, "Run as a daemon, listening on a Unix socket")
	pflag.StringVar(&cfg.SocketPath, "socket", "", "IPC socket path (default: auto-generated based on UID)")
	pflag.StringVar(&cfg.ConfigDir, "config", "", "Configuration directory (default: ~/.config/cqtd)")
	pflag.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")

	pflag.StringVarP(&cfg.Input, "input", "i", "", "Raw PCM file to analyze (one-shot mode)")
	pflag.StringVar(&cfg.Format, "format", "s16le", "Input sample format: s16le or f64le")
	pflag.IntVar(&cfg.Channels, "channels", 1, "Interleaved channel count in the input file")
	pflag.IntVar(&cfg.SampleRate, "rate", 0, "Sample rate in Hz (default: from config)")
	pflag.Float64Var(&cfg.MinFrequency, "fmin", 0, "Minimum analysis frequency in Hz (default: from config)")
	pflag.Float64Var(&cfg.MaxFrequency, "fmax", 0, "Maximum analysis frequency in Hz (default: from config)")
	pflag.IntVar(&cfg.BinsPerOctave, "bins-per-octave", 0, "Bins per octave (default: from config)")
	pflag.Float64Var(&cfg.Threshold, "threshold", 0, "Sparse kernel magnitude threshold (default: from config)")
	pflag.IntVar(&cfg.FrameInterval, "frame-interval", 0, "Samples advanced between analysis frames (default: from config)")
	pflag.IntVar(&cfg.WorkerCount, "workers", 0, "Analysis worker count (0: GOMAXPROCS)")

	help := pflag.BoolP("help", "h", false, "Display help text")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cqtd: constant-Q transform daemon / one-shot analyzer\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  cqtd --serve [flags]\n  cqtd -i <file> [flags]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if cfg.ConfigDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		cfg.ConfigDir = homeDir + "/.config/cqtd"
	}

	if cfg.SocketPath == "" {
		cfg.SocketPath = fmt.Sprintf("/tmp/cqtd-%d.sock", os.Getuid())
	}

	return cfg
}

func run(ctx context.Context, cfg *cliConfig) error {
	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configMgr := config.NewManager(cfg.ConfigDir)
	if err := configMgr.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Serve {
		return runServe(ctx, cfg, configMgr)
	}
	return runOneShot(ctx, cfg, configMgr)
}

func runServe(ctx context.Context, cfg *cliConfig, configMgr *config.Manager) error {
	daemonCfg := configMgr.Get()
	daemonCfg.SocketPath = cfg.SocketPath
	if err := configMgr.Update(daemonCfg); err != nil {
		return fmt.Errorf("failed to persist socket path: %w", err)
	}

	server := ipc.NewServer(cfg.SocketPath, configMgr)

	log.Printf("Starting IPC server on %s", cfg.SocketPath)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("IPC server error: %w", err)
	}
	return nil
}

// oneShotResult is the JSON document printed to stdout for a one-shot
// analysis: bins as the fast axis, one row per analysis frame.
type oneShotResult struct {
	Bins   int         `json:"bins"`
	Frames int         `json:"frames"`
	Values [][]float64 `json:"values"`
}

func runOneShot(ctx context.Context, cfg *cliConfig, configMgr *config.Manager) error {
	if cfg.Input == "" {
		return fmt.Errorf("one-shot mode requires --input (or pass --serve to run as a daemon)")
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	var samples []float64
	switch cfg.Format {
	case "s16le":
		samples, err = pcmio.ReadInt16LE(f)
	case "f64le":
		samples, err = pcmio.ReadFloat64LE(f)
	default:
		return fmt.Errorf("unknown input format %q", cfg.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	samples = pcmio.ToMono(samples, cfg.Channels)

	defaults := configMgr.Get().Analysis
	params := orchestrate.Params{
		FS:            firstNonZeroInt(cfg.SampleRate, defaults.SampleRate),
		FMin:          firstNonZeroFloat(cfg.MinFrequency, defaults.MinFrequency),
		FMax:          firstNonZeroFloat(cfg.MaxFrequency, defaults.MaxFrequency),
		BinsPerOctave: firstNonZeroInt(cfg.BinsPerOctave, defaults.BinsPerOctave),
		Threshold:     firstNonZeroFloat(cfg.Threshold, defaults.Threshold),
		FrameInterval: firstNonZeroInt(cfg.FrameInterval, defaults.FrameInterval),
		WorkerCount:   cfg.WorkerCount,
	}

	var bins int
	var rows [][]float64
	statusSink := wire.StatusSinkFunc(func(code wire.StatusCode, payload int) {
		if cfg.Verbose {
			log.Printf("status: code=%d payload=%d", code, payload)
		}
		if code == wire.StatusSparseKernelComplete {
			rows = make([][]float64, payload)
		}
	})
	dataSink := wire.DataSinkFunc(func(frameIndex, bin int, magnitude float64) {
		if bin+1 > bins {
			bins = bin + 1
		}
		if rows[frameIndex] == nil {
			rows[frameIndex] = make([]float64, bins)
		}
		if len(rows[frameIndex]) <= bin {
			grown := make([]float64, bin+1)
			copy(grown, rows[frameIndex])
			rows[frameIndex] = grown
		}
		rows[frameIndex][bin] = magnitude
	})

	if err := orchestrate.Run(ctx, params, samples, statusSink, dataSink); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	result := oneShotResult{Bins: bins, Frames: len(rows), Values: rows}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func firstNonZeroInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func firstNonZeroFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
