package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/riichi-tools/mjview/internal/batch"
	"github.com/riichi-tools/mjview/internal/config"
	"github.com/riichi-tools/mjview/internal/logging"
	"github.com/riichi-tools/mjview/internal/resolver"
	"github.com/riichi-tools/mjview/internal/template"
	"github.com/riichi-tools/mjview/internal/watch"
	"github.com/riichi-tools/mjview/pkg/types"
)

var (
	configFile   = flag.String("config", "", "Path to optional YAML configuration file")
	templateFile = flag.String("template", "", "Path to the viewer HTML template")
	outputDir    = flag.String("output", "", "Output directory (default: alongside each input)")
	pattern      = flag.String("pattern", "", "File pattern for directory mode (default: *.json.gz)")
	limit        = flag.Int("limit", 0, "Limit number of files to process (0 = unbounded)")
	workers      = flag.Int("workers", 0, "Number of files to process concurrently")
	strict       = flag.Bool("strict", false, "Fail a file on its first malformed record instead of skipping the line")
	watchMode    = flag.Bool("watch", false, "Keep running and regenerate viewers as new logs appear (directory input only)")
	logLevel     = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat    = flag.String("log-format", "", "Log format: console or json")
	version      = "0.1.0"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: mjview [flags] <input .json.gz file or directory>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.SetGlobal(logger)

	logger.Info().Str("version", version).Msg("Starting mjview")

	// The template is shared by every file in the run, so a bad
	// template aborts before any file is touched.
	tmpl, err := template.Load(cfg.Template)
	if err != nil {
		return err
	}

	files, err := resolver.Resolve(resolver.Spec{
		Input:   cfg.Input,
		Pattern: cfg.Pattern,
		Limit:   cfg.Limit,
	})
	if err != nil {
		return err
	}

	orch := batch.New(tmpl, batch.Options{
		OutputDir:     cfg.Output,
		StrictRecords: cfg.StrictRecords,
		Workers:       cfg.Workers,
	}, logger)

	result := orch.Run(files)
	reportSummary(result, len(files), logger)

	if cfg.Watch {
		if err := runWatch(cfg, orch, logger); err != nil {
			return err
		}
	}

	if len(files) > 0 && result.Succeeded() == 0 {
		return fmt.Errorf("all %d files failed", len(files))
	}
	return nil
}

// loadConfig builds the run configuration from the optional config file
// and flag overrides, with the positional argument as the input path.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	if flag.NArg() > 0 {
		cfg.Input = flag.Arg(0)
	}
	if *templateFile != "" {
		cfg.Template = *templateFile
	}
	if *outputDir != "" {
		cfg.Output = *outputDir
	}
	if *pattern != "" {
		cfg.Pattern = *pattern
	}
	if *limit > 0 {
		cfg.Limit = *limit
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *strict {
		cfg.StrictRecords = true
	}
	if *watchMode {
		cfg.Watch = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// reportSummary enumerates every failure individually; reviewers need
// to know which log broke, not just that some did.
func reportSummary(result *types.BatchResult, total int, logger *logging.Logger) {
	for _, f := range result.Failures() {
		logger.Error().Str("input", f.Input).Err(f.Err).Msg("Failed")
	}
	logger.Info().
		Int("processed", total).
		Int("succeeded", result.Succeeded()).
		Int("failed", result.Failed()).
		Msg("Batch complete")
}

// runWatch keeps regenerating viewers for new logs until interrupted.
func runWatch(cfg *config.Config, orch *batch.Orchestrator, logger *logging.Logger) error {
	info, err := os.Stat(cfg.Input)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("watch mode requires a directory input: %s", cfg.Input)
	}

	w, err := watch.New(cfg.Input, cfg.Pattern, func(path string) {
		res := orch.Run([]string{path})
		for _, f := range res.Failures() {
			logger.Error().Str("input", f.Input).Err(f.Err).Msg("Failed")
		}
	}, logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("Shutdown signal received")
	w.Stop()
	return nil
}
