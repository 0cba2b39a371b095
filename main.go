package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"m3u-stream-harvester/checker"
	"m3u-stream-harvester/config"
	"m3u-stream-harvester/extractor"
	"m3u-stream-harvester/logger"
	"m3u-stream-harvester/pipeline"
	"m3u-stream-harvester/progress"
)

var errNoResults = errors.New("no results")

func main() {
	cfg := config.New()
	var workers []int

	root := &cobra.Command{
		Use:   "m3u-stream-harvester",
		Short: "Mine a SQL dump for IPTV playlists, probe every stream, emit one ranked M3U",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(workers) > 0 {
				cfg.PlaylistWorkers = workers[0]
			}
			if len(workers) > 1 {
				cfg.StreamWorkers = workers[1]
			}
			return run(cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.Flags()
	flags.StringVar(&cfg.InputFile, "input", cfg.InputFile, "SQL dump to scan for playlist URLs")
	flags.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "output playlist file")
	flags.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file (empty disables)")
	flags.BoolVar(&cfg.ReprocessPlaylists, "reprocess-playlists", false, "re-fetch playlists already marked processed")
	flags.BoolVar(&cfg.ReprocessStreams, "reprocess-streams", false, "re-probe streams with memoized results")
	flags.BoolVar(&cfg.ClearProgress, "clear-progress", false, "delete both progress files before starting")
	flags.IntSliceVar(&workers, "workers", []int{cfg.PlaylistWorkers, cfg.StreamWorkers}, "playlist and stream worker counts (Wp,Ws)")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request network timeout")
	flags.DurationVar(&cfg.SaveInterval, "save-interval", cfg.SaveInterval, "periodic checkpoint interval")
	flags.BoolVar(&cfg.NoFilters, "no-filters", false, "disable all content filters")
	flags.BoolVar(&cfg.IncludeRadio, "include-radio", false, "do not filter radio streams")
	flags.BoolVar(&cfg.IncludeAdult, "include-adult", false, "do not filter adult streams")
	flags.BoolVar(&cfg.Quiet, "quiet", false, "only log warnings and errors")
	flags.BoolVar(&cfg.NoColors, "no-colors", false, "disable colored output")

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errNoResults) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.New(logger.Options{
		Quiet:    cfg.Quiet,
		NoColors: cfg.NoColors,
		FilePath: cfg.LogFile,
	})
	defer log.Close()

	log.Log("IPTV M3U Stream Extractor & Checker")

	// Startup preconditions: the input dump and the probing backend.
	if _, err := os.Stat(cfg.InputFile); err != nil {
		log.Errorf("SQL database file not found: %s", cfg.InputFile)
		return errNoResults
	}
	backend, err := checker.NewFFProbe()
	if err != nil {
		log.Errorf("Probing backend unavailable: %v", err)
		return errNoResults
	}

	urls, stats, err := extractor.ExtractURLs(cfg.InputFile, log)
	if err != nil {
		log.Errorf("URL extraction failed: %v", err)
		return errNoResults
	}
	if len(urls) == 0 {
		log.Error("No M3U URLs found in database")
		return errNoResults
	}
	log.Logf("Found %d unique M3U URLs (%d total matches)", len(urls), stats.TotalMatches)
	for _, t := range stats.TopTypes(10) {
		log.Debugf("  playlist type %s: %d", t, stats.ByType[t])
	}

	if cfg.ClearProgress {
		log.Log("Clearing previous progress")
		_ = os.Remove(cfg.StreamProgressFile)
		_ = os.Remove(cfg.PlaylistProgressFile)
	}

	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, log)
	log.Logf("Loaded %d previously checked streams, %d processed playlists",
		store.StreamCount(), store.PlaylistCount())

	p, err := pipeline.New(cfg, log, backend, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := p.Run(ctx, urls)

	// One last synchronous flush, interrupt or not.
	if err := p.Flush(); err != nil {
		log.Errorf("Final save failed: %v", err)
	}

	if runErr != nil && ctx.Err() != nil {
		log.Warn("Interrupted, progress saved")
		return nil
	}
	if runErr != nil {
		return runErr
	}

	p.LogSummary()

	if p.WorkingCount() == 0 {
		log.Error("No working streams found")
		return errNoResults
	}

	log.Logf("Output written to %s", cfg.OutputFile)
	return nil
}
