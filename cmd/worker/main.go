// Command worker processes a batch of statements through the job queue and
// writes one JSON result per statement.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/upi-finance-tracker/internal/app"
	"github.com/dvloznov/upi-finance-tracker/internal/config"
	"github.com/dvloznov/upi-finance-tracker/internal/jobs"
	"github.com/dvloznov/upi-finance-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config file")
		outDir     = flag.String("out", "results", "Directory for per-statement JSON results")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: worker [-config FILE] [-out DIR] STATEMENT...")
		fmt.Fprintln(os.Stderr, "Statements are local paths or gs:// URIs.")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	configured, err := logger.Configure(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log settings")
	}
	log = configured

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(flag.NArg(), jobStore,
		inmemory.WithWorkers(cfg.Jobs.Workers),
		inmemory.WithMaxRetries(cfg.Jobs.MaxRetries),
	)
	if err := jobQueue.Start(ctx, jobs.ProcessorHandler(svc.Processor)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("statements", flag.NArg()).Msg("Processing batch")

	finished, err := runBatch(ctx, jobQueue, jobStore, flag.Args())
	if stopErr := jobQueue.Stop(context.Background()); stopErr != nil {
		log.Error().Err(stopErr).Msg("Error stopping job queue")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Batch interrupted")
	}

	failed, err := writeResults(*outDir, finished)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write results")
	}

	printReport(os.Stdout, finished)
	if failed > 0 {
		os.Exit(1)
	}
}
