package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-finance-tracker/internal/app"
	"github.com/dvloznov/upi-finance-tracker/internal/config"
	"github.com/dvloznov/upi-finance-tracker/internal/extract"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
	"github.com/dvloznov/upi-finance-tracker/internal/source"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "detect":
		runDetect(log)
	case "inspect-pdf":
		runInspectPDF(log)
	case "upload":
		runUpload(log)
	case "categories":
		runCategories(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("UPI Finance Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse        Parse and categorize a statement (local path or gs:// URI)")
	fmt.Println("  detect       Detect the provider of a statement")
	fmt.Println("  inspect-pdf  Show what text a PDF statement yields")
	fmt.Println("  upload       Upload a statement file to GCS")
	fmt.Println("  categories   List the category taxonomy")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads configuration and builds the services for a subcommand.
func setup(log zerolog.Logger, configPath string) (context.Context, *app.Services) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log = log.Level(levelOrInfo(cfg.Log.Level))

	ctx := logger.WithContext(context.Background(), log)
	svc, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	return ctx, svc
}

func levelOrInfo(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	file := fs.String("file", "", "Statement path or gs:// URI")
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	configPath := fs.String("config", "", "Path to config file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Overall processing timeout")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: cli parse -file PATH [-json]")
	}

	ctx, svc := setup(log, *configPath)
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	result, err := svc.Processor.ProcessLocation(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Processing failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
		return
	}
	printResult(os.Stdout, result)
}

func runDetect(log zerolog.Logger) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	file := fs.String("file", "", "Statement path or gs:// URI")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: cli detect -file PATH")
	}

	ctx, svc := setup(log, *configPath)

	data, err := svc.Storage.Fetch(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement")
	}
	name := path.Base(filepath.ToSlash(*file))
	doc, err := extract.Extract(ctx, name, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to extract statement")
	}

	printDetection(os.Stdout, name, doc, source.Detect(name, doc.Content()))
}

func runInspectPDF(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect-pdf", flag.ExitOnError)
	file := fs.String("file", "", "PDF path or gs:// URI")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: cli inspect-pdf -file PATH")
	}

	ctx, svc := setup(log, *configPath)

	data, err := svc.Storage.Fetch(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read PDF")
	}
	doc, err := extract.ReadPDF(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to extract PDF text")
	}

	printInspection(os.Stdout, extract.Inspect(doc))
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local statement file")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}
	if _, err := extract.FormatOf(*filePath); err != nil {
		log.Fatal().Err(err).Msg("Refusing to upload")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx, svc := setup(log, *configPath)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	uri, err := svc.Storage.UploadFile(ctx, *bucketName, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runCategories(log zerolog.Logger) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	_, svc := setup(log, *configPath)
	printCategories(os.Stdout, svc.Taxonomy)
}
