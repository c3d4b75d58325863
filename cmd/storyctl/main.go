package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/config"
	"storyquiz/internal/database"
	"storyquiz/internal/logger"
	"storyquiz/internal/repository"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: stories_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg)
	ctx := context.Background()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	repo := repository.NewStoryRepository(db)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := handleExport(ctx, repo, *exportOutput, log); err != nil {
			log.WithError(err).Fatal("Export failed")
		}

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		if err := handleImport(ctx, repo, *importInput, log); err != nil {
			log.WithError(err).Fatal("Import failed")
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, repo *repository.StoryRepository, outputPath string, log logrus.FieldLogger) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("stories_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	stories, err := repo.Stories(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := repository.EncodeBank(f, stories); err != nil {
		return fmt.Errorf("failed to write stories: %w", err)
	}

	log.WithFields(logrus.Fields{
		"output":  outputPath,
		"stories": len(stories),
	}).Info("Export complete")
	return nil
}

func handleImport(ctx context.Context, repo *repository.StoryRepository, inputPath string, log logrus.FieldLogger) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	stories, err := repository.NewJSONStoryRepository(inputPath).Stories(ctx)
	if err != nil {
		return err
	}

	if err := repo.ReplaceAll(ctx, stories); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"input":   inputPath,
		"stories": len(stories),
	}).Info("Import complete")
	return nil
}

func printUsage() {
	fmt.Println("Story Quiz content tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  storyctl import [options]    Load stories from a JSON file into the database")
	fmt.Println("  storyctl export [options]    Write the stored stories to a JSON file")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required); replaces all stored stories")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: stories_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./storyquiz.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
