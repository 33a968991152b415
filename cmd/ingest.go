package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/platewise/platewise/internal/app"
	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/gemini"
	"github.com/platewise/platewise/internal/log"
	"github.com/platewise/platewise/internal/restaurant"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load restaurant records into the vector index",
	Long: `Reads a JSON array of restaurant records, embeds each one, and
upserts it into the index. Records are keyed by (name, street), so
re-running the command refreshes existing rows instead of duplicating them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest()
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "path to the restaurant JSON file (required)")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: logLevel()})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	if a.Gemini == nil {
		return fmt.Errorf("ingest needs an embedder: %w", gemini.ErrUnavailable)
	}

	ing, err := restaurant.NewIngestor(a.Restaurants, a.Gemini, logger)
	if err != nil {
		return fmt.Errorf("creating ingestor: %w", err)
	}

	stored, err := ing.IngestFile(ctx, ingestFile)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", ingestFile, err)
	}

	total, err := a.Restaurants.Count(ctx)
	if err != nil {
		logger.Warn("counting indexed restaurants", "error", err)
	} else {
		logger.Info("index total", "restaurants", total)
	}

	fmt.Printf("Stored %d restaurants from %s\n", stored, ingestFile)
	return nil
}
