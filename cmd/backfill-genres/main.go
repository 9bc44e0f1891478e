package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spotiscience/internal/app"
	"spotiscience/internal/config"
	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
)

// genreSource looks up the genres of one song
type genreSource interface {
	SongGenres(ctx context.Context, song string) ([]string, error)
}

type backfillStats struct {
	Processed int
	Updated   int
	Failed    int
}

// backfillGenres pages through records whose genres were never looked up
// and stores what the platform reports. Records that fail are skipped for
// the rest of the run so a persistent error cannot loop forever.
func backfillGenres(ctx context.Context, records repositories.RecordRepository, source genreSource, batchSize, maxRecords int) (backfillStats, error) {
	var stats backfillStats
	failed := make(map[string]struct{})

	for maxRecords <= 0 || stats.Processed < maxRecords {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, err := records.FindRecordsMissingGenres(ctx, batchSize+len(failed))
		if err != nil {
			return stats, err
		}

		progressed := false
		for _, record := range batch {
			if _, skip := failed[record.ID]; skip {
				continue
			}
			if maxRecords > 0 && stats.Processed >= maxRecords {
				break
			}
			progressed = true
			stats.Processed++

			genres, err := source.SongGenres(ctx, record.ID)
			if err == nil {
				err = records.UpdateGenres(ctx, record.ID, genres)
			}
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				slog.Warn("Failed to backfill genres", "record_id", record.ID, "error", err)
				failed[record.ID] = struct{}{}
				stats.Failed++
				continue
			}

			stats.Updated++
			slog.Debug("Backfilled genres", "record_id", record.ID, "genres", genres)
		}

		if !progressed {
			return stats, nil
		}
	}
	return stats, nil
}

func main() {
	batchSize := flag.Int("batch", 100, "records fetched per query")
	maxRecords := flag.Int("max", 0, "stop after this many records (0 = all)")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, services.WithReporter(services.NewLogReporter(logger)))
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("Starting genre backfill", "batch", *batchSize, "max", *maxRecords)

	stats, err := backfillGenres(ctx, a.Records, a.Acquisition, *batchSize, *maxRecords)
	slog.Info("Genre backfill completed",
		"processed", stats.Processed,
		"updated", stats.Updated,
		"failed", stats.Failed)
	if err != nil {
		slog.Error("Genre backfill stopped early", "error", err)
		a.Close()
		os.Exit(1)
	}

	fmt.Printf("Processed: %d songs\n", stats.Processed)
	fmt.Printf("Updated: %d songs\n", stats.Updated)
}
