package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spotiscience/internal/app"
	"spotiscience/internal/config"
	"spotiscience/internal/services"
	"spotiscience/internal/store"
)

const usage = `Usage: spotiscience <command> [flags] [args]

Download:
  album <id|link>...            download albums into a snapshot
  artist <id|link>              download every album of an artist
  playlist <id|link> [-n N]     download the first N songs of a playlist
  snapshots [rm <id>]           list or delete snapshots

Model:
  topics [-model lda] [-lang english] [-file F | -title T -artist A]
  mood <track|link>
  similar <track|link> <snapshot-id> [-distance l2] [-skip 6] [-top 10]

Lookup:
  genres <track|link>
  lyrics -title T -artist A
  token [-subject S] [-ttl 24h]  issue an API token
`

// cli carries what every command needs. newApp is only called by commands
// that talk to the platform or the record store.
type cli struct {
	cfg       *config.Config
	stdout    io.Writer
	stderr    io.Writer
	newApp    func(ctx context.Context) (*app.App, error)
	snapshots func() (*store.SnapshotStore, error)
}

func newCLI(cfg *config.Config, stdout, stderr io.Writer) *cli {
	c := &cli{cfg: cfg, stdout: stdout, stderr: stderr}
	c.newApp = func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, services.WithReporter(c.progressReporter()))
	}
	c.snapshots = func() (*store.SnapshotStore, error) {
		return store.NewSnapshotStore(cfg.SnapshotPath)
	}
	return c
}

var errUsage = errors.New("invalid usage")

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "album":
		return c.album(ctx, rest)
	case "artist":
		return c.artist(ctx, rest)
	case "playlist":
		return c.playlist(ctx, rest)
	case "snapshots":
		return c.listSnapshots(rest)
	case "topics":
		return c.topics(ctx, rest)
	case "mood":
		return c.mood(ctx, rest)
	case "similar":
		return c.similar(ctx, rest)
	case "genres":
		return c.genres(ctx, rest)
	case "lyrics":
		return c.lyrics(ctx, rest)
	case "token":
		return c.token(rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}

func main() {
	_ = godotenv.Load()

	// logs go to stderr so stdout stays machine readable
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI(cfg, os.Stdout, os.Stderr).run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}
