package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"spotiscience/internal/config"
	"spotiscience/internal/handlers"
	"spotiscience/internal/models"
	"spotiscience/internal/mood"
	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
	"spotiscience/internal/similarity"
	"spotiscience/internal/topics"
)

// parseFlags parses flags that may appear before or after the positional
// arguments and returns the positionals.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%s: %v: %w", fs.Name(), err, errUsage)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) progressReporter() services.ProgressReporter {
	return services.ProgressFunc(func(p services.Progress) {
		switch p.Status {
		case services.ProgressItemDone:
			fmt.Fprintf(c.stderr, "[%d/%d] %s: %s\n", p.Index, p.Total, p.Group, p.ItemID)
		case services.ProgressItemFailed:
			fmt.Fprintf(c.stderr, "[%d/%d] %s: %s failed: %v\n", p.Index, p.Total, p.Group, p.ItemID, p.Err)
		case services.ProgressGroupDone:
			fmt.Fprintf(c.stderr, "%s: %d songs\n", p.Group, p.Total)
		}
	})
}

// keep stores a downloaded collection in the snapshot file and the record
// store. Item failures are reported but do not fail the command.
func (c *cli) keep(ctx context.Context, records repositories.RecordRepository, collection *models.Collection, downloadErr error) error {
	if downloadErr != nil && (collection == nil || collection.Len() == 0) {
		return downloadErr
	}
	var batch *services.BatchError
	if downloadErr != nil && (!errors.As(downloadErr, &batch) || ctx.Err() != nil) {
		fmt.Fprintf(c.stderr, "download interrupted, keeping %d songs: %v\n", collection.Len(), downloadErr)
	}

	snapshots, err := c.snapshots()
	if err != nil {
		return err
	}
	defer snapshots.Close()

	if err := snapshots.Save(collection); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := records.SaveCollection(ctx, collection); err != nil {
		fmt.Fprintf(c.stderr, "warning: record store not updated: %v\n", err)
	}

	if batch != nil {
		fmt.Fprintf(c.stderr, "%d item(s) failed\n", len(batch.Items))
	}
	return c.printJSON(collection.Summary())
}

func (c *cli) album(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("album needs at least one id: %w", errUsage)
	}
	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := services.Single(args[0])
	if len(args) > 1 {
		ids = services.Many(args...)
	}
	collection, err := a.Acquisition.AlbumSongFeatures(ctx, ids)
	return c.keep(ctx, a.Records, collection, err)
}

func (c *cli) artist(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("artist needs one id: %w", errUsage)
	}
	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	collection, err := a.Acquisition.ArtistSongFeatures(ctx, args[0])
	return c.keep(ctx, a.Records, collection, err)
}

func (c *cli) playlist(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("playlist", flag.ContinueOnError)
	n := fs.Int("n", config.GetModelDefaults().PlaylistSongs, "number of songs")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("playlist needs one id: %w", errUsage)
	}

	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	collection, err := a.Acquisition.PlaylistSongFeatures(ctx, positional[0], *n)
	return c.keep(ctx, a.Records, collection, err)
}

func (c *cli) listSnapshots(args []string) error {
	snapshots, err := c.snapshots()
	if err != nil {
		return err
	}
	defer snapshots.Close()

	if len(args) == 2 && args[0] == "rm" {
		if err := snapshots.Delete(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "deleted %s\n", args[1])
		return nil
	}
	if len(args) != 0 {
		return fmt.Errorf("snapshots takes no arguments or rm <id>: %w", errUsage)
	}

	summaries, err := snapshots.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSONGS\tCREATED\tGROUPS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.Kind, s.Records, s.CreatedAt.Format(time.DateTime), strings.Join(s.Groups, ", "))
	}
	return w.Flush()
}

func (c *cli) topics(ctx context.Context, args []string) error {
	d := config.GetModelDefaults().Topics
	fs := flag.NewFlagSet("topics", flag.ContinueOnError)
	model := fs.String("model", d.Model, "lda, nmf or lsi")
	lang := fs.String("lang", d.Language, "english or spanish")
	stopWords := fs.String("stop-words", d.StopWords, "vectorizer stop-word list")
	ngramMin := fs.Int("ngram-min", d.NGramMin, "smallest n-gram")
	ngramMax := fs.Int("ngram-max", d.NGramMax, "largest n-gram")
	nTopics := fs.Int("topics", d.NTopics, "number of topics")
	topN := fs.Int("top", d.TopN, "words per topic")
	file := fs.String("file", "", "read the lyric from a file (- for stdin)")
	title := fs.String("title", "", "fetch lyrics for this title")
	artist := fs.String("artist", "", "fetch lyrics for this artist")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	var lyric string
	switch {
	case *file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		lyric = string(data)
	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		lyric = string(data)
	case *title != "" && *artist != "":
		a, err := c.newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if lyric, err = a.Acquisition.SongLyrics(ctx, *title, *artist); err != nil {
			return err
		}
	default:
		return fmt.Errorf("topics needs -file or -title and -artist: %w", errUsage)
	}

	kind, err := topics.ParseModelKind(*model)
	if err != nil {
		return err
	}
	result, err := topics.NewPipeline().PredictTopic(lyric, topics.Options{
		Model:     kind,
		Language:  *lang,
		StopWords: *stopWords,
		NGrams:    topics.NGramRange{Min: *ngramMin, Max: *ngramMax},
		NTopics:   *nTopics,
		TopN:      *topN,
	})
	if err != nil {
		return err
	}
	return c.printJSON(result.Map())
}

// songRecord downloads one song's record
func (c *cli) songRecord(ctx context.Context, song string) (models.FeatureRecord, error) {
	a, err := c.newApp(ctx)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	defer a.Close()

	id, err := services.ResolveID(song)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	if stored, err := a.Records.FindRecord(ctx, id); err == nil {
		return *stored, nil
	}
	return a.Acquisition.SongFeatures(ctx, id)
}

func (c *cli) mood(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("mood needs one track: %w", errUsage)
	}
	classifier, err := mood.Load(c.cfg.MoodModelPath)
	if err != nil {
		return err
	}
	record, err := c.songRecord(ctx, args[0])
	if err != nil {
		return err
	}
	label, err := classifier.PredictMood(record)
	if err != nil {
		return err
	}
	return c.printJSON(handlers.MoodResponse{Name: record.Name, Mood: label})
}

func (c *cli) similar(ctx context.Context, args []string) error {
	d := config.GetModelDefaults().Similarity
	fs := flag.NewFlagSet("similar", flag.ContinueOnError)
	distance := fs.String("distance", d.Distance, "l1 or l2")
	skip := fs.Int("skip", d.SkipFields, "leading positional fields to skip")
	top := fs.Int("top", d.TopN, "number of matches")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("similar needs a track and a snapshot id: %w", errUsage)
	}
	norm, err := similarity.ParseDistance(*distance)
	if err != nil {
		return err
	}

	snapshots, err := c.snapshots()
	if err != nil {
		return err
	}
	target, err := snapshots.Load(positional[1])
	snapshots.Close()
	if err != nil {
		return err
	}

	source, err := c.songRecord(ctx, positional[0])
	if err != nil {
		return err
	}

	result, err := similarity.FindSimilar(source, target, similarity.Options{
		Distance:   norm,
		SkipFields: *skip,
		TopN:       *top,
	})
	if err != nil {
		return err
	}
	return c.printJSON(result)
}

func (c *cli) genres(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("genres needs one track: %w", errUsage)
	}
	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	genres, err := a.Acquisition.SongGenres(ctx, args[0])
	if err != nil {
		return err
	}
	return c.printJSON(genres)
}

func (c *cli) lyrics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lyrics", flag.ContinueOnError)
	title := fs.String("title", "", "song title")
	artist := fs.String("artist", "", "artist name")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if *title == "" || *artist == "" {
		return fmt.Errorf("lyrics needs -title and -artist: %w", errUsage)
	}

	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	lyrics, err := a.Acquisition.SongLyrics(ctx, *title, *artist)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, lyrics)
	return err
}

func (c *cli) token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "cli", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if c.cfg.APITokenSecret == "" {
		return fmt.Errorf("API_TOKEN_SECRET is not set: %w", errUsage)
	}

	token, err := handlers.IssueToken(c.cfg.APITokenSecret, *subject, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, token)
	return err
}
