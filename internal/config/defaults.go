package config

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// TopicDefaults fills the topic options a request leaves out
type TopicDefaults struct {
	Model     string `toml:"model"`
	Language  string `toml:"lang"`
	StopWords string `toml:"stop_words"`
	NGramMin  int    `toml:"ngram_min"`
	NGramMax  int    `toml:"ngram_max"`
	NTopics   int    `toml:"n_topics"`
	TopN      int    `toml:"top_n"`
}

// SimilarityDefaults fills the similarity options a request leaves out
type SimilarityDefaults struct {
	Distance   string `toml:"distance"`
	SkipFields int    `toml:"skip_fields"`
	TopN       int    `toml:"top_n"`
}

// ModelDefaults holds tunable defaults for the modelling endpoints and CLI
type ModelDefaults struct {
	Topics     TopicDefaults      `toml:"topics"`
	Similarity SimilarityDefaults `toml:"similarity"`

	// Songs fetched for a playlist when the caller gives no count
	PlaylistSongs int `toml:"playlist_songs"`
}

// DefaultModelDefaults returns hard-coded defaults
func DefaultModelDefaults() *ModelDefaults {
	return &ModelDefaults{
		Topics: TopicDefaults{
			Model:    "lda",
			Language: "english",
			NGramMin: 1,
			NGramMax: 1,
			NTopics:  1,
			TopN:     10,
		},
		Similarity: SimilarityDefaults{
			Distance:   "l2",
			SkipFields: 6,
			TopN:       10,
		},
		PlaylistSongs: 100,
	}
}

var (
	modelDefaults     *ModelDefaults
	modelDefaultsOnce sync.Once
	modelDefaultsMu   sync.RWMutex
)

// GetModelDefaults loads defaults from TOML if MODEL_DEFAULTS_PATH is set or a
// well-known file exists. Falls back to built-ins when nothing can be read.
func GetModelDefaults() *ModelDefaults {
	modelDefaultsOnce.Do(func() {
		cfg := DefaultModelDefaults()
		for _, p := range modelDefaultsPaths() {
			if fileCfg, err := loadModelDefaults(p); err == nil && fileCfg != nil {
				mergeModelDefaults(cfg, fileCfg)
				break
			}
		}
		modelDefaultsMu.Lock()
		modelDefaults = cfg
		modelDefaultsMu.Unlock()
	})
	modelDefaultsMu.RLock()
	defer modelDefaultsMu.RUnlock()
	return modelDefaults
}

func loadModelDefaults(path string) (*ModelDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg ModelDefaults
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeModelDefaults(base, override *ModelDefaults) {
	if base == nil || override == nil {
		return
	}

	t, o := &base.Topics, override.Topics
	if o.Model != "" {
		t.Model = o.Model
	}
	if o.Language != "" {
		t.Language = o.Language
	}
	if o.StopWords != "" {
		t.StopWords = o.StopWords
	}
	if o.NGramMin > 0 && o.NGramMax >= o.NGramMin {
		t.NGramMin, t.NGramMax = o.NGramMin, o.NGramMax
	}
	if o.NTopics > 0 {
		t.NTopics = o.NTopics
	}
	if o.TopN > 0 {
		t.TopN = o.TopN
	}

	s, so := &base.Similarity, override.Similarity
	if so.Distance != "" {
		s.Distance = so.Distance
	}
	if so.SkipFields > 0 {
		s.SkipFields = so.SkipFields
	}
	if so.TopN > 0 {
		s.TopN = so.TopN
	}

	if override.PlaylistSongs > 0 {
		base.PlaylistSongs = override.PlaylistSongs
	}
}

// modelDefaultsPaths lists the explicit path, or the usual locations
func modelDefaultsPaths() []string {
	if explicit := os.Getenv("MODEL_DEFAULTS_PATH"); explicit != "" {
		return []string{explicit}
	}

	paths := []string{
		"defaults.toml",
		filepath.Join("config", "defaults.toml"),
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "spotiscience", "defaults.toml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "spotiscience", "defaults.toml"))
	}
	return paths
}

// WatchModelDefaults polls the defaults file and reloads it when it changes.
// Without a file on disk it is a no-op.
func WatchModelDefaults(ctx context.Context, interval time.Duration) {
	GetModelDefaults()

	var watchPath string
	var lastModTime time.Time
	for _, p := range modelDefaultsPaths() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			watchPath = p
			lastModTime = fi.ModTime()
			break
		}
	}
	if watchPath == "" {
		slog.Info("model defaults watcher: no file found; using built-ins")
		return
	}

	slog.Info("model defaults watcher: watching file", "path", watchPath)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fi, err := os.Stat(watchPath)
				if err != nil || fi.IsDir() || !fi.ModTime().After(lastModTime) {
					continue
				}
				fileCfg, err := loadModelDefaults(watchPath)
				if err != nil || fileCfg == nil {
					slog.Warn("model defaults reload failed", "path", watchPath, "error", err)
					continue
				}
				next := DefaultModelDefaults()
				mergeModelDefaults(next, fileCfg)
				modelDefaultsMu.Lock()
				modelDefaults = next
				modelDefaultsMu.Unlock()
				lastModTime = fi.ModTime()
				slog.Info("model defaults reloaded", "path", watchPath)
			}
		}
	}()
}
