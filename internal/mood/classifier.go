// Package mood predicts a mood label from a record's audio features using a
// pre-trained decision forest.
package mood

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"spotiscience/internal/models"
)

//go:embed weights/mood_forest.json
var bundledForest []byte

// Model maps an ordered feature vector to a class index
type Model interface {
	Predict(features []float64) (int, error)
}

// Classifier wraps a loaded model. It is read-only after construction and
// safe to share.
type Classifier struct {
	model Model
}

// NewClassifier wraps an already loaded model
func NewClassifier(model Model) *Classifier {
	return &Classifier{model: model}
}

// LoadFile loads a forest artifact from disk
func LoadFile(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mood model: %w", err)
	}
	defer f.Close()

	forest, err := DecodeForest(f)
	if err != nil {
		return nil, err
	}
	return NewClassifier(forest), nil
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
	defaultErr        error
)

// Default returns the classifier built from the bundled artifact, loading
// it on first use.
func Default() (*Classifier, error) {
	defaultOnce.Do(func() {
		forest, err := DecodeForest(bytes.NewReader(bundledForest))
		if err != nil {
			defaultErr = err
			return
		}
		defaultClassifier = NewClassifier(forest)
	})
	return defaultClassifier, defaultErr
}

// Load returns the bundled classifier, or the artifact at path when set.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// PredictMood classifies a record from its 11 ordered audio features
func (c *Classifier) PredictMood(record models.FeatureRecord) (models.MoodLabel, error) {
	class, err := c.model.Predict(record.Features())
	if err != nil {
		return "", err
	}
	return models.MoodFromClass(class)
}
