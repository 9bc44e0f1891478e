package topics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"spotiscience/internal/models"
)

// ModelKind selects the decomposition family
type ModelKind string

const (
	LDA ModelKind = "lda"
	NMF ModelKind = "nmf"
	LSI ModelKind = "lsi"
)

// ParseModelKind validates a model name
func ParseModelKind(name string) (ModelKind, error) {
	switch ModelKind(strings.ToLower(strings.TrimSpace(name))) {
	case LDA:
		return LDA, nil
	case NMF:
		return NMF, nil
	case LSI:
		return LSI, nil
	default:
		return "", fmt.Errorf("topic model %q: %w", name, models.ErrUnsupportedOption)
	}
}

// Decomposer fits a topic model to a documents x terms matrix and returns
// its components as an nTopics x terms matrix.
type Decomposer interface {
	Fit(x *mat.Dense, nTopics int) (*mat.Dense, error)
}

// defaultSeed makes repeated fits over the same corpus reproducible.
const defaultSeed = 0x5eed

// NewDecomposer returns the default configuration for a model kind
func NewDecomposer(kind ModelKind) (Decomposer, error) {
	switch kind {
	case LDA:
		return NewOnlineLDA(defaultSeed), nil
	case NMF:
		return NewNMF(defaultSeed), nil
	case LSI:
		return &TruncatedSVD{}, nil
	}
	return nil, fmt.Errorf("topic model %q: %w", kind, models.ErrUnsupportedOption)
}
