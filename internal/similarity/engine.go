// Package similarity ranks candidate songs by the distance between their
// normalized audio-feature vectors.
package similarity

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"spotiscience/internal/models"
)

// Distance selects the norm used between normalized vectors
type Distance string

const (
	L1 Distance = "l1"
	L2 Distance = "l2"
)

// ParseDistance validates a distance name
func ParseDistance(name string) (Distance, error) {
	switch Distance(strings.ToLower(strings.TrimSpace(name))) {
	case L1:
		return L1, nil
	case L2:
		return L2, nil
	default:
		return "", fmt.Errorf("distance %q: %w", name, models.ErrUnsupportedOption)
	}
}

func (d Distance) order() float64 {
	if d == L1 {
		return 1
	}
	return 2
}

// Defaults used when options are left zero.
const (
	DefaultSkipFields = models.HeaderFields
	DefaultTopN       = 10
)

// Options configures FindSimilar
type Options struct {
	Distance   Distance `json:"distance"`
	SkipFields int      `json:"skip_fields"`
	TopN       int      `json:"top_n"`
}

// DefaultOptions returns l2 over all 11 features, ten results
func DefaultOptions() Options {
	return Options{Distance: L2, SkipFields: DefaultSkipFields, TopN: DefaultTopN}
}

// Match is one ranked candidate
type Match struct {
	Name     string  `json:"name"`
	Artist   string  `json:"artist"`
	Distance float64 `json:"distance"`
}

// Result holds the ranked matches for one source song
type Result struct {
	Source  string  `json:"source"`
	Matches []Match `json:"matches"`
}

// Normalize divides each component by the vector's own sum. A zero sum has
// no proportions and fails with models.ErrInsufficientData.
func Normalize(vector []float64) ([]float64, error) {
	sum := floats.Sum(vector)
	if sum == 0 {
		return nil, fmt.Errorf("feature vector sums to zero: %w", models.ErrInsufficientData)
	}
	out := make([]float64, len(vector))
	floats.ScaleTo(out, 1/sum, vector)
	return out, nil
}

// Between returns the distance between two raw feature vectors after
// normalizing each one.
func Between(a, b []float64, d Distance) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector lengths differ (%d vs %d): %w", len(a), len(b), models.ErrInsufficientData)
	}
	na, err := Normalize(a)
	if err != nil {
		return 0, err
	}
	nb, err := Normalize(b)
	if err != nil {
		return 0, err
	}
	return floats.Distance(na, nb, d.order()), nil
}

// FindSimilar ranks every record of target against source. Candidates whose
// name contains the source name are skipped, zero distances are dropped and
// the closest TopN remain, ascending by distance.
func FindSimilar(source models.FeatureRecord, target *models.Collection, opts Options) (*Result, error) {
	if opts.Distance == "" {
		opts.Distance = L2
	}
	distance, err := ParseDistance(string(opts.Distance))
	if err != nil {
		return nil, err
	}
	if opts.SkipFields == 0 {
		opts.SkipFields = DefaultSkipFields
	}
	if opts.TopN < 1 {
		return nil, fmt.Errorf("top_n %d: %w", opts.TopN, models.ErrUnsupportedOption)
	}

	sourceVector, err := source.Vector(opts.SkipFields)
	if err != nil {
		return nil, err
	}

	result := &Result{Source: source.Name, Matches: make([]Match, 0)}
	if target == nil {
		return result, nil
	}

	var matches []Match
	for _, group := range target.Groups {
		for _, candidate := range group.Records {
			if strings.Contains(candidate.Name, source.Name) {
				continue
			}
			candidateVector, err := candidate.Vector(opts.SkipFields)
			if err != nil {
				return nil, err
			}
			d, err := Between(sourceVector, candidateVector, distance)
			if err != nil {
				return nil, fmt.Errorf("comparing %q with %q: %w", source.Name, candidate.Name, err)
			}
			matches = append(matches, Match{Name: candidate.Name, Artist: candidate.Artist, Distance: d})
		}
		matches = rank(matches)
	}

	if len(matches) > opts.TopN {
		matches = matches[:opts.TopN]
	}
	result.Matches = append(result.Matches, matches...)
	return result, nil
}

// rank sorts ascending by distance and keeps only positive distances.
func rank(matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	kept := matches[:0]
	for _, m := range matches {
		if m.Distance > 0 {
			kept = append(kept, m)
		}
	}
	return kept
}
