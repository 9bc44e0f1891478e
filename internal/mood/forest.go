package mood

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"

	"spotiscience/internal/models"
)

// leafFeature marks a leaf node
const leafFeature = -1

// node is one split or leaf of a decision tree. Samples with
// x[Feature] <= Threshold go left.
type node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"` // class counts at a leaf
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// Forest is a decision-forest artifact: class probabilities of all trees are
// averaged and the most probable class wins.
type Forest struct {
	Name      string `json:"name"`
	Classes   []int  `json:"classes"`
	NFeatures int    `json:"n_features"`
	Trees     []tree `json:"trees"`
}

// DecodeForest reads and validates a forest artifact
func DecodeForest(r io.Reader) (*Forest, error) {
	var f Forest
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode mood model: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Forest) validate() error {
	if len(f.Classes) == 0 || len(f.Trees) == 0 {
		return fmt.Errorf("mood model has no classes or trees")
	}
	if f.NFeatures != models.FeatureCount {
		return fmt.Errorf("mood model expects %d features, records carry %d", f.NFeatures, models.FeatureCount)
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature == leafFeature {
				if len(n.Value) != len(f.Classes) {
					return fmt.Errorf("tree %d leaf %d has %d class counts, want %d", ti, ni, len(n.Value), len(f.Classes))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			// children always come after their parent, so walks terminate
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}

// PredictProba returns the averaged class probabilities for one sample
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("got %d features, want %d: %w", len(x), f.NFeatures, models.ErrInsufficientData)
	}

	proba := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		leaf := t.leaf(x)
		total := floats.Sum(leaf.Value)
		if total == 0 {
			continue
		}
		floats.AddScaled(proba, 1/total, leaf.Value)
	}
	floats.Scale(1/float64(len(f.Trees)), proba)
	return proba, nil
}

// Predict returns the class of the most probable outcome; ties go to the
// lowest index.
func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return f.Classes[floats.MaxIdx(proba)], nil
}

func (t tree) leaf(x []float64) node {
	i := 0
	for t.Nodes[i].Feature != leafFeature {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i]
}
