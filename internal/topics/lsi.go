package topics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"spotiscience/internal/models"
)

// TruncatedSVD is latent semantic indexing: the top right singular vectors
// of the term-document matrix are the topic components. Components past the
// matrix rank are all zero.
type TruncatedSVD struct{}

func (TruncatedSVD) Fit(x *mat.Dense, nTopics int) (*mat.Dense, error) {
	if nTopics < 1 {
		return nil, fmt.Errorf("n_topics %d: %w", nTopics, models.ErrUnsupportedOption)
	}
	nDocs, nTerms := x.Dims()
	if nTopics > nTerms {
		return nil, fmt.Errorf("lsi needs n_topics <= terms = %d, got %d: %w",
			nTerms, nTopics, models.ErrInsufficientData)
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd did not converge: %w", models.ErrInsufficientData)
	}
	var v mat.Dense
	svd.VTo(&v)

	components := mat.NewDense(nTopics, nTerms, nil)
	for k := 0; k < min(nTopics, nDocs); k++ {
		col := mat.Col(nil, k, &v)
		// singular vectors are defined up to sign; make the dominant term positive
		sign := 1.0
		var peak float64
		for _, val := range col {
			if math.Abs(val) > peak {
				peak = math.Abs(val)
				sign = math.Copysign(1, val)
			}
		}
		for w, val := range col {
			components.Set(k, w, sign*val)
		}
	}
	return components, nil
}
