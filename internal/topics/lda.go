package topics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"spotiscience/internal/models"
)

const machineEpsilon = 2.220446049250313e-16

// OnlineLDA is latent Dirichlet allocation fitted with online variational
// Bayes (Hoffman, Blei and Bach, 2010).
type OnlineLDA struct {
	MaxIter          int
	BatchSize        int
	LearningOffset   float64
	LearningDecay    float64
	MeanChangeTol    float64
	MaxDocUpdateIter int
	Seed             uint64
}

// NewOnlineLDA returns an online LDA limited to 10 passes
func NewOnlineLDA(seed uint64) *OnlineLDA {
	return &OnlineLDA{
		MaxIter:          10,
		BatchSize:        128,
		LearningOffset:   10,
		LearningDecay:    0.7,
		MeanChangeTol:    1e-3,
		MaxDocUpdateIter: 100,
		Seed:             seed,
	}
}

// Fit returns the variational topic-word parameters (lambda).
func (l *OnlineLDA) Fit(x *mat.Dense, nTopics int) (*mat.Dense, error) {
	if nTopics < 1 {
		return nil, fmt.Errorf("n_topics %d: %w", nTopics, models.ErrUnsupportedOption)
	}
	nDocs, nTerms := x.Dims()
	if nDocs == 0 || nTerms == 0 {
		return nil, fmt.Errorf("empty term-document matrix: %w", models.ErrInsufficientData)
	}

	prior := 1 / float64(nTopics)
	gamma := distuv.Gamma{Alpha: 100, Beta: 100, Src: rand.NewPCG(l.Seed, l.Seed^0x9e3779b97f4a7c15)}

	lambda := mat.NewDense(nTopics, nTerms, nil)
	for k := 0; k < nTopics; k++ {
		for w := 0; w < nTerms; w++ {
			lambda.Set(k, w, gamma.Rand())
		}
	}
	expElogBeta := dirichletExpectationExp(lambda)

	docs := sparseRows(x)
	batchSize := l.BatchSize
	if batchSize < 1 {
		batchSize = nDocs
	}

	batchIter := 1.0
	for iter := 0; iter < l.MaxIter; iter++ {
		for start := 0; start < nDocs; start += batchSize {
			end := min(start+batchSize, nDocs)
			sstats := l.eStep(docs[start:end], expElogBeta, nTopics, nTerms, prior, gamma)

			weight := math.Pow(l.LearningOffset+batchIter, -l.LearningDecay)
			// a full pass over the corpus; sufficient statistics scale to nDocs
			docRatio := float64(nDocs) / float64(end-start)
			for k := 0; k < nTopics; k++ {
				for w := 0; w < nTerms; w++ {
					updated := (1-weight)*lambda.At(k, w) + weight*(prior+docRatio*sstats.At(k, w))
					lambda.Set(k, w, updated)
				}
			}
			expElogBeta = dirichletExpectationExp(lambda)
			batchIter++
		}
	}
	return lambda, nil
}

// eStep updates per-document topic proportions and returns the expected
// sufficient statistics for lambda.
func (l *OnlineLDA) eStep(docs []sparseRow, expElogBeta *mat.Dense, nTopics, nTerms int, prior float64, gamma distuv.Gamma) *mat.Dense {
	sstats := mat.NewDense(nTopics, nTerms, nil)
	docTopic := make([]float64, nTopics)
	expDocTopic := make([]float64, nTopics)
	last := make([]float64, nTopics)
	normPhi := make([]float64, 0)

	for _, doc := range docs {
		for k := range docTopic {
			docTopic[k] = gamma.Rand()
		}
		if len(doc.ids) == 0 {
			continue
		}
		dirichletExpectationExp1D(docTopic, expDocTopic)

		normPhi = normPhi[:0]
		for range doc.ids {
			normPhi = append(normPhi, 0)
		}

		for it := 0; it < l.MaxDocUpdateIter; it++ {
			copy(last, docTopic)
			computeNormPhi(doc, expDocTopic, expElogBeta, normPhi)

			for k := 0; k < nTopics; k++ {
				var acc float64
				for i, w := range doc.ids {
					acc += doc.counts[i] / normPhi[i] * expElogBeta.At(k, w)
				}
				docTopic[k] = prior + expDocTopic[k]*acc
			}
			dirichletExpectationExp1D(docTopic, expDocTopic)

			if meanAbsChange(last, docTopic) < l.MeanChangeTol {
				break
			}
		}

		computeNormPhi(doc, expDocTopic, expElogBeta, normPhi)
		for k := 0; k < nTopics; k++ {
			for i, w := range doc.ids {
				sstats.Set(k, w, sstats.At(k, w)+expDocTopic[k]*doc.counts[i]/normPhi[i])
			}
		}
	}

	sstats.MulElem(sstats, expElogBeta)
	return sstats
}

func computeNormPhi(doc sparseRow, expDocTopic []float64, expElogBeta *mat.Dense, out []float64) {
	for i, w := range doc.ids {
		var sum float64
		for k, v := range expDocTopic {
			sum += v * expElogBeta.At(k, w)
		}
		out[i] = sum + machineEpsilon
	}
}

// dirichletExpectationExp returns exp(E[log x]) row-wise for Dirichlet parameters.
func dirichletExpectationExp(alpha *mat.Dense) *mat.Dense {
	rows, cols := alpha.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		row := alpha.RawRowView(r)
		psiSum := mathext.Digamma(floats.Sum(row))
		for c, v := range row {
			out.Set(r, c, math.Exp(mathext.Digamma(v)-psiSum))
		}
	}
	return out
}

func dirichletExpectationExp1D(alpha, out []float64) {
	psiSum := mathext.Digamma(floats.Sum(alpha))
	for i, v := range alpha {
		out[i] = math.Exp(mathext.Digamma(v) - psiSum)
	}
}

func meanAbsChange(a, b []float64) float64 {
	var total float64
	for i := range a {
		total += math.Abs(a[i] - b[i])
	}
	return total / float64(len(a))
}

// sparseRow lists the non-zero term counts of one document
type sparseRow struct {
	ids    []int
	counts []float64
}

func sparseRows(x *mat.Dense) []sparseRow {
	rows, cols := x.Dims()
	out := make([]sparseRow, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := x.At(r, c); v != 0 {
				out[r].ids = append(out[r].ids, c)
				out[r].counts = append(out[r].counts, v)
			}
		}
	}
	return out
}
