package topics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"spotiscience/internal/models"
)

// NonNegativeMF factorizes X ~ W*H with multiplicative updates on the
// Frobenius loss. H holds the topic components.
type NonNegativeMF struct {
	MaxIter int
	Tol     float64
	Seed    uint64
}

// NewNMF returns a factorizer with a 200 iteration cap
func NewNMF(seed uint64) *NonNegativeMF {
	return &NonNegativeMF{MaxIter: 200, Tol: 1e-4, Seed: seed}
}

func (f *NonNegativeMF) Fit(x *mat.Dense, nTopics int) (*mat.Dense, error) {
	if nTopics < 1 {
		return nil, fmt.Errorf("n_topics %d: %w", nTopics, models.ErrUnsupportedOption)
	}
	nDocs, nTerms := x.Dims()
	if nDocs == 0 || nTerms == 0 {
		return nil, fmt.Errorf("empty term-document matrix: %w", models.ErrInsufficientData)
	}

	var w, h *mat.Dense
	if nTopics <= min(nDocs, nTerms) {
		var err error
		w, h, err = nndsvda(x, nTopics)
		if err != nil {
			return nil, err
		}
	} else {
		w, h = f.randomInit(x, nTopics)
	}

	var (
		hNum, hDen, wtw mat.Dense
		wNum, wDen, hht mat.Dense
		prevErr         = reconstructionError(x, w, h)
		initErr         = prevErr
	)
	for iter := 1; iter <= f.MaxIter; iter++ {
		// H <- H .* (W'X) ./ (W'WH)
		hNum.Mul(w.T(), x)
		wtw.Mul(w.T(), w)
		hDen.Mul(&wtw, h)
		multiplicativeStep(h, &hNum, &hDen)

		// W <- W .* (XH') ./ (WHH')
		wNum.Mul(x, h.T())
		hht.Mul(h, h.T())
		wDen.Mul(w, &hht)
		multiplicativeStep(w, &wNum, &wDen)

		if f.Tol > 0 && iter%10 == 0 {
			current := reconstructionError(x, w, h)
			if initErr == 0 || (prevErr-current)/initErr < f.Tol {
				break
			}
			prevErr = current
		}
	}
	return h, nil
}

func multiplicativeStep(target, num, den *mat.Dense) {
	rows, cols := target.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			d := den.At(r, c)
			if d < machineEpsilon {
				d = machineEpsilon
			}
			target.Set(r, c, target.At(r, c)*num.At(r, c)/d)
		}
	}
}

func reconstructionError(x, w, h *mat.Dense) float64 {
	var approx, diff mat.Dense
	approx.Mul(w, h)
	diff.Sub(x, &approx)
	return mat.Norm(&diff, 2)
}

func (f *NonNegativeMF) randomInit(x *mat.Dense, nTopics int) (*mat.Dense, *mat.Dense) {
	nDocs, nTerms := x.Dims()
	rng := rand.New(rand.NewPCG(f.Seed, f.Seed^0x2545f4914f6cdd1d))
	avg := math.Sqrt(mean(x) / float64(nTopics))

	w := mat.NewDense(nDocs, nTopics, nil)
	h := mat.NewDense(nTopics, nTerms, nil)
	w.Apply(func(_, _ int, _ float64) float64 { return avg * math.Abs(rng.NormFloat64()) }, w)
	h.Apply(func(_, _ int, _ float64) float64 { return avg * math.Abs(rng.NormFloat64()) }, h)
	return w, h
}

// nndsvda is non-negative double SVD initialisation with zeros filled by the
// mean of X (Boutsidis and Gallopoulos, 2008).
func nndsvda(x *mat.Dense, nTopics int) (*mat.Dense, *mat.Dense, error) {
	nDocs, nTerms := x.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("svd did not converge: %w", models.ErrInsufficientData)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	w := mat.NewDense(nDocs, nTopics, nil)
	h := mat.NewDense(nTopics, nTerms, nil)

	for j := 0; j < nTopics; j++ {
		uc := mat.Col(nil, j, &u)
		vc := mat.Col(nil, j, &v)

		if j == 0 {
			scale := math.Sqrt(s[0])
			for i, val := range uc {
				w.Set(i, 0, scale*math.Abs(val))
			}
			for i, val := range vc {
				h.Set(0, i, scale*math.Abs(val))
			}
			continue
		}

		up, un := splitSigns(uc)
		vp, vn := splitSigns(vc)
		upNorm, unNorm := floats.Norm(up, 2), floats.Norm(un, 2)
		vpNorm, vnNorm := floats.Norm(vp, 2), floats.Norm(vn, 2)
		mp, mn := upNorm*vpNorm, unNorm*vnNorm

		uSel, vSel, uNorm, vNorm, sigma := up, vp, upNorm, vpNorm, mp
		if mn > mp {
			uSel, vSel, uNorm, vNorm, sigma = un, vn, unNorm, vnNorm, mn
		}
		if sigma == 0 {
			continue
		}
		lbd := math.Sqrt(s[j] * sigma)
		for i, val := range uSel {
			w.Set(i, j, lbd*val/uNorm)
		}
		for i, val := range vSel {
			h.Set(j, i, lbd*val/vNorm)
		}
	}

	avg := mean(x)
	fill := func(_, _ int, val float64) float64 {
		if val < machineEpsilon {
			return avg
		}
		return val
	}
	w.Apply(fill, w)
	h.Apply(fill, h)
	return w, h, nil
}

func splitSigns(values []float64) (pos, neg []float64) {
	pos = make([]float64, len(values))
	neg = make([]float64, len(values))
	for i, v := range values {
		if v > 0 {
			pos[i] = v
		} else {
			neg[i] = -v
		}
	}
	return pos, neg
}

func mean(x *mat.Dense) float64 {
	rows, cols := x.Dims()
	return mat.Sum(x) / float64(rows*cols)
}
