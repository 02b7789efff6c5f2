package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/carbocation/goassoc/modelspec"
)

const (
	irlsMaxIterations = 25
	irlsTolerance     = 1e-8
)

// Logistic fits logistic regression by iteratively reweighted least squares
// with an implicit intercept. The outcome must be coded 0/1. Per-entity
// statistics: coef, std_err, z_value, p_value (two-sided, Wald).
type Logistic struct{}

func (l *Logistic) Fit(dm *modelspec.DesignMatrix) (map[string]Stats, error) {
	if err := checkFinite(dm); err != nil {
		return nil, err
	}

	n := dm.NRows()
	names := append([]string{"intercept"}, dm.Names...)
	p := len(names)

	if n <= p {
		return nil, fmt.Errorf("stats: %d observations cannot fit %d coefficients", n, p)
	}
	for _, y := range dm.Outcome {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("stats: logistic outcome must be coded 0/1, got %v", y)
		}
	}

	X := designTo(dm)
	beta := mat.NewVecDense(p, nil)

	// Reused across iterations.
	eta := mat.NewVecDense(n, nil)
	w := make([]float64, n)
	z := mat.NewVecDense(n, nil)
	var xtwxInv mat.Dense

	converged := false
	for iter := 0; iter < irlsMaxIterations; iter++ {
		eta.MulVec(X, beta)

		for i := 0; i < n; i++ {
			mu := 1.0 / (1.0 + math.Exp(-eta.AtVec(i)))
			// Keep the weight away from zero so the working response
			// stays finite on separated data; separation then surfaces
			// as non-convergence instead of a NaN solve.
			wi := mu * (1.0 - mu)
			if wi < 1e-10 {
				wi = 1e-10
			}
			w[i] = wi
			z.SetVec(i, eta.AtVec(i)+(dm.Outcome[i]-mu)/wi)
		}

		// Solve (Xt W X) delta-target = Xt W z.
		xtw := mat.NewDense(p, n, nil)
		for j := 0; j < p; j++ {
			for i := 0; i < n; i++ {
				xtw.Set(j, i, X.At(i, j)*w[i])
			}
		}

		var xtwx mat.Dense
		xtwx.Mul(xtw, X)
		if err := xtwxInv.Inverse(&xtwx); err != nil {
			return nil, fmt.Errorf("stats: singular weighted design matrix: %v", err)
		}

		var xtwz mat.VecDense
		xtwz.MulVec(xtw, z)

		var next mat.VecDense
		next.MulVec(&xtwxInv, &xtwz)

		var maxDelta float64
		for j := 0; j < p; j++ {
			if d := math.Abs(next.AtVec(j) - beta.AtVec(j)); d > maxDelta {
				maxDelta = d
			}
		}
		beta.CopyVec(&next)

		if maxDelta < irlsTolerance {
			converged = true
			break
		}
	}

	if !converged {
		return nil, fmt.Errorf("stats: logistic regression did not converge in %d iterations", irlsMaxIterations)
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1}

	out := make(map[string]Stats, p)
	for j, name := range names {
		coef := beta.AtVec(j)
		se := math.Sqrt(xtwxInv.At(j, j))
		z := coef / se
		out[name] = Stats{
			"coef":    coef,
			"std_err": se,
			"z_value": z,
			"p_value": 2.0 * (1.0 - norm.CDF(math.Abs(z))),
		}
	}

	return out, nil
}
