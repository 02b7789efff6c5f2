package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/carbocation/goassoc/modelspec"
)

// Linear fits ordinary least squares with an implicit intercept. Per-entity
// statistics: coef, std_err, t_value, p_value (two-sided, Student's t with
// n-p degrees of freedom).
type Linear struct{}

func (l *Linear) Fit(dm *modelspec.DesignMatrix) (map[string]Stats, error) {
	if err := checkFinite(dm); err != nil {
		return nil, err
	}

	n := dm.NRows()
	names := append([]string{"intercept"}, dm.Names...)
	p := len(names)

	dof := n - p
	if dof < 1 {
		return nil, fmt.Errorf("stats: %d observations cannot fit %d coefficients", n, p)
	}

	X := designTo(dm)
	y := mat.NewVecDense(n, dm.Outcome)

	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("stats: singular design matrix: %v", err)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), y)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	var rss float64
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	sigma2 := rss / float64(dof)

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}

	out := make(map[string]Stats, p)
	for j, name := range names {
		coef := beta.AtVec(j)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))

		t := coef / se
		out[name] = Stats{
			"coef":    coef,
			"std_err": se,
			"t_value": t,
			"p_value": 2.0 * (1.0 - tdist.CDF(math.Abs(t))),
		}
	}

	return out, nil
}

// designTo assembles the n-by-p dense design matrix with a leading column of
// ones for the intercept.
func designTo(dm *modelspec.DesignMatrix) *mat.Dense {
	n := dm.NRows()
	X := mat.NewDense(n, 1+len(dm.Names), nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1.0)
	}
	for j, name := range dm.Names {
		X.SetCol(1+j, dm.Columns[name])
	}

	return X
}
