// Package stats holds the closed registry of statistical test fitters. Each
// fitter consumes a design matrix and returns one sub-mapping of statistics
// per model entity (the intercept and each predictor).
package stats

import (
	"fmt"
	"math"

	"github.com/carbocation/goassoc/modelspec"
	"github.com/carbocation/pfx"
)

// Stats maps a statistic name (e.g. "coef", "p_value") to its value.
type Stats map[string]float64

// Fitter fits one model against a design matrix. Fitters are not required
// to be safe for concurrent use; each sweep worker constructs its own.
type Fitter interface {
	Fit(dm *modelspec.DesignMatrix) (map[string]Stats, error)
}

// Test tags one member of the closed registry of supported tests.
type Test int

const (
	LinearRegression Test = iota
	LogisticRegression
	FisherExact
)

func (t Test) String() string {
	switch t {
	case LinearRegression:
		return "linear"
	case LogisticRegression:
		return "logistic"
	case FisherExact:
		return "fisher"
	}

	return fmt.Sprintf("Test(%d)", int(t))
}

// ParseTest maps a config string to its Test tag.
func ParseTest(name string) (Test, error) {
	switch name {
	case "linear":
		return LinearRegression, nil
	case "logistic":
		return LogisticRegression, nil
	case "fisher":
		return FisherExact, nil
	}

	return 0, pfx.Err(fmt.Errorf("stats: unknown test %q (want linear, logistic, or fisher)", name))
}

// New constructs a fresh fitter for the given test.
func New(t Test) (Fitter, error) {
	switch t {
	case LinearRegression:
		return &Linear{}, nil
	case LogisticRegression:
		return &Logistic{}, nil
	case FisherExact:
		return &Fisher{}, nil
	}

	return nil, pfx.Err(fmt.Errorf("stats: unknown test %v", t))
}

// checkFinite rejects matrices with NaN or Inf cells, which otherwise
// silently poison the linear algebra.
func checkFinite(dm *modelspec.DesignMatrix) error {
	for _, y := range dm.Outcome {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return fmt.Errorf("stats: non-finite outcome value")
		}
	}
	for _, name := range dm.Names {
		col, exists := dm.Columns[name]
		if !exists || len(col) != dm.NRows() {
			return fmt.Errorf("stats: predictor %q has no column of length %d", name, dm.NRows())
		}
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("stats: non-finite value in predictor %q", name)
			}
		}
	}

	return nil
}
