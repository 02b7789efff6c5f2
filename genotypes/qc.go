package genotypes

import (
	"math"

	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"
)

// QCFilter wraps a Reader and drops markers that fail basic quality checks
// before they ever reach a model fit: minor allele frequency below MinMAF,
// call rate below MinCallRate, or a constant dosage column (which can never
// be fit). Skipped markers are counted, not treated as fit failures.
type QCFilter struct {
	Source      Reader
	MinMAF      float64
	MinCallRate float64

	skipped int
}

func (f *QCFilter) Skipped() int {
	return f.skipped
}

func (f *QCFilter) Next() (*Marker, error) {
	for {
		m, err := f.Source.Next()
		if err != nil {
			return nil, err
		}

		if f.keep(m) {
			return m, nil
		}
		f.skipped++
	}
}

func (f *QCFilter) keep(m *Marker) bool {
	rs := runningvariance.NewRunningStat()
	called := make([]float64, 0, len(m.Dosages))
	for _, d := range m.Dosages {
		if math.IsNaN(d) {
			continue
		}
		rs.Push(d)
		called = append(called, d)
	}

	if len(m.Dosages) == 0 || len(called) == 0 {
		return false
	}

	if callRate := float64(len(called)) / float64(len(m.Dosages)); callRate < f.MinCallRate {
		return false
	}

	// A zero-variance column is collinear with the intercept.
	if rs.StandardDeviation() == 0 {
		return false
	}

	mean, err := stats.Mean(called)
	if err != nil {
		return false
	}

	maf := mean / 2.0
	if maf > 0.5 {
		maf = 1.0 - maf
	}

	return maf >= f.MinMAF
}
