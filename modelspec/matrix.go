package modelspec

import (
	"fmt"

	"github.com/carbocation/goassoc/phenotypes"
	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

// DesignMatrix is the outcome vector plus named predictor columns, all in
// the same row order. Rows records the original sample indices that survived
// missing-value dropping, so that full-length per-sample vectors (marker
// dosages in particular) can be subset into alignment with the matrix.
type DesignMatrix struct {
	Samples []string
	Rows    []int
	Outcome []float64
	Names   []string
	Columns map[string][]float64
}

// NRows returns the number of complete observations in the matrix.
func (dm *DesignMatrix) NRows() int {
	return len(dm.Outcome)
}

// Copy returns a deep copy. Each sweep worker fits against its own copy so
// that genotype substitution never shares mutable state across workers.
func (dm *DesignMatrix) Copy() *DesignMatrix {
	out := &DesignMatrix{
		Samples: dm.Samples,
		Rows:    dm.Rows,
		Outcome: append([]float64(nil), dm.Outcome...),
		Names:   append([]string(nil), dm.Names...),
		Columns: make(map[string][]float64, len(dm.Columns)),
	}
	for name, col := range dm.Columns {
		out.Columns[name] = append([]float64(nil), col...)
	}

	return out
}

// SetColumn substitutes values as the named column, subsetting full through
// the surviving-row index when it is longer than the matrix.
func (dm *DesignMatrix) SetColumn(name string, full []float64) {
	col := dm.Columns[name]
	if cap(col) < dm.NRows() {
		col = make([]float64, dm.NRows())
	}
	col = col[:dm.NRows()]

	if len(full) == dm.NRows() {
		copy(col, full)
	} else {
		for i, row := range dm.Rows {
			col[i] = full[row]
		}
	}

	dm.Columns[name] = col
}

// DataMatrix builds the design matrix for this model from a phenotype table,
// dropping every row with a missing value in the outcome or in any declared
// predictor. The SNPs placeholder stays in Names with no column; sweep
// workers fill it per marker.
func (m *ModelSpec) DataMatrix(ph *phenotypes.Matrix) (*DesignMatrix, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	outcome, err := ph.Column(m.Outcome)
	if err != nil {
		return nil, err
	}

	type namedCol struct {
		name string
		vals []null.Float
	}
	cols := make([]namedCol, 0, len(m.Predictors))
	for _, p := range m.Predictors {
		if p == SNPs {
			continue
		}
		vals, err := ph.Column(p)
		if err != nil {
			return nil, err
		}
		cols = append(cols, namedCol{name: p, vals: vals})
	}

	dm := &DesignMatrix{
		Names:   append([]string(nil), m.Predictors...),
		Columns: make(map[string][]float64),
	}

rows:
	for i := 0; i < ph.NSamples(); i++ {
		if !outcome[i].Valid {
			continue
		}
		for _, c := range cols {
			if !c.vals[i].Valid {
				continue rows
			}
		}

		dm.Samples = append(dm.Samples, ph.Samples[i])
		dm.Rows = append(dm.Rows, i)
		dm.Outcome = append(dm.Outcome, outcome[i].Float64)
		for _, c := range cols {
			dm.Columns[c.name] = append(dm.Columns[c.name], c.vals[i].Float64)
		}
	}

	if dm.NRows() == 0 {
		return nil, pfx.Err(fmt.Errorf("modelspec: no sample has complete data for outcome %q and its predictors", m.Outcome))
	}

	return dm, nil
}
