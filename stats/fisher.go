package stats

import (
	"fmt"
	"math"

	fet "github.com/glycerine/golang-fisher-exact"

	"github.com/carbocation/goassoc/modelspec"
)

// Fisher runs an allelic Fisher's exact test: dosages are hard-called and
// minor-allele counts are tabulated for cases against controls. It supports
// exactly one predictor (the genotype column) and a 0/1 outcome; covariates
// need a regression test instead. Statistics on the predictor entity:
// odds_ratio, p_value (two-sided), left_p, right_p.
type Fisher struct{}

func (f *Fisher) Fit(dm *modelspec.DesignMatrix) (map[string]Stats, error) {
	if err := checkFinite(dm); err != nil {
		return nil, err
	}

	if len(dm.Names) != 1 {
		return nil, fmt.Errorf("stats: fisher expects exactly one predictor, got %d", len(dm.Names))
	}
	name := dm.Names[0]
	dosages := dm.Columns[name]

	// 2x2 allele-count table:
	//
	//           minor  major
	//   cases    n11    n12
	//   controls n21    n22
	var n11, n12, n21, n22 int
	for i, y := range dm.Outcome {
		minor := int(math.Round(dosages[i]))
		if minor < 0 || minor > 2 {
			return nil, fmt.Errorf("stats: dosage %v is outside [0, 2]", dosages[i])
		}

		switch y {
		case 1:
			n11 += minor
			n12 += 2 - minor
		case 0:
			n21 += minor
			n22 += 2 - minor
		default:
			return nil, fmt.Errorf("stats: fisher outcome must be coded 0/1, got %v", y)
		}
	}

	if n11+n12 == 0 || n21+n22 == 0 {
		return nil, fmt.Errorf("stats: fisher requires both cases and controls")
	}

	_, leftp, rightp, twop := fet.FisherExactTest(n11, n12, n21, n22)

	oddsRatio := (float64(n11) * float64(n22)) / (float64(n12) * float64(n21))

	return map[string]Stats{
		name: {
			"odds_ratio": oddsRatio,
			"p_value":    twop,
			"left_p":     leftp,
			"right_p":    rightp,
		},
	}, nil
}
