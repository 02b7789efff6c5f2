package stats

import (
	"math"
	"testing"

	"github.com/carbocation/goassoc/modelspec"
)

// Grouped binary data: 3/10 successes at x=0, 7/10 at x=1. The MLE has a
// closed form: intercept ln(3/7), slope ln(49/9), Wald standard errors from
// the 2x2 cell counts.
func TestLogisticKnownValues(t *testing.T) {
	var y, x []float64
	for i := 0; i < 10; i++ {
		// x = 0 group: 3 successes.
		if i < 3 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
		x = append(x, 0)
	}
	for i := 0; i < 10; i++ {
		// x = 1 group: 7 successes.
		if i < 7 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
		x = append(x, 1)
	}

	dm := &modelspec.DesignMatrix{
		Outcome: y,
		Names:   []string{"x"},
		Columns: map[string][]float64{"x": x},
	}

	res, err := (&Logistic{}).Fit(dm)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		entity string
		field  string
		want   float64
		tol    float64
	}{
		{"intercept", "coef", math.Log(3.0 / 7.0), 1e-6},
		{"intercept", "std_err", 0.690066, 1e-4},
		{"x", "coef", math.Log(49.0 / 9.0), 1e-6},
		{"x", "std_err", 0.975900, 1e-4},
		{"x", "z_value", 1.736445, 1e-4},
		{"x", "p_value", 0.08249, 1e-3},
	} {
		got, exists := res[v.entity][v.field]
		if !exists {
			t.Fatalf("%s/%s missing from results", v.entity, v.field)
		}
		if math.Abs(got-v.want) > v.tol {
			t.Fatalf("%s/%s: expected %v, got %v", v.entity, v.field, v.want, got)
		}
	}
}

func TestLogisticRejectsNonBinaryOutcome(t *testing.T) {
	dm := &modelspec.DesignMatrix{
		Outcome: []float64{0, 1, 2, 1},
		Names:   []string{"x"},
		Columns: map[string][]float64{"x": {1, 2, 3, 4}},
	}

	if _, err := (&Logistic{}).Fit(dm); err == nil {
		t.Fatal("expected an error for a non-0/1 outcome")
	}
}

func TestLogisticSeparationDoesNotConverge(t *testing.T) {
	// Perfectly separated data has no finite MLE.
	dm := &modelspec.DesignMatrix{
		Outcome: []float64{0, 0, 0, 0, 1, 1, 1, 1},
		Names:   []string{"x"},
		Columns: map[string][]float64{"x": {1, 2, 3, 4, 5, 6, 7, 8}},
	}

	if _, err := (&Logistic{}).Fit(dm); err == nil {
		t.Fatal("expected a non-convergence error on separated data")
	}
}
