package modelspec

import (
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/goassoc/phenotypes"
)

func testMatrix() *phenotypes.Matrix {
	return &phenotypes.Matrix{
		Samples: []string{"s1", "s2", "s3", "s4", "s5"},
		Columns: map[string][]null.Float{
			"y":   {null.FloatFrom(1), null.FloatFrom(2), null.Float{}, null.FloatFrom(4), null.FloatFrom(5)},
			"age": {null.FloatFrom(40), null.Float{}, null.FloatFrom(42), null.FloatFrom(43), null.FloatFrom(44)},
		},
	}
}

func TestDataMatrixDropsIncompleteRows(t *testing.T) {
	spec := &ModelSpec{Outcome: "y", Predictors: []string{"age", SNPs}}

	dm, err := spec.DataMatrix(testMatrix())
	if err != nil {
		t.Fatal(err)
	}

	// s2 is missing age, s3 is missing the outcome.
	if dm.NRows() != 3 {
		t.Fatalf("expected 3 complete rows, got %d", dm.NRows())
	}
	if got := []int{dm.Rows[0], dm.Rows[1], dm.Rows[2]}; got[0] != 0 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("expected surviving rows [0 3 4], got %v", got)
	}
	if dm.Outcome[1] != 4 {
		t.Fatalf("expected outcome row 1 to be 4, got %v", dm.Outcome[1])
	}
	if dm.Columns["age"][2] != 44 {
		t.Fatalf("expected age row 2 to be 44, got %v", dm.Columns["age"][2])
	}

	// The SNPs placeholder stays declared but has no column yet.
	if _, exists := dm.Columns[SNPs]; exists {
		t.Fatal("expected no genotype column before substitution")
	}
}

func TestSetColumnSubsetsThroughSurvivingRows(t *testing.T) {
	spec := &ModelSpec{Outcome: "y", Predictors: []string{"age", SNPs}}

	dm, err := spec.DataMatrix(testMatrix())
	if err != nil {
		t.Fatal(err)
	}

	// A full-length per-sample dosage vector lines up through Rows.
	dm.SetColumn(SNPs, []float64{10, 20, 30, 40, 50})
	got := dm.Columns[SNPs]
	if got[0] != 10 || got[1] != 40 || got[2] != 50 {
		t.Fatalf("expected dosages [10 40 50] after subsetting, got %v", got)
	}

	// An already-aligned vector is copied as is.
	dm.SetColumn(SNPs, []float64{7, 8, 9})
	got = dm.Columns[SNPs]
	if got[0] != 7 || got[2] != 9 {
		t.Fatalf("expected dosages [7 8 9], got %v", got)
	}
}

func TestCopyIsDeep(t *testing.T) {
	spec := &ModelSpec{Outcome: "y", Predictors: []string{"age"}}

	dm, err := spec.DataMatrix(testMatrix())
	if err != nil {
		t.Fatal(err)
	}

	cp := dm.Copy()
	cp.Columns["age"][0] = -1
	cp.Outcome[0] = -1

	if dm.Columns["age"][0] == -1 || dm.Outcome[0] == -1 {
		t.Fatal("mutating a copy must not touch the original")
	}
}

func TestSpecValidation(t *testing.T) {
	ph := testMatrix()

	for _, v := range []struct {
		name string
		spec ModelSpec
	}{
		{"no outcome", ModelSpec{Predictors: []string{"age"}}},
		{"no predictors", ModelSpec{Outcome: "y"}},
		{"outcome as predictor", ModelSpec{Outcome: "y", Predictors: []string{"y"}}},
		{"duplicate predictor", ModelSpec{Outcome: "y", Predictors: []string{"age", "age"}}},
		{"snps outcome", ModelSpec{Outcome: SNPs, Predictors: []string{"age"}}},
		{"unknown column", ModelSpec{Outcome: "y", Predictors: []string{"bmi"}}},
	} {
		if _, err := v.spec.DataMatrix(ph); err == nil {
			t.Fatalf("%s: expected an error", v.name)
		}
	}
}

func TestHasSNPs(t *testing.T) {
	with := &ModelSpec{Outcome: "y", Predictors: []string{"age", SNPs}}
	if !with.HasSNPs() {
		t.Fatal("expected HasSNPs to be true")
	}

	without := &ModelSpec{Outcome: "y", Predictors: []string{"age"}}
	if without.HasSNPs() {
		t.Fatal("expected HasSNPs to be false")
	}
}
