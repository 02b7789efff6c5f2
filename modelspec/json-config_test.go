package modelspec

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseJSONModelFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	content := `{
  "test": "linear",
  "outcome": "ldl",
  "predictors": ["age", "sex", "SNPs"],
  "translations": {"coef": "Beta"},
  "variant_metadata": {
    "geno": {"chr": "3", "pos": 12345, "major": "G", "minor": "T", "name": "rs42"}
  }
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	spec, err := ParseJSONModelFromPath(path)
	if err != nil {
		t.Fatal(err)
	}

	if spec.Test != "linear" || spec.Outcome != "ldl" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if !spec.HasSNPs() {
		t.Fatal("expected the SNPs predictor to be recognized")
	}
	if spec.Translate("coef") != "Beta" {
		t.Fatalf("expected coef to translate to Beta, got %q", spec.Translate("coef"))
	}
	if spec.Translate("p_value") != "p_value" {
		t.Fatal("expected unknown names to pass through untranslated")
	}
	if meta := spec.VariantMetadata["geno"]; meta.Name != "rs42" || meta.Pos != 12345 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestParseJSONModelRejectsInvalidSpecs(t *testing.T) {
	dir := t.TempDir()

	for _, v := range []struct {
		name    string
		content string
	}{
		{"bad json", `{"test": "linear",`},
		{"no outcome", `{"test": "linear", "predictors": ["age"]}`},
		{"no predictors", `{"test": "linear", "outcome": "y"}`},
	} {
		path := filepath.Join(dir, v.name+".json")
		if err := os.WriteFile(path, []byte(v.content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ParseJSONModelFromPath(path); err == nil {
			t.Fatalf("%s: expected an error", v.name)
		}
	}
}
