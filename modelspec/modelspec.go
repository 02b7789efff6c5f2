// Package modelspec describes one statistical model: its test, outcome,
// predictors, display-name translations, and optional per-entity variant
// metadata. A spec whose predictors include the SNPs placeholder requests a
// genome-wide sweep.
package modelspec

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// SNPs is the reserved predictor name that stands in for the per-marker
// genotype column during a sweep.
const SNPs = "SNPs"

// VariantMeta is the marker-level metadata merged into a result's marker
// entity.
type VariantMeta struct {
	Chrom string `json:"chr"`
	Pos   int    `json:"pos"`
	Major string `json:"major"`
	Minor string `json:"minor"`
	Name  string `json:"name"`
}

// ModelSpec declares one association model.
type ModelSpec struct {
	ConfigPath string `json:"-"`

	Test       string   `json:"test"`
	Outcome    string   `json:"outcome"`
	Predictors []string `json:"predictors"`

	// Optional display labels for statistic names, e.g. {"coef": "Beta"}.
	Translations map[string]string `json:"translations"`

	// Optional per-entity metadata merged into single-fit results.
	VariantMetadata map[string]VariantMeta `json:"variant_metadata"`
}

// HasSNPs reports whether the marker genotype is one of the declared
// predictors, i.e. whether execution should sweep.
func (m *ModelSpec) HasSNPs() bool {
	for _, p := range m.Predictors {
		if p == SNPs {
			return true
		}
	}

	return false
}

// Translate maps an internal statistic or metadata field name to its display
// label, passing unknown names through unchanged.
func (m *ModelSpec) Translate(name string) string {
	if label, exists := m.Translations[name]; exists {
		return label
	}

	return name
}

func (m *ModelSpec) validate() error {
	if m.Outcome == "" {
		return pfx.Err(fmt.Errorf("modelspec: no outcome declared"))
	}
	if len(m.Predictors) == 0 {
		return pfx.Err(fmt.Errorf("modelspec: no predictors declared"))
	}
	if m.Outcome == SNPs {
		return pfx.Err(fmt.Errorf("modelspec: %q cannot be the outcome", SNPs))
	}

	seen := make(map[string]struct{})
	for _, p := range m.Predictors {
		if p == m.Outcome {
			return pfx.Err(fmt.Errorf("modelspec: %q is both outcome and predictor", p))
		}
		if _, dup := seen[p]; dup {
			return pfx.Err(fmt.Errorf("modelspec: predictor %q declared twice", p))
		}
		seen[p] = struct{}{}
	}

	return nil
}
