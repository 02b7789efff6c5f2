package analysis

import (
	"fmt"
	"strconv"

	"github.com/carbocation/goassoc/modelspec"
	"github.com/carbocation/goassoc/stats"
)

// EntityResult holds the fitted statistics for one model entity (the
// intercept or a predictor). For the marker entity of a sweep result, Meta
// carries the variant metadata merged in after the fit.
type EntityResult struct {
	Stats stats.Stats
	Meta  *modelspec.VariantMeta
}

// Results maps each model entity to its statistics. Subscribers must access
// fields through Value or Float; asking for an undeclared entity or field is
// a contract violation reported as an UnknownFieldError.
type Results map[string]*EntityResult

// UnknownFieldError reports access to a field that the result does not
// carry.
type UnknownFieldError struct {
	Entity string
	Field  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q for entity %q", e.Field, e.Entity)
}

// Float returns the named statistic for an entity.
func (r Results) Float(entity, field string) (float64, error) {
	er, exists := r[entity]
	if !exists {
		return 0, &UnknownFieldError{Entity: entity, Field: field}
	}

	v, exists := er.Stats[field]
	if !exists {
		return 0, &UnknownFieldError{Entity: entity, Field: field}
	}

	return v, nil
}

// Value returns the named statistic or metadata field for an entity,
// formatted for output. Metadata fields are chr, pos, major, minor, and
// name.
func (r Results) Value(entity, field string) (string, error) {
	er, exists := r[entity]
	if !exists {
		return "", &UnknownFieldError{Entity: entity, Field: field}
	}

	if v, exists := er.Stats[field]; exists {
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}

	if er.Meta != nil {
		switch field {
		case "chr":
			return er.Meta.Chrom, nil
		case "pos":
			return strconv.Itoa(er.Meta.Pos), nil
		case "major":
			return er.Meta.Major, nil
		case "minor":
			return er.Meta.Minor, nil
		case "name":
			return er.Meta.Name, nil
		}
	}

	return "", &UnknownFieldError{Entity: entity, Field: field}
}

// wrapResults lifts a fitter's raw output into Results.
func wrapResults(raw map[string]stats.Stats) Results {
	out := make(Results, len(raw))
	for entity, s := range raw {
		out[entity] = &EntityResult{Stats: s}
	}

	return out
}
