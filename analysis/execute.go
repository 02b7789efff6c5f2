// Package analysis is the execution engine for association testing: it
// builds the design matrix, chooses between a single fit and a genome-wide
// sweep, drives the sweep's worker pool, isolates per-marker failures, and
// dispatches finalized results to subscribers.
package analysis

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"

	"github.com/carbocation/goassoc/genotypes"
	"github.com/carbocation/goassoc/modelspec"
	"github.com/carbocation/goassoc/phenotypes"
	"github.com/carbocation/goassoc/stats"
	"github.com/carbocation/pfx"
)

// ErrInvalidSubscriber reports that a subscriber accessed an undeclared
// result field. It is fatal: the run stops and no further results are
// dispatched.
var ErrInvalidSubscriber = errors.New("analysis: subscriber raised on result dispatch")

// DefaultFailedMarkersPath is the side-channel file that collects the names
// of markers whose fit failed during a sweep, one per line.
const DefaultFailedMarkersPath = "failed_snps.txt"

// DefaultQueueDepth bounds the work queue. The producer blocks once this
// many markers are pending, keeping memory constant no matter how many
// markers the source holds.
const DefaultQueueDepth = 500

// Runner executes one analysis. The zero value is usable; fields override
// the defaults.
type Runner struct {
	// Workers is the sweep pool size. Defaults to NumCPU-1, reserving one
	// unit for the producer/consumer loop.
	Workers int

	// QueueDepth bounds the work queue. Defaults to DefaultQueueDepth.
	QueueDepth int

	// FailedMarkersPath overrides DefaultFailedMarkersPath.
	FailedMarkersPath string

	// Log receives progress and critical messages. Defaults to
	// log.Default().
	Log *log.Logger

	// newFitter overrides fitter construction; tests use it to inject
	// canned fitters.
	newFitter func() (stats.Fitter, error)
}

// Execute runs the analysis described by spec with default Runner settings.
func Execute(ph *phenotypes.Matrix, gen genotypes.Reader, spec *modelspec.ModelSpec, subscribers []Subscriber) error {
	r := &Runner{}
	return r.Execute(ph, gen, spec, subscribers)
}

// Execute builds the design matrix from the phenotype table, dropping every
// row with a missing value, then either fits the model once or, when the
// marker genotype is among the declared predictors, sweeps it across every
// marker the reader yields.
func (r *Runner) Execute(ph *phenotypes.Matrix, gen genotypes.Reader, spec *modelspec.ModelSpec, subscribers []Subscriber) error {
	if r.Workers < 1 {
		r.Workers = runtime.NumCPU() - 1
	}
	if r.Workers < 1 {
		r.Workers = 1
	}
	if r.QueueDepth < 1 {
		r.QueueDepth = DefaultQueueDepth
	}
	if r.FailedMarkersPath == "" {
		r.FailedMarkersPath = DefaultFailedMarkersPath
	}
	if r.Log == nil {
		r.Log = log.Default()
	}
	if r.newFitter == nil {
		test, err := stats.ParseTest(spec.Test)
		if err != nil {
			return err
		}
		r.newFitter = func() (stats.Fitter, error) { return stats.New(test) }
	}
	if len(subscribers) == 0 {
		subscribers = []Subscriber{&Print{}}
	}

	dm, err := spec.DataMatrix(ph)
	if err != nil {
		return err
	}

	if spec.HasSNPs() {
		return r.executeGWAS(gen, spec, subscribers, dm)
	}

	return r.executeSingle(spec, subscribers, dm)
}

func (r *Runner) executeSingle(spec *modelspec.ModelSpec, subscribers []Subscriber, dm *modelspec.DesignMatrix) error {
	fitter, err := r.newFitter()
	if err != nil {
		return err
	}

	raw, err := fitter.Fit(dm)
	if err != nil {
		return pfx.Err(err)
	}

	results := wrapResults(raw)

	// Merge externally supplied per-entity variant metadata.
	for entity, meta := range spec.VariantMetadata {
		if er, exists := results[entity]; exists {
			m := meta
			er.Meta = &m
		}
	}

	for _, subscriber := range subscribers {
		subscriber.Init(spec)
		if err := subscriber.Handle(results); err != nil {
			return r.invalidSubscriber(err, nil)
		}
	}

	return nil
}

// invalidSubscriber emits the single critical log entry for a fatal
// subscriber contract violation, flips the sweep abort flag when one is in
// play, and returns the error the caller propagates. The process exits
// non-zero from cmd on any returned error.
func (r *Runner) invalidSubscriber(err error, abort *atomic.Bool) error {
	field := err.Error()
	var ufe *UnknownFieldError
	if errors.As(err, &ufe) {
		field = ufe.Field
	}

	r.Log.Printf("CRITICAL: a subscriber for this analysis raised an error. "+
		"This is likely because an invalid field was accessed from the results "+
		"of the statistical test. Unknown field: '%s'", field)

	if abort != nil {
		abort.Store(true)
	}

	return fmt.Errorf("%w: unknown field %q", ErrInvalidSubscriber, field)
}
