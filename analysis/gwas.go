package analysis

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/carbocation/goassoc/genotypes"
	"github.com/carbocation/goassoc/modelspec"
	"github.com/carbocation/goassoc/stats"
	"github.com/carbocation/pfx"
)

// executeGWAS refits the model once per marker through a bounded
// producer / worker-pool / consumer pipeline.
//
// The work channel is bounded and closed once the marker stream is
// exhausted; the close is the termination broadcast, and each worker then
// emits one nil completion signal on the results channel. The producer
// enqueues with a select that simultaneously drains results and failures,
// so a full work queue can never deadlock against full result buffers and
// the results channel stays small while work is still being enqueued.
// Results reach subscribers in whatever order workers finish them; marker
// stream order is not preserved.
func (r *Runner) executeGWAS(gen genotypes.Reader, spec *modelspec.ModelSpec, subscribers []Subscriber, dm *modelspec.DesignMatrix) error {
	for _, subscriber := range subscribers {
		subscriber.Init(spec)
	}

	work := make(chan *genotypes.Marker, r.QueueDepth)
	// Room for every worker's completion signal on top of in-flight
	// results, so workers can always finish their final send.
	results := make(chan Results, r.QueueDepth+r.Workers)
	failed := make(chan string, r.QueueDepth)

	var abort atomic.Bool
	var wg sync.WaitGroup

	for i := 0; i < r.Workers; i++ {
		fitter, err := r.newFitter()
		if err != nil {
			close(work)
			return err
		}

		wg.Add(1)
		go func(fit stats.Fitter, own *modelspec.DesignMatrix) {
			defer wg.Done()
			gwasWorker(fit, own, work, results, failed, &abort)
		}(fitter, dm.Copy())
	}

	var (
		fatal         error
		failedMarkers []string
		doneWorkers   int
	)

	// consume processes one entry taken from the results channel: a nil is
	// a worker completion signal, anything else is dispatched. After a
	// fatal subscriber error, remaining results are drained but no longer
	// dispatched.
	consume := func(res Results) {
		if res == nil {
			doneWorkers++
			return
		}
		if fatal != nil {
			return
		}

		for _, subscriber := range subscribers {
			if err := subscriber.Handle(res); err != nil {
				fatal = r.invalidSubscriber(err, &abort)
				return
			}
		}
	}

producer:
	for fatal == nil {
		marker, err := gen.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			fatal = pfx.Err(err)
			abort.Store(true)
			break
		}

		for {
			select {
			case work <- marker:
				continue producer
			case res := <-results:
				consume(res)
				// On a fatal dispatch error the remaining workers are
				// already aborting; stop trying to enqueue.
				if fatal != nil {
					break producer
				}
			case name := <-failed:
				failedMarkers = append(failedMarkers, name)
			}
		}
	}

	// No more markers: broadcast termination.
	close(work)

	// Handle the remaining results until every worker has signaled
	// completion.
	for doneWorkers != r.Workers {
		select {
		case res := <-results:
			consume(res)
		case name := <-failed:
			failedMarkers = append(failedMarkers, name)
		}
	}

	wg.Wait()

	// Completion signals arrive after each worker's final failure send, but
	// on a different channel, so late failures may still be buffered.
failures:
	for {
		select {
		case name := <-failed:
			failedMarkers = append(failedMarkers, name)
		default:
			break failures
		}
	}

	if fatal != nil {
		return fatal
	}

	var closeErr error
	for _, subscriber := range subscribers {
		if err := subscriber.Close(); err != nil && closeErr == nil {
			closeErr = pfx.Err(err)
		}
	}

	if err := r.writeFailedMarkers(failedMarkers); err != nil {
		return err
	}

	// Anything left in the queues at this point is a protocol bug, never a
	// data condition.
	if len(work) != 0 || len(results) != 0 || len(failed) != 0 {
		panic(fmt.Sprintf("analysis: queue residue after shutdown: work=%d results=%d failed=%d", len(work), len(results), len(failed)))
	}

	r.Log.Printf("analysis complete: %d workers, %d failed markers", r.Workers, len(failedMarkers))

	return closeErr
}

// gwasWorker pulls markers, substitutes each marker's dosages into its
// private copy of the design matrix, and fits. A failed fit records the
// marker name and moves on; it never stops the pool. The abort flag is
// checked once per marker, so a fit already in progress finishes before the
// worker notices an abort.
func gwasWorker(fit stats.Fitter, dm *modelspec.DesignMatrix, work <-chan *genotypes.Marker, results chan<- Results, failed chan<- string, abort *atomic.Bool) {
	for marker := range work {
		if abort.Load() {
			break
		}

		dm.SetColumn(modelspec.SNPs, marker.Dosages)

		raw, err := fit.Fit(dm)
		if err != nil {
			if marker.Name != "" {
				failed <- marker.Name
			}
			continue
		}

		out := wrapResults(raw)

		// Enrich the marker entity with the variant metadata.
		er, exists := out[modelspec.SNPs]
		if !exists {
			er = &EntityResult{Stats: stats.Stats{}}
			out[modelspec.SNPs] = er
		}
		er.Meta = &modelspec.VariantMeta{
			Chrom: marker.Chrom,
			Pos:   marker.Pos,
			Major: marker.Major,
			Minor: marker.Minor,
			Name:  marker.Name,
		}

		results <- out
	}

	results <- nil
}

func (r *Runner) writeFailedMarkers(names []string) error {
	f, err := os.Create(r.FailedMarkersPath)
	if err != nil {
		return pfx.Err(err)
	}

	for _, name := range names {
		if _, err := fmt.Fprintln(f, name); err != nil {
			f.Close()
			return pfx.Err(err)
		}
	}

	return pfx.Err(f.Close())
}
