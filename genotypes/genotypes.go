// Package genotypes provides marker records and single-pass marker readers.
// Every reader yields dosage vectors in one fixed sample order that must
// match the sample order of the phenotype table; establishing that order is
// the caller's job.
package genotypes

import "io"

// Marker is one genetic variant with its per-sample dosage of the minor
// allele. Dosages are in [0, 2]; a missing genotype is NaN. A Marker is
// immutable once produced by a Reader.
type Marker struct {
	Name    string
	Chrom   string
	Pos     int
	Major   string
	Minor   string
	Dosages []float64
}

// Reader is a finite, single-pass source of markers. Next returns io.EOF
// after the final marker. Readers are not restartable without reopening the
// underlying source.
type Reader interface {
	Next() (*Marker, error)
}

// SliceReader serves markers from memory. Useful for small analyses and for
// tests.
type SliceReader struct {
	markers []*Marker
	at      int
}

func NewSliceReader(markers []*Marker) *SliceReader {
	return &SliceReader{markers: markers}
}

func (r *SliceReader) Next() (*Marker, error) {
	if r.at >= len(r.markers) {
		return nil, io.EOF
	}

	m := r.markers[r.at]
	r.at++

	return m, nil
}
