// Package phenotypes reads delimited phenotype tables into column vectors
// keyed by header name. The first column is treated as the sample
// identifier. Cells that are empty or that match a recognized missing-value
// code become invalid floats.
package phenotypes

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/carbocation/goassoc"
	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

// Codes that indicate a missing phenotype value, beyond the empty string.
var missingCodes = map[string]struct{}{
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	".":    {},
	"-9":   {},
}

// Matrix holds one column of nullable float64 values per phenotype, all in
// the same fixed sample order.
type Matrix struct {
	Samples []string
	Columns map[string][]null.Float
}

// NSamples returns the number of rows in the matrix.
func (m *Matrix) NSamples() int {
	return len(m.Samples)
}

// Column returns the named phenotype column, or an error if the table has no
// such header.
func (m *Matrix) Column(name string) ([]null.Float, error) {
	col, exists := m.Columns[name]
	if !exists {
		return nil, pfx.Err(fmt.Errorf("phenotypes: no column named %q", name))
	}

	return col, nil
}

// ReadFile opens a delimited phenotype file, sniffs its delimiter, and
// parses it into a Matrix.
func ReadFile(path string) (*Matrix, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	delim := goassoc.DetermineDelimiter(bytes.NewReader(bts))

	return Read(bytes.NewReader(bts), delim)
}

// Read parses a delimited phenotype table. The first header names the sample
// identifier column; every other header becomes a phenotype column.
func Read(r io.Reader, delim rune) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("phenotypes: header parsing error: %v", err))
	}
	if len(header) < 2 {
		return nil, pfx.Err(fmt.Errorf("phenotypes: expected a sample column plus at least one phenotype, got %d columns", len(header)))
	}

	out := &Matrix{Columns: make(map[string][]null.Float)}
	for _, name := range header[1:] {
		if _, exists := out.Columns[name]; exists {
			return nil, pfx.Err(fmt.Errorf("phenotypes: duplicated column %q", name))
		}
		out.Columns[name] = nil
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		out.Samples = append(out.Samples, row[0])
		for i, name := range header[1:] {
			v, err := parseCell(row[i+1])
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("phenotypes: sample %s, column %q: %v", row[0], name, err))
			}
			out.Columns[name] = append(out.Columns[name], v)
		}
	}

	return out, nil
}

func parseCell(cell string) (null.Float, error) {
	if cell == "" {
		return null.Float{}, nil
	}
	if _, missing := missingCodes[cell]; missing {
		return null.Float{}, nil
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return null.Float{}, err
	}

	return null.FloatFrom(v), nil
}
