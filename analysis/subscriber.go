package analysis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/carbocation/goassoc/modelspec"
	"github.com/carbocation/pfx"
)

// Subscriber consumes finalized results. Init binds the subscriber to the
// active model spec and is called once before any Handle; Handle is called
// once per finalized result; Close is called exactly once at end of run,
// whether or not any results were produced. Handle must access results only
// through the Results accessors: an UnknownFieldError returned from Handle
// aborts the whole run.
type Subscriber interface {
	Init(spec *modelspec.ModelSpec)
	Handle(results Results) error
	Close() error
}

// Print writes each result to W (stdout by default) in a human-readable
// block, applying the model spec's display-name translations unless Raw is
// set.
type Print struct {
	Raw bool
	W   io.Writer

	spec *modelspec.ModelSpec
}

func (p *Print) Init(spec *modelspec.ModelSpec) {
	p.spec = spec
}

func (p *Print) Handle(results Results) error {
	w := p.W
	if w == nil {
		w = os.Stdout
	}

	entities := make([]string, 0, len(results))
	for entity := range results {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		er := results[entity]

		if _, err := fmt.Fprintf(w, "%s:\n", entity); err != nil {
			return pfx.Err(err)
		}

		if er.Meta != nil {
			if _, err := fmt.Fprintf(w, "  %s:%d %s/%s (%s)\n", er.Meta.Chrom, er.Meta.Pos, er.Meta.Major, er.Meta.Minor, er.Meta.Name); err != nil {
				return pfx.Err(err)
			}
		}

		fields := make([]string, 0, len(er.Stats))
		for field := range er.Stats {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			label := field
			if !p.Raw && p.spec != nil {
				label = p.spec.Translate(field)
			}
			if _, err := fmt.Fprintf(w, "  %s: %g\n", label, er.Stats[field]); err != nil {
				return pfx.Err(err)
			}
		}
	}

	return nil
}

func (p *Print) Close() error {
	return nil
}

// Column names one output cell of a RowWriter: an entity, the field to pull
// from it, and an optional header label.
type Column struct {
	Entity string
	Field  string
	Label  string
}

// ParseColumn parses an "entity:field[:label]" column spec.
func ParseColumn(spec string) (Column, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Column{}, pfx.Err(fmt.Errorf("analysis: column spec %q is not entity:field[:label]", spec))
	}

	c := Column{Entity: parts[0], Field: parts[1]}
	if len(parts) == 3 {
		c.Label = parts[2]
	} else {
		c.Label = parts[0] + "." + parts[1]
	}

	return c, nil
}

// RowWriter writes one delimited row per result, one cell per Column.
type RowWriter struct {
	columns []Column
	sep     string
	w       *bufio.Writer
	f       *os.File
}

// NewRowWriter writes rows to w. The header row is written immediately when
// requested.
func NewRowWriter(w io.Writer, columns []Column, header bool, sep string) (*RowWriter, error) {
	if sep == "" {
		sep = "\t"
	}

	rw := &RowWriter{columns: columns, sep: sep, w: bufio.NewWriter(w)}

	if header {
		labels := make([]string, len(columns))
		for i, c := range columns {
			labels[i] = c.Label
		}
		if _, err := rw.w.WriteString(strings.Join(labels, sep) + "\n"); err != nil {
			return nil, pfx.Err(err)
		}
	}

	return rw, nil
}

// NewRowFileWriter is NewRowWriter against a freshly created file, which is
// closed by Close.
func NewRowFileWriter(path string, columns []Column, header bool, sep string) (*RowWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rw, err := NewRowWriter(f, columns, header, sep)
	if err != nil {
		f.Close()
		return nil, err
	}
	rw.f = f

	return rw, nil
}

func (rw *RowWriter) Init(spec *modelspec.ModelSpec) {}

func (rw *RowWriter) Handle(results Results) error {
	row := make([]string, len(rw.columns))
	for i, c := range rw.columns {
		v, err := results.Value(c.Entity, c.Field)
		if err != nil {
			return err
		}
		row[i] = v
	}

	if _, err := rw.w.WriteString(strings.Join(row, rw.sep) + "\n"); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(rw.w.Flush())
}

func (rw *RowWriter) Close() error {
	if err := rw.w.Flush(); err != nil {
		return pfx.Err(err)
	}
	if rw.f != nil {
		return pfx.Err(rw.f.Close())
	}

	return nil
}
