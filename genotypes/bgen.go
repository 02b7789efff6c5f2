package genotypes

import (
	"fmt"
	"io"
	"math"

	"github.com/carbocation/bgen"
	"github.com/carbocation/pfx"

	// The BGI index is a SQLite file.
	_ "github.com/mattn/go-sqlite3"
)

// BGENReader streams markers out of a BGEN file in file order, converting
// each variant's genotype probabilities to minor-allele dosages.
type BGENReader struct {
	bg *bgen.BGEN
	vr *bgen.VariantReader
}

// OpenBGEN opens a BGEN file for sequential reading.
func OpenBGEN(path string) (*BGENReader, error) {
	bg, err := bgen.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &BGENReader{bg: bg, vr: bg.NewVariantReader()}, nil
}

// VariantCount reports the number of variants in the BGI index that
// accompanies the BGEN file at bgenPath.
func VariantCount(bgenPath string) (int, error) {
	bgi, err := bgen.OpenBGI(bgenPath + ".bgi")
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer bgi.Close()

	var n int
	if err := bgi.DB.Get(&n, "SELECT COUNT(*) FROM Variant"); err != nil {
		return 0, pfx.Err(err)
	}

	return n, nil
}

func (r *BGENReader) Next() (*Marker, error) {
	variant := r.vr.Read()
	if err := r.vr.Error(); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, pfx.Err(err)
	}
	if variant == nil {
		return nil, io.EOF
	}

	if len(variant.Alleles) != 2 {
		return nil, pfx.Err(fmt.Errorf("genotypes: %s at %s:%d is not biallelic (%d alleles)", variant.RSID, variant.Chromosome, variant.Position, len(variant.Alleles)))
	}

	// Dosage of allele2 for each sample. Anything other than a diploid
	// 3-probability sample is treated as missing.
	dosages := make([]float64, len(variant.SampleProbabilities))
	var allele2Sum float64
	for i, sp := range variant.SampleProbabilities {
		if sp.Ploidy != 2 || len(sp.Probabilities) != 3 {
			dosages[i] = math.NaN()
			continue
		}

		dosages[i] = sp.Probabilities[1] + 2.0*sp.Probabilities[2]
		allele2Sum += dosages[i]
	}

	m := &Marker{
		Name:    variant.RSID,
		Chrom:   variant.Chromosome,
		Pos:     int(variant.Position),
		Major:   string(variant.Alleles[0]),
		Minor:   string(variant.Alleles[1]),
		Dosages: dosages,
	}

	// The BGEN format doesn't promise that allele2 is the minor allele.
	// Flip so that dosages always count the minor allele.
	if allele2Sum > float64(len(dosages)) {
		m.Major, m.Minor = m.Minor, m.Major
		for i, d := range m.Dosages {
			if !math.IsNaN(d) {
				m.Dosages[i] = 2.0 - d
			}
		}
	}

	return m, nil
}

func (r *BGENReader) Close() error {
	return r.bg.Close()
}
