// goassoc runs a statistical association test between an outcome and one or
// more predictors, described by a JSON model config. When the model's
// predictors include the "SNPs" placeholder, it sweeps the model across
// every marker of a BGEN file, in parallel, isolating per-marker fit
// failures into failed_snps.txt.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/carbocation/goassoc/analysis"
	"github.com/carbocation/goassoc/genotypes"
	"github.com/carbocation/goassoc/modelspec"
	"github.com/carbocation/goassoc/phenotypes"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	start := time.Now()
	log.Println("goassoc start")
	defer func() {
		log.Printf("goassoc end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var (
		modelPath   string
		phenoPath   string
		bgenPath    string
		outPath     string
		columnSpecs string
		sep         string
		header      bool
		raw         bool
		minMAF      float64
		minCallRate float64
		workers     int
		failedPath  string
	)
	flag.StringVar(&modelPath, "model", "", "Path to the JSON model config (test, outcome, predictors, optional translations and variant_metadata)")
	flag.StringVar(&phenoPath, "pheno", "", "Path to the delimited phenotype file; first column is the sample ID, delimiter is sniffed")
	flag.StringVar(&bgenPath, "bgen", "", "Path to the BGEN file (required when the model's predictors include SNPs)")
	flag.StringVar(&outPath, "out", "", "(Optional) Output path for delimited rows; requires -columns. Without it, results are pretty-printed to stdout")
	flag.StringVar(&columnSpecs, "columns", "", "(Optional) Comma-delimited entity:field[:label] output columns, e.g. SNPs:name:snp,SNPs:p_value:p")
	flag.StringVar(&sep, "sep", "\t", "(Optional) Output field separator")
	flag.BoolVar(&header, "header", true, "(Optional) Write a header row when -columns is used")
	flag.BoolVar(&raw, "raw", false, "(Optional) Print raw statistic names, ignoring the model's translations")
	flag.Float64Var(&minMAF, "maf", 0, "(Optional) Skip markers with minor allele frequency below this value")
	flag.Float64Var(&minCallRate, "min-call-rate", 0, "(Optional) Skip markers with a call rate below this value")
	flag.IntVar(&workers, "workers", 0, "(Optional) Sweep worker count. Defaults to NumCPU-1")
	flag.StringVar(&failedPath, "failed", analysis.DefaultFailedMarkersPath, "(Optional) Path for the failed-marker list written after a sweep")
	flag.Parse()

	if modelPath == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --model")
	}

	if phenoPath == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --pheno")
	}

	spec, err := modelspec.ParseJSONModelFromPath(modelPath)
	if err != nil {
		log.Fatalln(err)
	}

	pheno, err := phenotypes.ReadFile(phenoPath)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("There are", pheno.NSamples(), "samples in the phenotype file")

	var gen genotypes.Reader
	var qc *genotypes.QCFilter
	if spec.HasSNPs() {
		if bgenPath == "" {
			flag.PrintDefaults()
			log.Fatalln("Please provide --bgen (the model's predictors include SNPs)")
		}

		if n, err := genotypes.VariantCount(bgenPath); err == nil {
			log.Println("There are", n, "variants in the BGEN index")
		}

		bg, err := genotypes.OpenBGEN(bgenPath)
		if err != nil {
			log.Fatalln(err)
		}
		defer bg.Close()
		gen = bg

		if minMAF > 0 || minCallRate > 0 {
			qc = &genotypes.QCFilter{Source: bg, MinMAF: minMAF, MinCallRate: minCallRate}
			gen = qc
		}
	}

	subscribers, err := buildSubscribers(outPath, columnSpecs, sep, header, raw)
	if err != nil {
		log.Fatalln(err)
	}

	runner := &analysis.Runner{Workers: workers, FailedMarkersPath: failedPath}
	if err := runner.Execute(pheno, gen, spec, subscribers); err != nil {
		log.Fatalln(err)
	}

	if qc != nil {
		log.Println("Skipped", qc.Skipped(), "markers that failed QC")
	}
}

func buildSubscribers(outPath, columnSpecs, sep string, header, raw bool) ([]analysis.Subscriber, error) {
	if columnSpecs == "" {
		if outPath != "" {
			return nil, fmt.Errorf("--out requires --columns")
		}

		return []analysis.Subscriber{&analysis.Print{Raw: raw, W: STDOUT}}, nil
	}

	var columns []analysis.Column
	for _, spec := range strings.Split(columnSpecs, ",") {
		c, err := analysis.ParseColumn(spec)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}

	if outPath == "" {
		rw, err := analysis.NewRowWriter(STDOUT, columns, header, sep)
		if err != nil {
			return nil, err
		}

		return []analysis.Subscriber{rw}, nil
	}

	rw, err := analysis.NewRowFileWriter(outPath, columns, header, sep)
	if err != nil {
		return nil, err
	}

	return []analysis.Subscriber{rw}, nil
}
