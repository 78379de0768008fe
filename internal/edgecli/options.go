// internal/edgecli/options.go
package edgecli

import (
	"errors"
	"flag"
	"fmt"

	"petlink/internal/version"
)

// Options holds all petlink-edges flags.
type Options struct {
	Counts string
	SAM    string
	Out    string
	Detail string

	MinMapQ     int
	MaxMismatch int
	MaxHits     int

	Quiet   bool
	Header  bool // true unless --no-header
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: aggregate counted tag pairs into bait-gene × prey-gene edges

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returning an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.Counts, "counts", "", "pair count table (.cnt) from petlink-count [*]")
	fs.StringVar(&opt.SAM, "sam", "", "alignments of the tag reads against the gene library (SAM) [*]")
	fs.StringVar(&opt.Out, "out", "", "output path for the edge table (TSV) [*]")
	fs.StringVar(&opt.Detail, "detail", "", "write per-pair resolution detail to this path [off]")

	fs.IntVar(&opt.MinMapQ, "min-mapq", 0, "minimum mapping quality [0]")
	fs.IntVar(&opt.MaxMismatch, "max-mismatch", 0, "maximum NM edit distance per alignment [0]")
	fs.IntVar(&opt.MaxHits, "max-hits", 1, "maximum alignments per tag (1 = unique) [1]")

	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress warnings and the summary block [false]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress the edge-table header line [false]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	opt.Header = !noHeader

	switch {
	case opt.Counts == "":
		return opt, errors.New("--counts is required")
	case opt.SAM == "":
		return opt, errors.New("--sam is required")
	case opt.Out == "":
		return opt, errors.New("--out is required")
	}
	if opt.MinMapQ < 0 || opt.MaxMismatch < 0 {
		return opt, errors.New("--min-mapq and --max-mismatch must be ≥ 0")
	}
	if opt.MaxHits < 1 {
		return opt, errors.New("--max-hits must be ≥ 1")
	}
	return opt, nil
}
