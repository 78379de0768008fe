// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"petlink/internal/tagpair"
	"petlink/internal/version"
)

// Options holds all petlink-count flags.
type Options struct {
	// Input
	Reads []string

	// Scan parameters
	Linker      string
	Marker      string
	MarkerDist  int
	Mismatches  int
	Flank       int
	BothOrients bool

	// Performance
	Threads int

	// Output
	OutPrefix string
	Detail    string
	Progress  bool
	Quiet     bool
	Header    bool // true unless --no-header

	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: count bait/prey tag pairs around a linker in sequencing reads

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

	var reads stringSlice
	fs.Var(&reads, "reads", "FASTQ file(s), plain or gzip, repeatable or '-' [*]")

	fs.StringVar(&opt.Linker, "linker", "", "linker sequence [*]")
	fs.StringVar(&opt.Marker, "marker", "", "secondary marker that must occur near the linker match [optional]")
	fs.IntVar(&opt.MarkerDist, "marker-dist", 0, "max distance (nt) from linker span to the marker [0]")
	fs.IntVar(&opt.Mismatches, "mismatches", 0, "max mismatches when locating the linker [0]")
	fs.IntVar(&opt.Flank, "flank", 13, "tag length extracted on each side of the linker [13]")
	fs.BoolVar(&opt.BothOrients, "both-orients", false, "also try the reverse-complement linker orientation [false]")

	fs.IntVar(&opt.Threads, "threads", 0, "number of worker threads (0 = all CPUs) [0]")

	fs.StringVar(&opt.OutPrefix, "out", "", "output path prefix (<out>.cnt, <out>.tags.fq) [*]")
	fs.StringVar(&opt.Detail, "detail", "", "write per-read scan detail to this path [off]")
	fs.BoolVar(&opt.Progress, "progress", false, "show a byte-level progress bar [false]")
	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress warnings and the summary block [false]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress the count-table header line [false]")

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
	opt.Reads = reads
	opt.Header = !noHeader
	opt.Linker = strings.ToUpper(opt.Linker)
	opt.Marker = strings.ToUpper(opt.Marker)

	// Validation
	if len(opt.Reads) == 0 {
		return opt, errors.New("at least one --reads file is required")
	}
	if opt.Linker == "" {
		return opt, errors.New("--linker is required")
	}
	if !isACGT(opt.Linker) {
		return opt, fmt.Errorf("--linker %q must be A/C/G/T only", opt.Linker)
	}
	if opt.Marker != "" && !isACGT(opt.Marker) {
		return opt, fmt.Errorf("--marker %q must be A/C/G/T only", opt.Marker)
	}
	if opt.OutPrefix == "" {
		return opt, errors.New("--out prefix is required")
	}
	if opt.Mismatches < 0 {
		return opt, errors.New("--mismatches must be ≥ 0")
	}
	if opt.MarkerDist < 0 {
		return opt, errors.New("--marker-dist must be ≥ 0")
	}
	if opt.Flank <= 0 {
		return opt, errors.New("--flank must be > 0")
	}
	if opt.Flank > tagpair.MaxTagLen {
		return opt, fmt.Errorf("--flank must be ≤ %d (synthetic-id packing limit)", tagpair.MaxTagLen)
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be ≥ 0")
	}
	return opt, nil
}

func isACGT(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// stringSlice allows repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string     { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error { *s = append(*s, v); return nil }
