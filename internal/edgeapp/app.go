// internal/edgeapp/app.go
package edgeapp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"petlink/internal/cmdutil"
	"petlink/internal/edgecli"
	"petlink/internal/edges"
	"petlink/internal/emit"
	"petlink/internal/samload"
	"petlink/internal/version"
)

// RunContext is the petlink-edges entry point. Exit codes: 0 ok, 2 usage,
// 3 runtime failure.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	_ = parent // the join is a bounded single pass; no cancellation points

	fs := edgecli.NewFlagSet("petlink-edges")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		fs.SetOutput(stderr)
		fs.Usage()
		return 2
	}

	opts, err := edgecli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(stdout)
			fs.Usage()
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(stderr)
		fs.Usage()
		return 2
	}
	if opts.Version {
		_, _ = fmt.Fprintf(stdout, "petlink-edges version %s\n", version.Version)
		return 0
	}

	warn := func(format string, a ...any) {
		cmdutil.Warnf(stderr, opts.Quiet, format, a...)
	}

	samFile, err := os.Open(opts.SAM)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	asn, err := samload.Load(samFile, samload.Thresholds{
		MinMapQ:       opts.MinMapQ,
		MaxMismatches: opts.MaxMismatch,
		MaxHits:       opts.MaxHits,
	}, warn)
	_ = samFile.Close()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	cntFile, err := os.Open(opts.Counts)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	rows, err := edges.ReadCounts(cntFile)
	_ = cntFile.Close()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	var detail io.Writer
	if opts.Detail != "" {
		df, err := os.Create(opts.Detail)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		defer func() { _ = df.Close() }()
		detail = df
	}

	// A broken pipe on the detail stream means the consumer closed early
	// (detail can point at a FIFO); the aggregation itself is complete.
	table, diag, err := edges.Aggregate(rows, asn, detail, warn)
	if err != nil && !cmdutil.IsBrokenPipe(err) {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	out, err := emit.CreateAtomic(opts.Out)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	if err := edges.WriteEdges(out, edges.Sorted(table), opts.Header); err != nil {
		out.Abort()
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	if err := out.Commit(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	if !opts.Quiet {
		green := color.New(color.FgHiGreen).SprintFunc()
		_, _ = fmt.Fprintln(stderr, green(fmt.Sprintf("%d edges written to %s", len(table), opts.Out)))
		_, _ = fmt.Fprintln(stderr, diag.Summary())
	}
	return 0
}

// Run uses a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
