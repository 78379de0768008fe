// internal/countapp/app.go
package countapp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"

	"petlink/internal/cli"
	"petlink/internal/cmdutil"
	"petlink/internal/counter"
	"petlink/internal/emit"
	"petlink/internal/linker"
	"petlink/internal/pipeline"
	"petlink/internal/version"
)

// RunContext is the petlink-count entry point. Exit codes: 0 ok, 2 usage,
// 3 runtime failure.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("petlink-count")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		fs.SetOutput(stderr)
		fs.Usage()
		return 2
	}

	opts, err := cli.ParseArgs(fs, argv)
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
		_, _ = fmt.Fprintf(stdout, "petlink-count version %s\n", version.Version)
		return 0
	}

	sc := linker.New(linker.Config{
		Pattern:       []byte(opts.Linker),
		Marker:        []byte(opts.Marker),
		MaxMismatches: opts.Mismatches,
		MarkerDist:    opts.MarkerDist,
		Flank:         opts.Flank,
		BothOrients:   opts.BothOrients,
	})

	thr := opts.Threads
	if thr <= 0 {
		thr = runtime.NumCPU()
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

	tbl := counter.NewTable()
	st := &pipeline.Stats{}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// A broken pipe from the detail stream is tolerated: the collector
	// stops writing but the workers drain every read, so the table is
	// complete.
	if err := pipeline.Count(ctx, pipeline.Config{
		Threads:  thr,
		Progress: opts.Progress,
	}, opts.Reads, sc, tbl, st, detail); err != nil && !cmdutil.IsBrokenPipe(err) {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	recs := tbl.Snapshot()

	// Both outputs go through .partial paths; a failed run leaves no
	// file that could be mistaken for a complete table.
	cnt, err := emit.CreateAtomic(opts.OutPrefix + ".cnt")
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	tags, err := emit.CreateAtomic(opts.OutPrefix + ".tags.fq")
	if err != nil {
		cnt.Abort()
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	if err := emit.WriteCounts(cnt, recs, opts.Header); err == nil {
		err = emit.WriteTagReads(tags, recs)
	}
	if err == nil {
		if err = cnt.Commit(); err == nil {
			err = tags.Commit()
		}
	}
	if err != nil {
		cnt.Abort()
		tags.Abort()
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	if !opts.Quiet {
		green := color.New(color.FgHiGreen).SprintFunc()
		_, _ = fmt.Fprintln(stderr, green(fmt.Sprintf("%d distinct tag pairs counted.", len(recs))))
		_, _ = fmt.Fprintln(stderr, st.Summary())
	}
	return 0
}

// Run uses a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
