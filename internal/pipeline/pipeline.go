// internal/pipeline/pipeline.go
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"petlink/internal/counter"
	"petlink/internal/fastq"
	"petlink/internal/linker"
)

// Config controls the counting phase.
type Config struct {
	Threads   int  // worker goroutines (>=1)
	BatchSize int  // reads per job batch; 0 = default
	Progress  bool // byte-level progress bar per input file
}

const defaultBatchSize = 4096

// Count streams every read of files through scan/extract workers and
// accumulates tag pairs into tbl. Workers own disjoint read batches; the
// shared table is the only cross-worker state. Outcomes land in st.
//
// A malformed input record aborts the run with its position; per-read
// scan/extract failures are tallies, never errors. When detail is
// non-nil, one line per linker-bearing read is written to it.
func Count(
	ctx context.Context,
	cfg Config,
	files []string,
	sc *linker.Scanner,
	tbl *counter.Table,
	st *Stats,
	detail io.Writer,
) error {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	jobs := make(chan []fastq.Record, cfg.Threads*2)

	// Detail lines funnel through one collector so workers never share
	// the writer.
	var (
		detailCh chan string
		cwg      sync.WaitGroup
		cerr     error
	)
	if detail != nil {
		detailCh = make(chan string, cfg.Threads*4)
		bw := bufio.NewWriter(detail)
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for line := range detailCh {
				if cerr != nil {
					continue
				}
				if _, err := bw.WriteString(line); err != nil {
					cerr = err
				}
			}
			if err := bw.Flush(); err != nil && cerr == nil {
				cerr = err
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(cfg.Threads)
	for w := 0; w < cfg.Threads; w++ {
		go func() {
			defer wg.Done()
			for batch := range jobs {
				for i := range batch {
					rec := &batch[i]
					st.Total.Add(1)
					m, res := sc.Scan(rec.Seq)
					if res != linker.Found {
						if res == linker.MarkerMissing {
							st.MarkerMissing.Add(1)
						} else {
							st.NoLinker.Add(1)
						}
						continue
					}
					key, out := sc.Extract(rec.Seq, m)
					st.countOutcome(out)
					if detailCh != nil {
						orient := "+"
						if m.RC {
							orient = "-"
						}
						detailCh <- fmt.Sprintf("%s\t%s\t%d\t%d\t%s\n",
							rec.ID, orient, m.Pos, m.Mismatches, out)
					}
					if out != linker.OK {
						continue
					}
					tbl.Add(key, rec.Seq, m.Pos, m.End, m.RC)
				}
			}
		}()
	}

	// Feed: batches are cut sequentially per file; counting commutes, so
	// neither file order nor batch boundaries affect the final table.
	var ferr error
	for _, path := range files {
		rc, bar, err := openInput(path, cfg.Progress)
		if err != nil {
			ferr = err
			break
		}
		batch := make([]fastq.Record, 0, cfg.BatchSize)
		err = fastq.Stream(ctx, rc, path, func(r fastq.Record) error {
			batch = append(batch, r)
			if len(batch) == cfg.BatchSize {
				select {
				case jobs <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
				batch = make([]fastq.Record, 0, cfg.BatchSize)
			}
			return nil
		})
		if err == nil && len(batch) > 0 {
			select {
			case jobs <- batch:
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		if bar != nil {
			bar.Finish()
		}
		if closeErr := rc.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
		if err != nil {
			ferr = err
			break
		}
	}

	close(jobs)
	wg.Wait()
	if detailCh != nil {
		close(detailCh)
		cwg.Wait()
	}

	if ferr != nil {
		return ferr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return cerr
}

func openInput(path string, progress bool) (io.ReadCloser, *pb.ProgressBar, error) {
	if progress && path != "-" {
		return fastq.OpenProgress(path)
	}
	rc, err := fastq.Open(path)
	return rc, nil, err
}
