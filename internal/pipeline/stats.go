// internal/pipeline/stats.go
package pipeline

import (
	"fmt"
	"strings"
	"sync/atomic"

	"petlink/internal/linker"
)

// Stats tallies per-read outcomes across workers. All fields are updated
// with atomics; none of the outcomes is an error.
type Stats struct {
	Total         atomic.Int64
	Extracted     atomic.Int64
	NoLinker      atomic.Int64
	MarkerMissing atomic.Int64
	LeftTooShort  atomic.Int64
	RightTooShort atomic.Int64
	Ambiguous     atomic.Int64
}

func (s *Stats) countOutcome(o linker.Outcome) {
	switch o {
	case linker.OK:
		s.Extracted.Add(1)
	case linker.LeftTooShort:
		s.LeftTooShort.Add(1)
	case linker.RightTooShort:
		s.RightTooShort.Add(1)
	case linker.AmbiguousBase:
		s.Ambiguous.Add(1)
	}
}

// Summary renders the outcome table with per-row percentages of total.
func (s *Stats) Summary() string {
	total := s.Total.Load()
	ratio := func(c int64) string {
		if total == 0 {
			return "0%"
		}
		return fmt.Sprintf("%.2f%%", float64(c*100)/float64(total))
	}
	var b strings.Builder
	b.WriteString("Count result:\n")
	row := func(name string, c int64) {
		fmt.Fprintf(&b, "    %s\t%d\t%s\n", name, c, ratio(c))
	}
	row("linker reads", s.Extracted.Load())
	row("no linker", s.NoLinker.Load())
	row("marker missing", s.MarkerMissing.Load())
	row("left too short", s.LeftTooShort.Load())
	row("right too short", s.RightTooShort.Load())
	row("ambiguous base", s.Ambiguous.Load())
	fmt.Fprintf(&b, "total reads: %d", total)
	return b.String()
}
