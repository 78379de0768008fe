// internal/edges/edges.go
package edges

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"petlink/internal/emit"
	"petlink/internal/samload"
	"petlink/internal/tagpair"
)

// CountRow is one parsed row of the count table.
type CountRow struct {
	Bait  string
	Prey  string
	Count uint64
}

// ReadCounts parses the count table produced by the counting phase. The
// table is this pipeline's own output, so a malformed row fails fast with
// its line number instead of being skipped.
func ReadCounts(r io.Reader) ([]CountRow, error) {
	var rows []CountRow
	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if ln == 1 && line == emit.CountsHeader {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) != 3 {
			return nil, fmt.Errorf("count table line %d: want 3 fields, got %d", ln, len(f))
		}
		n, err := strconv.ParseUint(f[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("count table line %d: bad count %q", ln, f[2])
		}
		rows = append(rows, CountRow{Bait: f[0], Prey: f[1], Count: n})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("count table scan: %w", err)
	}
	return rows, nil
}

// Edge identifies one bait-gene/prey-gene interaction.
type Edge struct {
	Bait string
	Prey string
}

// Category classifies a count row's fate during aggregation.
type Category int

const (
	CategoryEdge Category = iota
	CategoryUnresolved
	CategoryAmbiguous
	CategoryRoleMismatch
)

func (c Category) String() string {
	switch c {
	case CategoryEdge:
		return "edge"
	case CategoryUnresolved:
		return "unresolved"
	case CategoryAmbiguous:
		return "ambiguous"
	case CategoryRoleMismatch:
		return "role_mismatch"
	}
	return "unknown"
}

// Diagnostics accounts for every count row: nothing is dropped silently.
// For each category both the row count and the summed read count are
// kept, so EdgeReads + UnresolvedReads + AmbiguousReads + MismatchReads
// always equals the grand total of the input.
type Diagnostics struct {
	Rows           int64
	EdgeRows       int64
	UnresolvedRows int64
	AmbiguousRows  int64
	MismatchRows   int64

	TotalReads      uint64
	EdgeReads       uint64
	UnresolvedReads uint64
	AmbiguousReads  uint64
	MismatchReads   uint64
}

// Summary renders the classification table with percentages of rows.
func (d Diagnostics) Summary() string {
	ratio := func(c int64) string {
		if d.Rows == 0 {
			return "0%"
		}
		return fmt.Sprintf("%.2f%%", float64(c*100)/float64(d.Rows))
	}
	var b strings.Builder
	b.WriteString("Edge result:\n")
	fmt.Fprintf(&b, "    bait-prey edges\t%d\t%s\n", d.EdgeRows, ratio(d.EdgeRows))
	fmt.Fprintf(&b, "    unresolved\t%d\t%s\n", d.UnresolvedRows, ratio(d.UnresolvedRows))
	fmt.Fprintf(&b, "    ambiguous\t%d\t%s\n", d.AmbiguousRows, ratio(d.AmbiguousRows))
	fmt.Fprintf(&b, "    role mismatch\t%d\t%s\n", d.MismatchRows, ratio(d.MismatchRows))
	fmt.Fprintf(&b, "total pairs: %d (%d reads)", d.Rows, d.TotalReads)
	return b.String()
}

// Aggregate joins count rows against resolved gene assignments and sums
// per-edge read counts. A row contributes to an edge only when both its
// sides are Resolved with the role matching the side; otherwise the whole
// row (with its count) lands in exactly one diagnostic bucket, precedence
// unresolved > ambiguous > role mismatch.
//
// The pass is single-writer over finalized inputs and deterministic: the
// same rows and assignments always produce the same table.
//
// A detail write failure does not abort the pass: the table and
// diagnostics are still complete, and the first write error is returned
// so callers can decide whether it matters (a closed downstream pipe
// usually does not).
func Aggregate(
	rows []CountRow,
	asn map[string]samload.Assignment,
	detail io.Writer,
	warn func(format string, a ...any),
) (map[Edge]uint64, Diagnostics, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	table := make(map[Edge]uint64)
	var d Diagnostics
	var derr error

	var dw *bufio.Writer
	if detail != nil {
		dw = bufio.NewWriter(detail)
	}

	for _, row := range rows {
		d.Rows++
		d.TotalReads += row.Count

		bait := lookup(row, tagpair.SideBait, asn, warn)
		prey := lookup(row, tagpair.SidePrey, asn, warn)
		cat := classify(bait, prey)

		switch cat {
		case CategoryEdge:
			table[Edge{Bait: bait.Gene, Prey: prey.Gene}] += row.Count
			d.EdgeRows++
			d.EdgeReads += row.Count
		case CategoryUnresolved:
			d.UnresolvedRows++
			d.UnresolvedReads += row.Count
		case CategoryAmbiguous:
			d.AmbiguousRows++
			d.AmbiguousReads += row.Count
		case CategoryRoleMismatch:
			d.MismatchRows++
			d.MismatchReads += row.Count
		}

		if dw != nil && derr == nil {
			if _, err := fmt.Fprintf(dw, "%s\t%s\t%d\t%s\t%s\t%s\n",
				row.Bait, row.Prey, row.Count, bait, prey, cat); err != nil {
				derr = err
			}
		}
	}

	if dw != nil && derr == nil {
		if err := dw.Flush(); err != nil {
			derr = err
		}
	}
	return table, d, derr
}

func lookup(row CountRow, side tagpair.Side, asn map[string]samload.Assignment, warn func(string, ...any)) samload.Assignment {
	id, err := tagpair.ID(tagpair.Pair{Bait: row.Bait, Prey: row.Prey}, side)
	if err != nil {
		warn("row %s/%s: %v", row.Bait, row.Prey, err)
		return samload.Assignment{Status: samload.Unresolved, Reason: samload.ReasonUnmapped}
	}
	a, ok := asn[id]
	if !ok {
		return samload.Assignment{Status: samload.Unresolved, Reason: samload.ReasonUnmapped}
	}
	return a
}

func classify(bait, prey samload.Assignment) Category {
	if bait.Status == samload.Unresolved || prey.Status == samload.Unresolved {
		return CategoryUnresolved
	}
	if bait.Status == samload.Ambiguous || prey.Status == samload.Ambiguous {
		return CategoryAmbiguous
	}
	if bait.Role != samload.RoleBait || prey.Role != samload.RolePrey {
		return CategoryRoleMismatch
	}
	return CategoryEdge
}

// EdgeCount is one row of the final edge table.
type EdgeCount struct {
	Edge
	Count uint64
}

// Sorted flattens an edge table into reproducible order: descending
// count, ties by bait then prey gene name.
func Sorted(table map[Edge]uint64) []EdgeCount {
	out := make([]EdgeCount, 0, len(table))
	for e, c := range table {
		out = append(out, EdgeCount{Edge: e, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Bait != out[j].Bait {
			return out[i].Bait < out[j].Bait
		}
		return out[i].Prey < out[j].Prey
	})
	return out
}

// EdgesHeader is the optional header line of the edge table.
const EdgesHeader = "bait_gene\tprey_gene\tcount"

// WriteEdges writes the final edge table as TSV.
func WriteEdges(w io.Writer, list []EdgeCount, header bool) error {
	if header {
		if _, err := fmt.Fprintln(w, EdgesHeader); err != nil {
			return err
		}
	}
	for _, e := range list {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", e.Bait, e.Prey, e.Count); err != nil {
			return err
		}
	}
	return nil
}
