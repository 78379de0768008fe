// internal/emit/emit.go
package emit

import (
	"bytes"
	"fmt"
	"io"

	"petlink/internal/counter"
	"petlink/internal/tagpair"
)

// CountsHeader is the optional header line of the count table.
const CountsHeader = "bait_tag\tprey_tag\tcount"

// WriteCounts writes the frozen count table as TSV, one row per distinct
// tag pair, in the snapshot's stable order.
func WriteCounts(w io.Writer, recs []counter.CountRecord, header bool) error {
	if header {
		if _, err := fmt.Fprintln(w, CountsHeader); err != nil {
			return err
		}
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", r.Key.Bait, r.Key.Prey, r.Count); err != nil {
			return err
		}
	}
	return nil
}

// WriteTagReads writes the representative-sequence FASTQ: for every count
// record, one bait-side and one prey-side synthetic read. The sequences
// are the two arms of the key's representative read (everything before,
// respectively after, the linker span), so the aligner sees the full
// flanking context rather than the bare tag. Identifiers are in exact
// bijection with count rows: each row contributes exactly one :b and one
// :p record.
func WriteTagReads(w io.Writer, recs []counter.CountRecord) error {
	for _, r := range recs {
		if err := writeSide(w, r, tagpair.SideBait, r.Rep[:r.RepStart]); err != nil {
			return err
		}
		if err := writeSide(w, r, tagpair.SidePrey, r.Rep[r.RepEnd:]); err != nil {
			return err
		}
	}
	return nil
}

func writeSide(w io.Writer, r counter.CountRecord, side tagpair.Side, seq []byte) error {
	id, err := tagpair.ID(r.Key, side)
	if err != nil {
		return fmt.Errorf("derive synthetic id for %s/%s: %w", r.Key.Bait, r.Key.Prey, err)
	}
	// Quality is synthetic; fill with the maximum printable score.
	qual := bytes.Repeat([]byte{'~'}, len(seq))
	_, err = fmt.Fprintf(w, "@%s\n%s\n+\n%s\n", id, seq, qual)
	return err
}
