// internal/fastq/reader.go
package fastq

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Stream parses four-line FASTQ records from r and hands each to emit.
// Records are validated structurally: '@' header, '+' separator, and
// sequence/quality length parity. Any violation stops the stream with a
// *FormatError naming the record's position; input beyond it is not read.
// Trailing blank lines are tolerated; a blank line between records is a
// format error.
//
// It is cancelable: ctx is checked between records.
func Stream(ctx context.Context, r io.Reader, path string, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	const maxLine = 8 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var idx int64
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		idx++

		header := sc.Text()
		if header == "" {
			// Blank lines are tolerated only at end of file; between
			// records they hide framing damage.
			for sc.Scan() {
				if sc.Text() != "" {
					return &FormatError{Path: path, Index: idx, Msg: "blank line between records"}
				}
			}
			break
		}
		if !strings.HasPrefix(header, "@") {
			return &FormatError{Path: path, Index: idx, Msg: fmt.Sprintf("expected '@' header, got %q", clip(header))}
		}
		if !sc.Scan() {
			return &FormatError{Path: path, Index: idx, Msg: "truncated record: missing sequence line"}
		}
		seq := append([]byte(nil), sc.Bytes()...)
		if !sc.Scan() {
			return &FormatError{Path: path, Index: idx, Msg: "truncated record: missing '+' line"}
		}
		if plus := sc.Text(); !strings.HasPrefix(plus, "+") {
			return &FormatError{Path: path, Index: idx, Msg: fmt.Sprintf("expected '+' separator, got %q", clip(plus))}
		}
		if !sc.Scan() {
			return &FormatError{Path: path, Index: idx, Msg: "truncated record: missing quality line"}
		}
		qual := append([]byte(nil), sc.Bytes()...)
		if len(seq) != len(qual) {
			return &FormatError{Path: path, Index: idx, Msg: fmt.Sprintf("sequence/quality length mismatch: %d vs %d", len(seq), len(qual))}
		}

		id := strings.TrimPrefix(header, "@")
		if i := strings.IndexAny(id, " \t"); i >= 0 {
			id = id[:i]
		}
		if err := emit(Record{ID: id, Seq: seq, Qual: qual}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fastq scan %s: %w", path, err)
	}
	return nil
}

// StreamPath opens path (gzip-aware) and streams it.
func StreamPath(ctx context.Context, path string, emit func(Record) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	return Stream(ctx, rc, path, emit)
}

func clip(s string) string {
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}
