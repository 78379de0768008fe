// internal/fastq/record.go
package fastq

import "fmt"

// Record is one parsed FASTQ read. It is never mutated after parsing.
type Record struct {
	ID   string
	Seq  []byte
	Qual []byte
}

// FormatError reports a structurally invalid FASTQ record. Index is the
// 1-based ordinal of the offending record within its file.
type FormatError struct {
	Path  string
	Index int64
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: record %d: %s", e.Path, e.Index, e.Msg)
}
