// internal/linker/extract.go
package linker

import "petlink/internal/tagpair"

// Outcome classifies one extraction attempt. Everything except OK is a
// per-read tally, not an error.
type Outcome int

const (
	OK Outcome = iota
	LeftTooShort
	RightTooShort
	AmbiguousBase
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case LeftTooShort:
		return "left_too_short"
	case RightTooShort:
		return "right_too_short"
	case AmbiguousBase:
		return "ambiguous_base"
	}
	return "unknown"
}

// Extract pulls the two tag windows flanking a linker match and orients
// them as (bait, prey). On a reverse-complement match the windows swap
// roles and are reverse-complemented, so the key stays directional
// regardless of which strand the read sampled.
//
// Tags containing any base outside {A,C,G,T} are rejected whole: an N in a
// tag would create a spurious distinct key, so the read is tallied under
// AmbiguousBase instead of polluting the count table.
func (s *Scanner) Extract(seq []byte, m Match) (tagpair.Pair, Outcome) {
	flank := s.cfg.Flank
	if m.Pos < flank {
		return tagpair.Pair{}, LeftTooShort
	}
	if m.End+flank > len(seq) {
		return tagpair.Pair{}, RightTooShort
	}
	left := seq[m.Pos-flank : m.Pos]
	right := seq[m.End : m.End+flank]
	if !unambiguous(left) || !unambiguous(right) {
		return tagpair.Pair{}, AmbiguousBase
	}
	if m.RC {
		return tagpair.Pair{
			Bait: string(RevComp(right)),
			Prey: string(RevComp(left)),
		}, OK
	}
	return tagpair.Pair{Bait: string(left), Prey: string(right)}, OK
}

func unambiguous(seq []byte) bool {
	for _, b := range seq {
		if b != 'A' && b != 'C' && b != 'G' && b != 'T' {
			return false
		}
	}
	return true
}
