// internal/linker/scan.go
package linker

import "bytes"

// Config fixes the run-wide scan parameters. It is immutable once a
// Scanner is built from it; the counting workers share one Scanner.
type Config struct {
	Pattern       []byte // linker sequence, required
	Marker        []byte // optional secondary marker; empty disables the check
	MaxMismatches int    // per-offset Hamming budget for the linker
	MarkerDist    int    // max distance from the linker span to a marker hit
	Flank         int    // tag window length on each side of the linker
	BothOrients   bool   // retry with the reverse-complement pattern
}

// Match locates the linker within one read.
type Match struct {
	Pos        int  // start offset of the linker in the read
	End        int  // one past the last linker base
	Mismatches int
	RC         bool // matched the reverse-complement orientation
}

// ScanResult classifies one scan attempt. MarkerMissing means the linker
// itself was located but no secondary marker lay within range, which is a
// distinct per-read tally downstream.
type ScanResult int

const (
	Found ScanResult = iota
	NoMatch
	MarkerMissing
)

// Scanner finds linker matches under the configured tolerance.
type Scanner struct {
	cfg       Config
	rcPattern []byte
	rcMarker  []byte
}

// New builds a Scanner. Pattern and Marker are used as given; callers
// normalize case before constructing the Config.
func New(cfg Config) *Scanner {
	s := &Scanner{cfg: cfg}
	if cfg.BothOrients {
		s.rcPattern = RevComp(cfg.Pattern)
	}
	if len(cfg.Marker) > 0 {
		s.rcMarker = RevComp(cfg.Marker)
	}
	return s
}

// Config returns the scanner's immutable configuration.
func (s *Scanner) Config() Config { return s.cfg }

// Scan reports the best linker match in seq. Best means fewest
// mismatches; ties go to the leftmost offset. The forward orientation is
// tried first; the reverse complement only when BothOrients is set and
// the forward scan found nothing. MarkerMissing is reported when at least
// one orientation located the linker but failed the marker requirement
// and none succeeded.
func (s *Scanner) Scan(seq []byte) (Match, ScanResult) {
	m, res := s.scanPattern(seq, s.cfg.Pattern, false)
	if res == Found {
		return m, Found
	}
	if s.cfg.BothOrients {
		m, rcRes := s.scanPattern(seq, s.rcPattern, true)
		if rcRes == Found {
			return m, Found
		}
		if rcRes == MarkerMissing {
			res = MarkerMissing
		}
	}
	return Match{}, res
}

func (s *Scanner) scanPattern(seq, pat []byte, rc bool) (Match, ScanResult) {
	pos, mm, ok := bestOffset(seq, pat, s.cfg.MaxMismatches)
	if !ok {
		return Match{}, NoMatch
	}
	m := Match{Pos: pos, End: pos + len(pat), Mismatches: mm, RC: rc}
	if !s.markerNear(seq, m) {
		return Match{}, MarkerMissing
	}
	return m, Found
}

// bestOffset slides pat along seq counting mismatched bases at every valid
// offset and returns the offset with the fewest, provided it stays within
// maxMM. The inner loop aborts as soon as an offset can no longer beat the
// best seen, so ties resolve to the leftmost offset.
func bestOffset(seq, pat []byte, maxMM int) (int, int, bool) {
	pl := len(pat)
	if pl == 0 || len(seq) < pl {
		return 0, 0, false
	}

	// Exact fast path: jump scanning with bytes.Index.
	if maxMM == 0 {
		if j := bytes.Index(seq, pat); j >= 0 {
			return j, 0, true
		}
		return 0, 0, false
	}

	bestPos := -1
	best := maxMM + 1
	end := len(seq) - pl
offsets:
	for pos := 0; pos <= end; pos++ {
		mm := 0
		for j := 0; j < pl; j++ {
			if seq[pos+j] != pat[j] {
				mm++
				if mm >= best {
					continue offsets
				}
			}
		}
		bestPos, best = pos, mm
		if best == 0 {
			break
		}
	}
	if bestPos < 0 {
		return 0, 0, false
	}
	return bestPos, best, true
}

// markerNear checks the secondary-marker requirement: an exact occurrence
// of the marker (either strand) within MarkerDist bases of the matched
// linker span. With no marker configured the check always passes.
func (s *Scanner) markerNear(seq []byte, m Match) bool {
	if len(s.cfg.Marker) == 0 {
		return true
	}
	lo := m.Pos - s.cfg.MarkerDist - len(s.cfg.Marker)
	if lo < 0 {
		lo = 0
	}
	hi := m.End + s.cfg.MarkerDist + len(s.cfg.Marker)
	if hi > len(seq) {
		hi = len(seq)
	}
	win := seq[lo:hi]
	if bytes.Contains(win, s.cfg.Marker) {
		return true
	}
	return bytes.Contains(win, s.rcMarker)
}
