// internal/samload/samload.go
package samload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
)

// Gene-name prefixes marking which role a reference sequence may serve.
const (
	BaitPrefix = "bait_"
	PreyPrefix = "prey_"
)

// Status is the resolution outcome for one synthetic read.
type Status int

const (
	Resolved   Status = iota
	Unresolved        // no usable alignment
	Ambiguous         // alignment exists but is not uniquely best
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	case Ambiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Reason refines Status for diagnostics output.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnmapped
	ReasonLowMapQ
	ReasonTooManyMismatches
	ReasonMultiMapped
	ReasonBadPrefix
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonUnmapped:
		return "unmapped"
	case ReasonLowMapQ:
		return "mapq_too_low"
	case ReasonTooManyMismatches:
		return "too_many_mismatches"
	case ReasonMultiMapped:
		return "multi_mapped"
	case ReasonBadPrefix:
		return "bad_gene_prefix"
	}
	return "unknown"
}

// Role is derived from the gene-name prefix convention.
type Role int

const (
	RoleNone Role = iota
	RoleBait
	RolePrey
)

// Assignment is the resolution of one synthetic read identifier.
type Assignment struct {
	Status Status
	Reason Reason
	Gene   string // set only when Resolved
	Role   Role   // set only when Resolved
}

func (a Assignment) String() string {
	switch {
	case a.Status == Resolved && a.Role == RoleBait:
		return "Bait:" + a.Gene
	case a.Status == Resolved && a.Role == RolePrey:
		return "Prey:" + a.Gene
	default:
		return a.Reason.String()
	}
}

// Thresholds gate what counts as a clean, unique alignment.
type Thresholds struct {
	MinMapQ       int // below this the hit is treated as ambiguous
	MaxMismatches int // NM above this rejects the hit
	MaxHits       int // 1 = require unique; XA entries count as extra hits
}

var (
	tagNM = sam.NewTag("NM")
	tagXA = sam.NewTag("XA")
)

// Load parses external alignment records (text SAM) keyed by synthetic
// read identifier. Aligner output is not fully trusted: malformed lines
// are reported through warn and skipped, never fatal. Header lines are
// ignored. When an identifier appears on several lines the first mapped
// record wins; secondary hits are expected in XA instead.
func Load(r io.Reader, th Thresholds, warn func(format string, a ...any)) (map[string]Assignment, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	out := make(map[string]Assignment)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	ln := 0
	for sc.Scan() {
		ln++
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		qname, asn, err := parseLine(line, th, warn)
		if err != nil {
			warn("alignment line %d skipped: %v", ln, err)
			continue
		}
		if prev, dup := out[qname]; dup && prev.Status != Unresolved {
			continue
		}
		out[qname] = asn
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("alignment scan: %w", err)
	}
	return out, nil
}

func parseLine(line string, th Thresholds, warn func(string, ...any)) (string, Assignment, error) {
	f := strings.Split(line, "\t")
	if len(f) < 11 {
		return "", Assignment{}, fmt.Errorf("want >=11 fields, got %d", len(f))
	}
	qname := f[0]
	flagVal, err := strconv.Atoi(f[1])
	if err != nil {
		return "", Assignment{}, fmt.Errorf("bad FLAG %q", f[1])
	}
	rname := f[2]
	mapq, err := strconv.Atoi(f[4])
	if err != nil {
		return "", Assignment{}, fmt.Errorf("bad MAPQ %q", f[4])
	}

	if sam.Flags(flagVal)&sam.Unmapped != 0 || rname == "*" {
		return qname, Assignment{Status: Unresolved, Reason: ReasonUnmapped}, nil
	}

	nm, hits := auxFields(f[11:], warn)
	switch {
	case mapq < th.MinMapQ:
		return qname, Assignment{Status: Ambiguous, Reason: ReasonLowMapQ}, nil
	case nm > th.MaxMismatches:
		return qname, Assignment{Status: Unresolved, Reason: ReasonTooManyMismatches}, nil
	case hits > th.MaxHits:
		return qname, Assignment{Status: Ambiguous, Reason: ReasonMultiMapped}, nil
	}

	switch {
	case strings.HasPrefix(rname, BaitPrefix):
		return qname, Assignment{Status: Resolved, Gene: rname, Role: RoleBait}, nil
	case strings.HasPrefix(rname, PreyPrefix):
		return qname, Assignment{Status: Resolved, Gene: rname, Role: RolePrey}, nil
	default:
		warn("gene %q lacks %q/%q prefix; treating %s as unresolved", rname, BaitPrefix, PreyPrefix, qname)
		return qname, Assignment{Status: Unresolved, Reason: ReasonBadPrefix}, nil
	}
}

// auxFields pulls NM (edit distance) and the XA alternate-hit count from
// the optional SAM fields. Hits is 1 for the primary alignment plus one
// per XA entry.
func auxFields(fields []string, warn func(string, ...any)) (nm, hits int) {
	hits = 1
	for _, txt := range fields {
		aux, err := sam.ParseAux([]byte(txt))
		if err != nil {
			warn("bad aux field %q: %v", txt, err)
			continue
		}
		switch aux.Tag() {
		case tagNM:
			if v, ok := auxInt(aux.Value()); ok {
				nm = v
			}
		case tagXA:
			if s, ok := aux.Value().(string); ok {
				hits += strings.Count(s, ";")
			}
		}
	}
	return nm, hits
}

func auxInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	}
	return 0, false
}
