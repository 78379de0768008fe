// internal/tagpair/tagpair.go
package tagpair

import (
	"fmt"
	"strconv"
	"strings"
)

// Pair is the ordered identity of one counted interaction: the tag read
// immediately upstream of the linker (bait side) and the tag immediately
// downstream (prey side). Two Pairs are equal iff both tags are
// byte-identical.
type Pair struct {
	Bait string
	Prey string
}

// Side discriminates which tag of a Pair a synthetic read refers to.
type Side byte

const (
	SideBait Side = 'b'
	SidePrey Side = 'p'
)

// MaxTagLen is the longest tag that fits the 2-bit packing of Pack.
const MaxTagLen = 32

// nt4 maps A/C/G/T (either case) to 0..3 and everything else to 4.
var nt4 [256]byte

func init() {
	for i := range nt4 {
		nt4[i] = 4
	}
	nt4['A'], nt4['a'] = 0, 0
	nt4['C'], nt4['c'] = 1, 1
	nt4['G'], nt4['g'] = 2, 2
	nt4['T'], nt4['t'] = 3, 3
}

// Pack encodes an unambiguous tag into a uint64, two bits per base,
// first base in the lowest bits. The encoding is injective for a fixed
// tag length, which makes packed values usable as join keys.
func Pack(seq []byte) (uint64, error) {
	if len(seq) > MaxTagLen {
		return 0, fmt.Errorf("tag %q longer than %d bases", seq, MaxTagLen)
	}
	var code uint64
	for i, b := range seq {
		m := nt4[b]
		if m > 3 {
			return 0, fmt.Errorf("tag %q: ambiguous base %q at %d", seq, b, i)
		}
		code |= uint64(m) << (uint(i) * 2)
	}
	return code, nil
}

// Unpack is the inverse of Pack for a tag of length k.
func Unpack(code uint64, k int) []byte {
	const bases = "ACGT"
	out := make([]byte, k)
	for i := 0; i < k; i++ {
		out[i] = bases[(code>>(uint(i)*2))&3]
	}
	return out
}

// ID derives the Synthetic Read Identifier for one side of a Pair:
// 16 hex digits of the packed bait tag, 16 of the prey tag, and a side
// suffix. The prefix identifies the count record; the suffix says whether
// this synthetic read carries the bait or the prey sequence.
func ID(p Pair, side Side) (string, error) {
	bc, err := Pack([]byte(p.Bait))
	if err != nil {
		return "", err
	}
	pc, err := Pack([]byte(p.Prey))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x%016x:%c", bc, pc, side), nil
}

// ParseID splits a Synthetic Read Identifier back into its packed tag
// codes and side.
func ParseID(id string) (baitCode, preyCode uint64, side Side, err error) {
	body, suffix, ok := strings.Cut(id, ":")
	if !ok || len(suffix) != 1 || (suffix[0] != byte(SideBait) && suffix[0] != byte(SidePrey)) {
		return 0, 0, 0, fmt.Errorf("synthetic id %q: missing side suffix", id)
	}
	if len(body) != 32 {
		return 0, 0, 0, fmt.Errorf("synthetic id %q: want 32 hex digits, got %d", id, len(body))
	}
	baitCode, err = strconv.ParseUint(body[:16], 16, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("synthetic id %q: %v", id, err)
	}
	preyCode, err = strconv.ParseUint(body[16:], 16, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("synthetic id %q: %v", id, err)
	}
	return baitCode, preyCode, Side(suffix[0]), nil
}
