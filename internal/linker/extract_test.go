package linker

import (
	"testing"

	"petlink/internal/tagpair"
)

func scanner(flank int, both bool) *Scanner {
	return New(Config{Pattern: []byte("AGT"), Flank: flank, BothOrients: both})
}

func TestExtractBasic(t *testing.T) {
	sc := scanner(3, false)
	seq := []byte("CCCAGTGGG")
	m, res := sc.Scan(seq)
	if res != Found {
		t.Fatal("expected linker match")
	}
	key, out := sc.Extract(seq, m)
	if out != OK {
		t.Fatalf("outcome %v", out)
	}
	want := tagpair.Pair{Bait: "CCC", Prey: "GGG"}
	if key != want {
		t.Fatalf("key %+v, want %+v", key, want)
	}
}

func TestExtractWindowBounds(t *testing.T) {
	sc := scanner(3, false)

	seq := []byte("CAGTGGG") // only one base upstream
	m, _ := sc.Scan(seq)
	if _, out := sc.Extract(seq, m); out != LeftTooShort {
		t.Fatalf("want LeftTooShort, got %v", out)
	}

	seq = []byte("CCCAGTG") // only one base downstream
	m, _ = sc.Scan(seq)
	if _, out := sc.Extract(seq, m); out != RightTooShort {
		t.Fatalf("want RightTooShort, got %v", out)
	}
}

// The N policy is reject-whole-key: a single ambiguous base in either
// window discards the read rather than minting a polluted key.
func TestExtractRejectsAmbiguousBases(t *testing.T) {
	sc := scanner(3, false)
	for _, seq := range []string{"CCNAGTGGG", "CCCAGTGNG"} {
		m, res := sc.Scan([]byte(seq))
		if res != Found {
			t.Fatalf("%s: expected linker match", seq)
		}
		if _, out := sc.Extract([]byte(seq), m); out != AmbiguousBase {
			t.Fatalf("%s: want AmbiguousBase, got %v", seq, out)
		}
	}
}

// A read sampled from the opposite strand must yield the same directional
// (bait, prey) key as its forward twin.
func TestExtractNormalizesReverseOrientation(t *testing.T) {
	sc := scanner(3, true)

	fwd := []byte("CCCAGTGGG")
	rev := RevComp(fwd)

	mf, res := sc.Scan(fwd)
	if res != Found {
		t.Fatal("forward scan failed")
	}
	kf, out := sc.Extract(fwd, mf)
	if out != OK {
		t.Fatalf("forward outcome %v", out)
	}

	mr, res := sc.Scan(rev)
	if res != Found {
		t.Fatal("reverse scan failed")
	}
	if !mr.RC {
		t.Fatalf("expected RC match, got %+v", mr)
	}
	kr, out := sc.Extract(rev, mr)
	if out != OK {
		t.Fatalf("reverse outcome %v", out)
	}

	if kf != kr {
		t.Fatalf("orientation changed the key: fwd %+v, rev %+v", kf, kr)
	}
}

func TestOutcomeStrings(t *testing.T) {
	cases := map[Outcome]string{
		OK:            "ok",
		LeftTooShort:  "left_too_short",
		RightTooShort: "right_too_short",
		AmbiguousBase: "ambiguous_base",
	}
	for o, want := range cases {
		if o.String() != want {
			t.Errorf("%d.String() = %q, want %q", o, o.String(), want)
		}
	}
}
