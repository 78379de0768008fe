package samload

import (
	"fmt"
	"strings"
	"testing"
)

const testID = "0000000000000015000000000000002a:b"

// samLine builds a minimal 11-field alignment line plus optional aux fields.
func samLine(qname string, flag int, rname string, mapq int, aux ...string) string {
	base := fmt.Sprintf("%s\t%d\t%s\t1\t%d\t9M\t*\t0\t0\tCCCAGTGGG\t~~~~~~~~~", qname, flag, rname, mapq)
	if len(aux) > 0 {
		base += "\t" + strings.Join(aux, "\t")
	}
	return base + "\n"
}

func defaultThresholds() Thresholds {
	return Thresholds{MinMapQ: 20, MaxMismatches: 2, MaxHits: 1}
}

func TestLoadResolved(t *testing.T) {
	in := "@SQ\tSN:bait_geneA\tLN:1000\n" +
		samLine(testID, 0, "bait_geneA", 60, "NM:i:1") +
		samLine("x:p", 0, "prey_geneB", 60, "NM:i:0")

	asn, err := Load(strings.NewReader(in), defaultThresholds(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(asn) != 2 {
		t.Fatalf("got %d assignments", len(asn))
	}

	a := asn[testID]
	if a.Status != Resolved || a.Role != RoleBait || a.Gene != "bait_geneA" {
		t.Fatalf("bait assignment = %+v", a)
	}
	if a.String() != "Bait:bait_geneA" {
		t.Fatalf("String() = %q", a.String())
	}
	p := asn["x:p"]
	if p.Status != Resolved || p.Role != RolePrey || p.String() != "Prey:prey_geneB" {
		t.Fatalf("prey assignment = %+v", p)
	}
}

func TestLoadRejections(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		status Status
		reason Reason
	}{
		{"unmapped flag", samLine("q", 4, "*", 0), Unresolved, ReasonUnmapped},
		{"star rname", samLine("q", 0, "*", 60), Unresolved, ReasonUnmapped},
		{"low mapq", samLine("q", 0, "bait_g", 5, "NM:i:0"), Ambiguous, ReasonLowMapQ},
		{"too many mismatches", samLine("q", 0, "bait_g", 60, "NM:i:3"), Unresolved, ReasonTooManyMismatches},
		{"multi mapped", samLine("q", 0, "bait_g", 60, "NM:i:0", "XA:Z:prey_h,+100,9M,0;prey_i,-5,9M,1;"), Ambiguous, ReasonMultiMapped},
		{"bad gene prefix", samLine("q", 0, "chr7", 60, "NM:i:0"), Unresolved, ReasonBadPrefix},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			asn, err := Load(strings.NewReader(tc.line), defaultThresholds(), nil)
			if err != nil {
				t.Fatal(err)
			}
			a, ok := asn["q"]
			if !ok {
				t.Fatal("identifier missing from map")
			}
			if a.Status != tc.status || a.Reason != tc.reason {
				t.Fatalf("got %v/%v, want %v/%v", a.Status, a.Reason, tc.status, tc.reason)
			}
			if a.Gene != "" || a.Role != RoleNone {
				t.Fatalf("rejected hit carries gene data: %+v", a)
			}
		})
	}
}

// Precedence: low MAPQ is checked before NM and XA, NM before XA.
func TestLoadThresholdOrder(t *testing.T) {
	line := samLine("q", 0, "bait_g", 5, "NM:i:9", "XA:Z:prey_h,+1,9M,0;")
	asn, err := Load(strings.NewReader(line), defaultThresholds(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if asn["q"].Reason != ReasonLowMapQ {
		t.Fatalf("reason = %v, want low mapq to win", asn["q"].Reason)
	}
}

func TestLoadFirstMappedWins(t *testing.T) {
	in := samLine("q", 4, "*", 0) +
		samLine("q", 0, "bait_g", 60, "NM:i:0") +
		samLine("q", 0, "prey_h", 60, "NM:i:0")
	asn, err := Load(strings.NewReader(in), defaultThresholds(), nil)
	if err != nil {
		t.Fatal(err)
	}
	a := asn["q"]
	if a.Status != Resolved || a.Gene != "bait_g" {
		t.Fatalf("want the first mapped record to win, got %+v", a)
	}
}

func TestLoadMalformedSkipAndWarn(t *testing.T) {
	in := "garbage line\n" +
		"q\tNaN\tbait_g\t1\t60\t9M\t*\t0\t0\tACGT\t~~~~\n" +
		samLine("ok:b", 0, "bait_g", 60, "NM:i:0")

	var warns []string
	asn, err := Load(strings.NewReader(in), defaultThresholds(), func(format string, a ...any) {
		warns = append(warns, fmt.Sprintf(format, a...))
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(asn) != 1 {
		t.Fatalf("want only the good record, got %d", len(asn))
	}
	if _, ok := asn["ok:b"]; !ok {
		t.Fatal("good record missing")
	}
	if len(warns) != 2 {
		t.Fatalf("want 2 warnings, got %v", warns)
	}
	if !strings.Contains(warns[0], "line 1") || !strings.Contains(warns[1], "line 2") {
		t.Fatalf("warnings lack line numbers: %v", warns)
	}
}

func TestLoadBadPrefixWarns(t *testing.T) {
	var warns []string
	_, err := Load(strings.NewReader(samLine("q", 0, "chr7", 60)), defaultThresholds(), func(format string, a ...any) {
		warns = append(warns, fmt.Sprintf(format, a...))
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "chr7") {
		t.Fatalf("warnings = %v", warns)
	}
}

func TestMaxHitsRelaxed(t *testing.T) {
	th := defaultThresholds()
	th.MaxHits = 3
	line := samLine("q", 0, "bait_g", 60, "NM:i:0", "XA:Z:prey_h,+1,9M,0;prey_i,-5,9M,1;")
	asn, err := Load(strings.NewReader(line), th, nil)
	if err != nil {
		t.Fatal(err)
	}
	if asn["q"].Status != Resolved {
		t.Fatalf("3 hits within MaxHits=3 should resolve, got %+v", asn["q"])
	}
}
