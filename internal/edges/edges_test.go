package edges

import (
	"bytes"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petlink/internal/cmdutil"
	"petlink/internal/emit"
	"petlink/internal/samload"
	"petlink/internal/tagpair"
)

func TestReadCounts(t *testing.T) {
	in := emit.CountsHeader + "\nCCC\tGGG\t5\nAAA\tTTT\t2\n\n"
	rows, err := ReadCounts(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []CountRow{
		{Bait: "CCC", Prey: "GGG", Count: 5},
		{Bait: "AAA", Prey: "TTT", Count: 2},
	}, rows)
}

func TestReadCountsFailFast(t *testing.T) {
	tests := []struct {
		name string
		in   string
		frag string
	}{
		{"wrong arity", "CCC\tGGG\t5\nCCC\tGGG\n", "line 2"},
		{"bad count", "CCC\tGGG\tmany\n", `bad count "many"`},
		{"header past line one", "CCC\tGGG\t5\n" + emit.CountsHeader + "\n", "line 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCounts(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.frag)
		})
	}
}

// assignBoth registers bait-side and prey-side assignments for one tag
// pair under its synthetic identifiers.
func assignBoth(t *testing.T, asn map[string]samload.Assignment, bait, prey string, ba, pa samload.Assignment) {
	t.Helper()
	p := tagpair.Pair{Bait: bait, Prey: prey}
	bid, err := tagpair.ID(p, tagpair.SideBait)
	require.NoError(t, err)
	pid, err := tagpair.ID(p, tagpair.SidePrey)
	require.NoError(t, err)
	asn[bid] = ba
	asn[pid] = pa
}

func resolved(gene string, role samload.Role) samload.Assignment {
	return samload.Assignment{Status: samload.Resolved, Gene: gene, Role: role}
}

func TestAggregateMergesRows(t *testing.T) {
	// Two distinct tag pairs resolving to the same gene pair merge into
	// one edge; a third pair yields a separate edge.
	rows := []CountRow{
		{Bait: "CCC", Prey: "GGG", Count: 5},
		{Bait: "CCG", Prey: "GGA", Count: 3},
		{Bait: "AAA", Prey: "TTT", Count: 2},
	}
	asn := map[string]samload.Assignment{}
	assignBoth(t, asn, "CCC", "GGG", resolved("bait_x", samload.RoleBait), resolved("prey_y", samload.RolePrey))
	assignBoth(t, asn, "CCG", "GGA", resolved("bait_x", samload.RoleBait), resolved("prey_y", samload.RolePrey))
	assignBoth(t, asn, "AAA", "TTT", resolved("bait_x", samload.RoleBait), resolved("prey_z", samload.RolePrey))

	table, d, err := Aggregate(rows, asn, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[Edge]uint64{
		{Bait: "bait_x", Prey: "prey_y"}: 8,
		{Bait: "bait_x", Prey: "prey_z"}: 2,
	}, table)
	assert.EqualValues(t, 3, d.EdgeRows)
	assert.EqualValues(t, 10, d.EdgeReads)
	assert.EqualValues(t, 10, d.TotalReads)
}

func TestAggregateBuckets(t *testing.T) {
	rows := []CountRow{
		{Bait: "CCC", Prey: "GGG", Count: 5}, // edge
		{Bait: "AAA", Prey: "TTT", Count: 4}, // prey side never aligned
		{Bait: "ACA", Prey: "TGT", Count: 3}, // bait side ambiguous
		{Bait: "AGA", Prey: "TCT", Count: 2}, // both genes are baits
		{Bait: "ATA", Prey: "TAT", Count: 1}, // unresolved beats ambiguous
	}
	asn := map[string]samload.Assignment{}
	assignBoth(t, asn, "CCC", "GGG", resolved("bait_x", samload.RoleBait), resolved("prey_y", samload.RolePrey))
	bid, err := tagpair.ID(tagpair.Pair{Bait: "AAA", Prey: "TTT"}, tagpair.SideBait)
	require.NoError(t, err)
	asn[bid] = resolved("bait_x", samload.RoleBait)
	assignBoth(t, asn, "ACA", "TGT",
		samload.Assignment{Status: samload.Ambiguous, Reason: samload.ReasonMultiMapped},
		resolved("prey_y", samload.RolePrey))
	assignBoth(t, asn, "AGA", "TCT", resolved("bait_x", samload.RoleBait), resolved("bait_w", samload.RoleBait))
	assignBoth(t, asn, "ATA", "TAT",
		samload.Assignment{Status: samload.Ambiguous, Reason: samload.ReasonLowMapQ},
		samload.Assignment{Status: samload.Unresolved, Reason: samload.ReasonTooManyMismatches})

	table, d, err := Aggregate(rows, asn, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[Edge]uint64{{Bait: "bait_x", Prey: "prey_y"}: 5}, table)
	assert.EqualValues(t, 1, d.EdgeRows)
	assert.EqualValues(t, 2, d.UnresolvedRows)
	assert.EqualValues(t, 1, d.AmbiguousRows)
	assert.EqualValues(t, 1, d.MismatchRows)

	// Conservation: every input read lands in exactly one bucket.
	assert.Equal(t, d.TotalReads, d.EdgeReads+d.UnresolvedReads+d.AmbiguousReads+d.MismatchReads)
	assert.EqualValues(t, 15, d.TotalReads)
}

func TestAggregateDetail(t *testing.T) {
	rows := []CountRow{{Bait: "CCC", Prey: "GGG", Count: 5}}
	asn := map[string]samload.Assignment{}
	assignBoth(t, asn, "CCC", "GGG", resolved("bait_x", samload.RoleBait), resolved("prey_y", samload.RolePrey))

	var detail bytes.Buffer
	_, _, err := Aggregate(rows, asn, &detail, nil)
	require.NoError(t, err)
	assert.Equal(t, "CCC\tGGG\t5\tBait:bait_x\tPrey:prey_y\tedge", strings.TrimSpace(detail.String()))
}

type brokenPipeWriter struct{}

func (brokenPipeWriter) Write([]byte) (int, error) { return 0, syscall.EPIPE }

// A closed detail consumer must not cost the edge table: the pass
// completes and the write error is returned for the caller to classify.
func TestAggregateDetailBrokenPipe(t *testing.T) {
	rows := []CountRow{
		{Bait: "CCC", Prey: "GGG", Count: 5},
		{Bait: "AAA", Prey: "TTT", Count: 2},
	}
	asn := map[string]samload.Assignment{}
	assignBoth(t, asn, "CCC", "GGG", resolved("bait_x", samload.RoleBait), resolved("prey_y", samload.RolePrey))
	assignBoth(t, asn, "AAA", "TTT", resolved("bait_x", samload.RoleBait), resolved("prey_z", samload.RolePrey))

	table, d, err := Aggregate(rows, asn, brokenPipeWriter{}, nil)
	require.Error(t, err)
	assert.True(t, cmdutil.IsBrokenPipe(err))
	assert.Equal(t, map[Edge]uint64{
		{Bait: "bait_x", Prey: "prey_y"}: 5,
		{Bait: "bait_x", Prey: "prey_z"}: 2,
	}, table)
	assert.EqualValues(t, 2, d.EdgeRows)
	assert.EqualValues(t, 7, d.TotalReads)
}

func TestAggregateIdempotent(t *testing.T) {
	rows := []CountRow{
		{Bait: "CCC", Prey: "GGG", Count: 5},
		{Bait: "AAA", Prey: "TTT", Count: 2},
	}
	asn := map[string]samload.Assignment{}
	assignBoth(t, asn, "CCC", "GGG", resolved("bait_x", samload.RoleBait), resolved("prey_y", samload.RolePrey))

	t1, d1, err := Aggregate(rows, asn, nil, nil)
	require.NoError(t, err)
	t2, d2, err := Aggregate(rows, asn, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, t1, t2)
	assert.Equal(t, d1, d2)
}

func TestSortedAndWriteEdges(t *testing.T) {
	table := map[Edge]uint64{
		{Bait: "bait_x", Prey: "prey_z"}: 2,
		{Bait: "bait_x", Prey: "prey_y"}: 8,
		{Bait: "bait_a", Prey: "prey_z"}: 2,
	}
	list := Sorted(table)
	assert.Equal(t, []EdgeCount{
		{Edge{"bait_x", "prey_y"}, 8},
		{Edge{"bait_a", "prey_z"}, 2},
		{Edge{"bait_x", "prey_z"}, 2},
	}, list)

	var buf bytes.Buffer
	require.NoError(t, WriteEdges(&buf, list, true))
	assert.Equal(t, EdgesHeader+"\nbait_x\tprey_y\t8\nbait_a\tprey_z\t2\nbait_x\tprey_z\t2\n", buf.String())
}
