// internal/counter/counter.go
package counter

import (
	"sort"
	"sync"

	"github.com/zeebo/wyhash"

	"petlink/internal/linker"
	"petlink/internal/tagpair"
)

// shardCount trades memory for lock granularity. Power of two so the
// shard index is a mask of the key hash.
const shardCount = 256

// Record is the mutable per-key state during the counting phase.
type Record struct {
	Count    uint64
	Rep      []byte // representative full read, first writer wins
	RepStart int    // linker match bounds within Rep
	RepEnd   int
}

type shard struct {
	mu sync.Mutex
	m  map[tagpair.Pair]*Record
}

// Table is the shared count table. Keys hash to one of shardCount
// independently locked maps, so concurrent workers only contend when they
// land on the same shard. Increments commute; no global ordering is
// needed for the final counts to be deterministic.
type Table struct {
	shards [shardCount]shard
}

// NewTable returns an empty count table.
func NewTable() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i].m = make(map[tagpair.Pair]*Record)
	}
	return t
}

func (t *Table) shardFor(key tagpair.Pair) *shard {
	h := wyhash.HashString(key.Bait, 0)
	h = wyhash.HashString(key.Prey, h)
	return &t.shards[h&(shardCount-1)]
}

// Add increments key's count and, on first observation, captures rep (the
// full read) plus the linker match bounds as the key's representative.
// A reverse-complement match (rc) is stored reverse-complemented with
// mirrored bounds, so Rep always reads bait arm, linker, prey arm no
// matter which strand the read sampled. The representative copy happens
// once per key; increments are O(1).
func (t *Table) Add(key tagpair.Pair, rep []byte, repStart, repEnd int, rc bool) {
	sh := t.shardFor(key)
	sh.mu.Lock()
	r := sh.m[key]
	if r == nil {
		if rc {
			n := len(rep)
			r = &Record{
				Rep:      linker.RevComp(rep),
				RepStart: n - repEnd,
				RepEnd:   n - repStart,
			}
		} else {
			r = &Record{
				Rep:      append([]byte(nil), rep...),
				RepStart: repStart,
				RepEnd:   repEnd,
			}
		}
		sh.m[key] = r
	}
	r.Count++
	sh.mu.Unlock()
}

// Len reports the number of distinct keys.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.m)
		sh.mu.Unlock()
	}
	return n
}

// CountRecord is one frozen row of the finished table.
type CountRecord struct {
	Key      tagpair.Pair
	Count    uint64
	Rep      []byte
	RepStart int
	RepEnd   int
}

// Snapshot freezes the table into a reproducibly ordered slice:
// descending count, ties by bait then prey tag byte order. Callers must
// not Add concurrently with Snapshot; the counting phase joins all
// workers first.
func (t *Table) Snapshot() []CountRecord {
	out := make([]CountRecord, 0, t.Len())
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for k, r := range sh.m {
			out = append(out, CountRecord{
				Key: k, Count: r.Count,
				Rep: r.Rep, RepStart: r.RepStart, RepEnd: r.RepEnd,
			})
		}
		sh.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Key.Bait != out[j].Key.Bait {
			return out[i].Key.Bait < out[j].Key.Bait
		}
		return out[i].Key.Prey < out[j].Key.Prey
	})
	return out
}
