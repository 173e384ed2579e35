package search

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/move"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

const (
	generationMask  = (1 << 6) - 1
	minSizePowerOf2 = 10
	maxSizePowerOf2 = 32
)

// 16 bytes (entrySize)
type TableEntry struct {
	key   uint64
	score int16
	play  uint16
	depth uint8
	// top 2 bits are the flag, the rest the generation the entry was
	// written in.
	flagAndGen uint8
}

func NewTableEntry(depth int, score int, flag uint8, m move.Move) TableEntry {
	return TableEntry{
		score:      int16(score),
		play:       m.Encode(),
		depth:      uint8(depth),
		flagAndGen: flag << 6,
	}
}

func (t TableEntry) flag() uint8 {
	return t.flagAndGen >> 6
}

func (t TableEntry) generation() uint8 {
	return t.flagAndGen & generationMask
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag() != 0
}

func (t TableEntry) Flag() uint8     { return t.flag() }
func (t TableEntry) Depth() int      { return int(t.depth) }
func (t TableEntry) Score() int      { return int(t.score) }
func (t TableEntry) Move() move.Move { return move.Decode(t.play) }

// TranspositionTable is a fixed-size arena indexed by the low bits of the
// position key. It is not safe for concurrent use; every Searcher owns one.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64
	generation   uint8

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: two different keys that land in the same slot.
	t2collisions atomic.Uint64
	// stores skipped because the slot held a deeper entry from this search.
	skipped atomic.Uint64
}

// NewTranspositionTable allocates a table of about megabytes MiB.
func NewTranspositionTable(megabytes int) *TranspositionTable {
	t := &TranspositionTable{}
	t.Reset(megabytes)
	return t
}

func (t *TranspositionTable) Lookup(key uint64) (TableEntry, bool) {
	t.lookups.Add(1)
	idx := key & t.sizeMask
	e := t.table[idx]
	if !e.valid() {
		return TableEntry{}, false
	}
	if e.key != key {
		// There is another unrelated node at this position.
		t.t2collisions.Add(1)
		return TableEntry{}, false
	}
	t.hits.Add(1)
	return e, true
}

// Store writes entry for key. The slot is replaced when it is empty, holds
// the same key, is left over from an earlier search, or is no deeper than
// the new entry.
func (t *TranspositionTable) Store(key uint64, entry TableEntry) {
	idx := key & t.sizeMask
	old := &t.table[idx]
	if old.valid() && old.key != key && old.generation() == t.generation &&
		old.depth > entry.depth {
		t.skipped.Add(1)
		return
	}
	entry.key = key
	entry.flagAndGen = entry.flag()<<6 | t.generation
	*old = entry
	t.created.Add(1)
}

// NewSearch ages every stored entry so that it can be replaced freely.
func (t *TranspositionTable) NewSearch() {
	t.generation = (t.generation + 1) & generationMask
}

func (t *TranspositionTable) resize(desiredNElems float64) {
	// find biggest power of 2 lower than desired.
	desiredNElems = max(desiredNElems, 1)
	t.sizePowerOf2 = int(math.Log2(desiredNElems))
	if t.sizePowerOf2 < minSizePowerOf2 {
		t.sizePowerOf2 = minSizePowerOf2
	}
	if t.sizePowerOf2 > maxSizePowerOf2 {
		t.sizePowerOf2 = maxSizePowerOf2
	}
	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	if t.table != nil && len(t.table) == numElems {
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	t.generation = 0
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
	t.skipped.Store(0)
}

// Reset sizes the table to about megabytes MiB and empties it.
func (t *TranspositionTable) Reset(megabytes int) {
	t.resize(float64(megabytes) * (1 << 20) / entrySize)
	log.Debug().Int("num-elems", len(t.table)).
		Int("estimated-total-memory-bytes", len(t.table)*entrySize).
		Msg("transposition-table-size")
}

// ResetFraction sizes the table to a fraction of the machine's memory.
func (t *TranspositionTable) ResetFraction(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	t.resize(desiredNElems)
	log.Info().Int("num-elems", len(t.table)).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", len(t.table)*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
}

// Clear empties the table without resizing it.
func (t *TranspositionTable) Clear() {
	t.resize(float64(len(t.table)))
}

func (t *TranspositionTable) Size() int { return len(t.table) }

type TTStats struct {
	Created      uint64
	Lookups      uint64
	Hits         uint64
	T2Collisions uint64
	Skipped      uint64
}

func (t *TranspositionTable) Stats() TTStats {
	return TTStats{
		Created:      t.created.Load(),
		Lookups:      t.lookups.Load(),
		Hits:         t.hits.Load(),
		T2Collisions: t.t2collisions.Load(),
		Skipped:      t.skipped.Load(),
	}
}
