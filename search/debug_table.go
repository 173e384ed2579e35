package search

import (
	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
)

// a debug tt

type DebugTableEntry struct {
	fen  string
	zkey uint64
}

// DebugTranspositionTable indexes positions by a digest of their FEN, which
// is independent of the Zobrist scheme, and records the key the search saw
// for each. Two different keys for one FEN, or one key for two FENs, means
// the incremental hashing is broken.
type DebugTranspositionTable struct {
	byFEN      map[uint64]*DebugTableEntry
	byKey      map[uint64]string
	lookups    uint64
	mismatches uint64
	collisions uint64
}

func NewDebugTranspositionTable() *DebugTranspositionTable {
	t := &DebugTranspositionTable{}
	t.reset()
	return t
}

// check records one visit. The clocks are dropped from the FEN since the
// key does not cover them.
func (t *DebugTranspositionTable) check(fen string, zkey uint64) {
	fen = trimClocks(fen)
	t.lookups++
	digest := xxhash.Sum64String(fen)
	if e, ok := t.byFEN[digest]; ok {
		if e.fen == fen && e.zkey != zkey {
			t.mismatches++
			log.Error().Str("fen", fen).Uint64("stored-key", e.zkey).Uint64("key", zkey).
				Msg("zobrist-key-mismatch")
		}
	} else {
		t.byFEN[digest] = &DebugTableEntry{fen: fen, zkey: zkey}
	}
	if other, ok := t.byKey[zkey]; ok {
		if other != fen {
			t.collisions++
			log.Warn().Str("fen", fen).Str("other-fen", other).Msg("zobrist-key-collision")
		}
	} else {
		t.byKey[zkey] = fen
	}
}

func trimClocks(fen string) string {
	spaces := 0
	for i := 0; i < len(fen); i++ {
		if fen[i] == ' ' {
			spaces++
			if spaces == 4 {
				return fen[:i]
			}
		}
	}
	return fen
}

func (t *DebugTranspositionTable) Mismatches() uint64 { return t.mismatches }
func (t *DebugTranspositionTable) Collisions() uint64 { return t.collisions }
func (t *DebugTranspositionTable) Lookups() uint64    { return t.lookups }

func (t *DebugTranspositionTable) reset() {
	t.byFEN = make(map[uint64]*DebugTableEntry)
	t.byKey = make(map[uint64]string)
	t.lookups, t.mismatches, t.collisions = 0, 0, 0
	log.Debug().Msg("allocated-debug-transposition-table")
}
