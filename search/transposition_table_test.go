package search

import (
	"testing"

	"github.com/matryer/is"

	"github.com/theHamdiz/kishmat/move"
)

func TestTTableEntry(t *testing.T) {
	is := is.New(t)
	m := move.NewPromotion(52, 60, move.PromoteQueen)
	e := NewTableEntry(17, -1234, TTLower, m)
	is.Equal(e.Depth(), 17)
	is.Equal(e.Score(), -1234)
	is.Equal(e.Flag(), uint8(TTLower))
	is.Equal(e.Move(), m)
	is.True(e.valid())
	is.True(!TableEntry{}.valid())
}

func TestStoreThenLookup(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	key := uint64(0xDEADBEEFCAFEF00D)
	e := NewTableEntry(5, 42, TTExact, move.New(12, 28))
	tt.Store(key, e)
	got, ok := tt.Lookup(key)
	is.True(ok)
	is.Equal(got.Depth(), e.Depth())
	is.Equal(got.Score(), e.Score())
	is.Equal(got.Flag(), e.Flag())
	is.Equal(got.Move(), e.Move())

	// another key in the same slot is a miss, not a wrong hit.
	other := key ^ (1 << 40)
	_, ok = tt.Lookup(other)
	is.True(!ok)
	is.Equal(tt.Stats().T2Collisions, uint64(1))
}

func TestDepthPreferredReplacement(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	key := uint64(7)
	other := key | 1<<50
	tt.Store(key, NewTableEntry(8, 1, TTExact, move.Null))
	tt.Store(other, NewTableEntry(3, 2, TTExact, move.Null))
	_, ok := tt.Lookup(other)
	is.True(!ok) // shallower entry from the same search is dropped
	got, ok := tt.Lookup(key)
	is.True(ok)
	is.Equal(got.Score(), 1)

	// same key always replaces.
	tt.Store(key, NewTableEntry(1, 5, TTUpper, move.Null))
	got, _ = tt.Lookup(key)
	is.Equal(got.Score(), 5)

	// entries from an older search give way.
	tt.Store(key, NewTableEntry(9, 6, TTExact, move.Null))
	tt.NewSearch()
	tt.Store(other, NewTableEntry(1, 7, TTExact, move.Null))
	got, ok = tt.Lookup(other)
	is.True(ok)
	is.Equal(got.Score(), 7)
}

func TestSizing(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	is.Equal(tt.Size(), 1<<16)
	tt.Reset(0)
	is.Equal(tt.Size(), 1<<minSizePowerOf2)
	tt.ResetFraction(0.0000001)
	is.True(tt.Size() >= 1<<minSizePowerOf2)
}

func TestMateScoreNormalisation(t *testing.T) {
	is := is.New(t)
	mated := -MateScore + 7
	is.Equal(scoreFromTT(scoreToTT(mated, 3), 3), mated)
	is.Equal(scoreFromTT(scoreToTT(mated, 3), 5), mated+2)
	is.Equal(scoreToTT(150, 9), 150)
	is.Equal(MateIn(MateScore-1), 1)
	is.Equal(MateIn(MateScore-3), 2)
	is.Equal(MateIn(-MateScore+2), -1)
	is.Equal(MateIn(35), 0)
}
