// Package strategy sorts positions into broad categories and picks the
// search and evaluation variants that suit each one.
package strategy

import (
	"fmt"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/eval"
)

type Category uint8

const (
	Open Category = iota
	SemiOpen
	Closed
	SemiClosed
	Endgame
	Complex
	Trivial

	numCategories
)

var categoryNames = [numCategories]string{
	Open:       "open",
	SemiOpen:   "semi-open",
	Closed:     "closed",
	SemiClosed: "semi-closed",
	Endgame:    "endgame",
	Complex:    "complex",
	Trivial:    "trivial",
}

func (c Category) String() string {
	if c >= numCategories {
		return fmt.Sprintf("category(%d)", c)
	}
	return categoryNames[c]
}

// Categories lists every category in declaration order.
func Categories() []Category {
	cs := make([]Category, numCategories)
	for i := range cs {
		cs[i] = Category(i)
	}
	return cs
}

// ParseCategory is the inverse of String.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

const (
	endgameMaterial = 2600
	highMobility    = 50
	lowMobility     = 30
	fewPawns        = 6
	manyPawns       = 8
	complexityLimit = 20
)

// Features are the measurements classification is based on.
type Features struct {
	// Material is the summed piece value of both sides, pawns included,
	// kings excluded.
	Material int
	Pawns    int
	// Mobility is the number of legal moves of both sides.
	Mobility int
	// Pieces counts the non-pawn, non-king men of both sides.
	Pieces  int
	Endgame bool
}

func (f Features) Complexity() int {
	return f.Pieces + f.Mobility/10
}

// Measure takes the features of pos. The opponent's moves are counted by
// passing the turn with a null move, which is skipped when the side to
// move is in check; then only the side to move's moves count.
func Measure(pos *board.Position) Features {
	f := Features{
		Material: eval.MaterialTotal(pos),
		Endgame:  pos.IsEndgame(),
	}
	for _, c := range []board.Color{board.White, board.Black} {
		f.Pawns += pos.Count(c, board.Pawn)
		for _, k := range []board.Piece{board.Knight, board.Bishop, board.Rook, board.Queen} {
			f.Pieces += pos.Count(c, k)
		}
	}
	f.Mobility = len(pos.GenerateLegalMoves())
	if !pos.IsInCheck() {
		pos.MakeNullMove()
		f.Mobility += len(pos.GenerateLegalMoves())
		pos.UnmakeNullMove()
	}
	return f
}

// Category applies the classification rules in order; the first one that
// matches wins.
func (f Features) Category() Category {
	switch {
	case f.Endgame || f.Material < endgameMaterial:
		return Endgame
	case f.Mobility > highMobility && f.Pawns < fewPawns:
		return Open
	case f.Mobility < lowMobility && f.Pawns > manyPawns:
		return Closed
	case f.Mobility > highMobility && f.Pawns > fewPawns:
		return SemiOpen
	case f.Mobility < highMobility && f.Pawns > fewPawns:
		return SemiClosed
	case f.Complexity() > complexityLimit:
		return Complex
	}
	return Trivial
}

// Classify measures pos and returns its category. pos is left as it was.
func Classify(pos *board.Position) Category {
	return Measure(pos).Category()
}
