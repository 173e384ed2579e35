package eval

import (
	"github.com/theHamdiz/kishmat/board"
)

var PieceValues = [...]int{
	board.Pawn:   100,
	board.Knight: 320,
	board.Bishop: 330,
	board.Rook:   500,
	board.Queen:  900,
	board.King:   0,
}

const (
	IsolatedPawnPenalty = 10
	DoubledPawnPenalty  = 20
	PassedPawnBonus     = 50
	ShieldPawnBonus     = 10
)

func relative(sq board.Square, c board.Color) board.Square {
	if c == board.White {
		return sq ^ 56
	}
	return sq
}

type Material struct{}

func (Material) Name() string { return "material" }

func (Material) Score(p *board.Position, c board.Color) int {
	s := 0
	for k := board.Pawn; k < board.King; k++ {
		s += p.Count(c, k) * PieceValues[k]
	}
	return s
}

// MaterialTotal counts both sides, pawns included.
func MaterialTotal(p *board.Position) int {
	return Material{}.Score(p, board.White) + Material{}.Score(p, board.Black)
}

// PieceSquare rewards placement. MinorWeight scales the knight and bishop
// tables.
type PieceSquare struct {
	MinorWeight int
}

var pieceTables = [...]*[64]int{
	board.Pawn:   &pawnTable,
	board.Knight: &knightTable,
	board.Bishop: &bishopTable,
	board.Rook:   &rookTable,
	board.Queen:  &queenTable,
}

func (PieceSquare) Name() string { return "piece-square" }

func (ps PieceSquare) Score(p *board.Position, c board.Color) int {
	s := 0
	for k := board.Pawn; k <= board.Queen; k++ {
		w := 1
		if k == board.Knight || k == board.Bishop {
			w = ps.MinorWeight
		}
		bb := p.Pieces(c, k)
		for bb != 0 {
			s += w * pieceTables[k][relative(bb.PopLSB(), c)]
		}
	}
	return s
}

var shieldMasks [2][64]board.Bitboard

func init() {
	for sq := board.Square(0); sq < 64; sq++ {
		f, r := sq.File(), sq.Rank()
		for df := -1; df <= 1; df++ {
			if f+df < 0 || f+df > 7 {
				continue
			}
			if r < 7 {
				shieldMasks[board.White][sq] |= board.SquareBB(board.SquareAt(f+df, r+1))
			}
			if r > 0 {
				shieldMasks[board.Black][sq] |= board.SquareBB(board.SquareAt(f+df, r-1))
			}
		}
	}
}

// KingSafety is a king placement table plus a bonus for each friendly pawn
// directly in front of the king.
type KingSafety struct {
	Table *[64]int
}

func (KingSafety) Name() string { return "king-safety" }

func (ks KingSafety) Score(p *board.Position, c board.Color) int {
	king := p.KingSquare(c)
	shield := (shieldMasks[c][king] & p.Pieces(c, board.Pawn)).Count()
	return ks.Table[relative(king, c)] + ShieldPawnBonus*shield
}

// ShieldPawns is exposed for display.
func ShieldPawns(p *board.Position, c board.Color) int {
	return (shieldMasks[c][p.KingSquare(c)] & p.Pieces(c, board.Pawn)).Count()
}

var (
	adjacentFiles [8]board.Bitboard
	// passedMasks[c][sq] is every square on the pawn's own and adjacent
	// files strictly ahead of it.
	passedMasks [2][64]board.Bitboard
)

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= board.FileMask(f - 1)
		}
		if f < 7 {
			adjacentFiles[f] |= board.FileMask(f + 1)
		}
	}
	for sq := board.Square(0); sq < 64; sq++ {
		span := adjacentFiles[sq.File()] | board.FileMask(sq.File())
		for r := 0; r < 8; r++ {
			if r > sq.Rank() {
				passedMasks[board.White][sq] |= span & board.RankMask(r)
			}
			if r < sq.Rank() {
				passedMasks[board.Black][sq] |= span & board.RankMask(r)
			}
		}
	}
}

type PawnStructure struct{}

func (PawnStructure) Name() string { return "pawn-structure" }

func (PawnStructure) Score(p *board.Position, c board.Color) int {
	ours := p.Pieces(c, board.Pawn)
	theirs := p.Pieces(c.Other(), board.Pawn)
	s := 0
	for f := 0; f < 8; f++ {
		if n := (ours & board.FileMask(f)).Count(); n > 1 {
			s -= DoubledPawnPenalty * (n - 1)
		}
	}
	bb := ours
	for bb != 0 {
		sq := bb.PopLSB()
		if ours&adjacentFiles[sq.File()] == 0 {
			s -= IsolatedPawnPenalty
		}
		if theirs&passedMasks[c][sq] == 0 {
			s += PassedPawnBonus
		}
	}
	return s
}
