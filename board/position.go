package board

import (
	"strings"

	"github.com/theHamdiz/kishmat/zobrist"
)

// Position is a chess position: piece bitboards plus the metadata that
// decides which moves are legal.
type Position struct {
	pieces    [2][numKinds]Bitboard
	occupancy [2]Bitboard

	sideToMove     Color
	castling       CastlingRights
	enPassant      Square
	halfmoveClock  int
	fullmoveNumber int

	key     uint64
	history []undo
}

// undo is everything MakeMove destroys, so UnmakeMove can put it back.
type undo struct {
	null       bool
	moved      Piece
	from, to   Square
	captured   Piece
	capturedOn Square
	castling   CastlingRights
	enPassant  Square
	halfmove   int
	fullmove   int
	key        uint64
}

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// NewPosition returns an empty board, White to move.
func NewPosition() *Position {
	p := &Position{enPassant: NoSquare, fullmoveNumber: 1}
	p.key = p.computeKey()
	return p
}

// StartingPosition returns the standard initial position.
func StartingPosition() *Position {
	p, err := FromFEN(StartingFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Position) SideToMove() Color                { return p.sideToMove }
func (p *Position) Castling() CastlingRights         { return p.castling }
func (p *Position) EnPassant() Square                { return p.enPassant }
func (p *Position) HalfmoveClock() int               { return p.halfmoveClock }
func (p *Position) FullmoveNumber() int              { return p.fullmoveNumber }
func (p *Position) Key() uint64                      { return p.key }
func (p *Position) Pieces(c Color, k Piece) Bitboard { return p.pieces[c][k] }
func (p *Position) Occupancy(c Color) Bitboard       { return p.occupancy[c] }
func (p *Position) Occupied() Bitboard               { return p.occupancy[White] | p.occupancy[Black] }

// Ply is how many moves (null moves included) can be unmade.
func (p *Position) Ply() int { return len(p.history) }

// PieceAt reports the piece on sq. ok is false for an empty square.
func (p *Position) PieceAt(sq Square) (piece Piece, c Color, ok bool) {
	b := SquareBB(sq)
	for c = White; c <= Black; c++ {
		if p.occupancy[c]&b == 0 {
			continue
		}
		for k := Pawn; k <= King; k++ {
			if p.pieces[c][k]&b != 0 {
				return k, c, true
			}
		}
	}
	return NoPiece, White, false
}

// KingSquare panics if c has no king; every reachable position has one.
func (p *Position) KingSquare(c Color) Square {
	k := p.pieces[c][King]
	if k == 0 {
		panic("board: no " + c.String() + " king")
	}
	return k.LSB()
}

func (p *Position) put(c Color, k Piece, sq Square) {
	b := SquareBB(sq)
	p.pieces[c][k] |= b
	p.occupancy[c] |= b
	p.key ^= zobrist.Keys().Piece(int(c), int(k), int(sq))
}

func (p *Position) remove(c Color, k Piece, sq Square) {
	b := SquareBB(sq)
	p.pieces[c][k] &^= b
	p.occupancy[c] &^= b
	p.key ^= zobrist.Keys().Piece(int(c), int(k), int(sq))
}

// shift moves one piece between two empty-or-own squares.
func (p *Position) shift(c Color, k Piece, from, to Square) {
	b := SquareBB(from) | SquareBB(to)
	p.pieces[c][k] ^= b
	p.occupancy[c] ^= b
	p.key = zobrist.Keys().MovePiece(p.key, int(c), int(k), int(from), int(to))
}

// refreshOccupancy rebuilds the derived union boards.
func (p *Position) refreshOccupancy() {
	for c := White; c <= Black; c++ {
		var occ Bitboard
		for k := Pawn; k <= King; k++ {
			occ |= p.pieces[c][k]
		}
		p.occupancy[c] = occ
	}
}

func (p *Position) placements() []zobrist.Placement {
	ps := make([]zobrist.Placement, 0, 32)
	for c := White; c <= Black; c++ {
		for k := Pawn; k <= King; k++ {
			bb := p.pieces[c][k]
			for bb != 0 {
				sq := bb.PopLSB()
				ps = append(ps, zobrist.Placement{Side: int(c), Kind: int(k), Square: int(sq)})
			}
		}
	}
	return ps
}

// computeKey hashes the position from scratch. The incremental key kept by
// MakeMove must always agree with it.
func (p *Position) computeKey() uint64 {
	epFile := -1
	if p.enPassant != NoSquare {
		epFile = p.enPassant.File()
	}
	return zobrist.Keys().Hash(p.placements(), p.sideToMove == Black, uint8(p.castling), epFile)
}

// RecomputeKey is exported for tests and debugging.
func (p *Position) RecomputeKey() uint64 { return p.computeKey() }

// Copy returns a deep copy, history included.
func (p *Position) Copy() *Position {
	cp := *p
	cp.history = make([]undo, len(p.history), cap(p.history))
	copy(cp.history, p.history)
	return &cp
}

// Equal compares every board field except the undo history.
func (p *Position) Equal(o *Position) bool {
	return p.pieces == o.pieces &&
		p.occupancy == o.occupancy &&
		p.sideToMove == o.sideToMove &&
		p.castling == o.castling &&
		p.enPassant == o.enPassant &&
		p.halfmoveClock == o.halfmoveClock &&
		p.fullmoveNumber == o.fullmoveNumber &&
		p.key == o.key
}

// SetSideToMove hands the move to c, dropping any en-passant target and
// clearing history, since the result is not reachable by unmaking.
func (p *Position) SetSideToMove(c Color) {
	if c == p.sideToMove {
		return
	}
	p.sideToMove = c
	p.enPassant = NoSquare
	p.history = p.history[:0]
	p.key = p.computeKey()
}

// Count returns how many pieces of kind k side c has.
func (p *Position) Count(c Color, k Piece) int {
	return p.pieces[c][k].Count()
}

// String draws the board, rank 8 at the top.
func (p *Position) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		sb.WriteByte(byte('1' + r))
		sb.WriteString(" ")
		for f := 0; f < 8; f++ {
			k, c, ok := p.PieceAt(Square(r*8 + f))
			if ok {
				sb.WriteByte(k.Letter(c))
			} else {
				sb.WriteByte('.')
			}
			if f < 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
