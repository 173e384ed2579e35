package board

import (
	"math/bits"

	"github.com/theHamdiz/kishmat/move"
)

type Square = move.Square

const NoSquare = move.NoSquare

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Piece is a piece kind, independent of color.
type Piece uint8

const (
	Pawn Piece = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPiece
)

const numKinds = 6

var pieceLetters = [...]byte{'p', 'n', 'b', 'r', 'q', 'k', '.'}

// Letter gives the FEN letter, uppercase for White.
func (p Piece) Letter(c Color) byte {
	l := pieceLetters[p]
	if c == White && p != NoPiece {
		l -= 'a' - 'A'
	}
	return l
}

func (p Piece) String() string {
	return [...]string{"pawn", "knight", "bishop", "rook", "queen", "king", "none"}[p]
}

func pieceFromLetter(l byte) (Piece, Color, bool) {
	c := White
	if l >= 'a' && l <= 'z' {
		c = Black
		l -= 'a' - 'A'
	}
	switch l {
	case 'P':
		return Pawn, c, true
	case 'N':
		return Knight, c, true
	case 'B':
		return Bishop, c, true
	case 'R':
		return Rook, c, true
	case 'Q':
		return Queen, c, true
	case 'K':
		return King, c, true
	}
	return NoPiece, c, false
}

// PromotionPiece maps a move promotion to a piece kind.
func PromotionPiece(p move.Promotion) Piece {
	if p == move.NoPromotion {
		return NoPiece
	}
	return Piece(p)
}

// CastlingRights is a 4-bit mask.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := make([]byte, 0, 4)
	for i, l := range []byte("KQkq") {
		if cr&(1<<i) != 0 {
			s = append(s, l)
		}
	}
	return string(s)
}

// Bitboard is a set of squares, bit i for square i.
type Bitboard uint64

func SquareBB(sq Square) Bitboard {
	return Bitboard(1) << sq
}

func (b Bitboard) Has(sq Square) bool {
	return b&SquareBB(sq) != 0
}

func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the lowest set square. b must be non-empty.
func (b Bitboard) LSB() Square {
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

const (
	FileA Bitboard = 0x0101010101010101
	FileH Bitboard = FileA << 7
	Rank1 Bitboard = 0xFF
	Rank2 Bitboard = Rank1 << 8
	Rank7 Bitboard = Rank1 << 48
	Rank8 Bitboard = Rank1 << 56
)

func FileMask(file int) Bitboard { return FileA << file }
func RankMask(rank int) Bitboard { return Rank1 << (8 * rank) }
