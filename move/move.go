package move

import (
	"errors"
	"fmt"
)

var ErrInvalidSquareIndex = errors.New("invalid square index")

// Square is a board square, a1 = 0, b1 = 1, ..., h8 = 63.
type Square uint8

const NoSquare Square = 64

func SquareAt(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 3 }

func (s Square) String() string {
	if s >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare turns a two-character coordinate like "e4" into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquareIndex, s)
	}
	return SquareAt(int(s[0]-'a'), int(s[1]-'1')), nil
}

// SquareFromIndex validates a raw index.
func SquareFromIndex(i int) (Square, error) {
	if i < 0 || i >= 64 {
		return NoSquare, fmt.Errorf("%w: %d", ErrInvalidSquareIndex, i)
	}
	return Square(i), nil
}

// Promotion is the piece a pawn turns into. The values match the piece
// kind numbering used by the board package.
type Promotion uint8

const (
	NoPromotion Promotion = iota
	PromoteKnight
	PromoteBishop
	PromoteRook
	PromoteQueen
)

var promotionLetters = [...]string{"", "n", "b", "r", "q"}

func (p Promotion) String() string {
	if int(p) >= len(promotionLetters) {
		return "?"
	}
	return promotionLetters[p]
}

// Move is a pair of squares plus an optional promotion. It carries no
// information about what piece moved or what was captured; that comes
// from the position it was generated for.
type Move struct {
	From      Square
	To        Square
	Promotion Promotion
}

// Null is the zero Move. a1a1 can never be played, so it doubles as
// "no move".
var Null = Move{}

func New(from, to Square) Move {
	return Move{From: from, To: to}
}

func NewPromotion(from, to Square, p Promotion) Move {
	return Move{From: from, To: to, Promotion: p}
}

func (m Move) IsNull() bool {
	return m == Null
}

// String returns the move in coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	return m.From.String() + m.To.String() + m.Promotion.String()
}

// FromUCI parses coordinate notation.
func FromUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Null, fmt.Errorf("%w: bad move text %q", ErrInvalidSquareIndex, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Null, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Null, err
	}
	m := New(from, to)
	if len(s) == 5 {
		switch s[4] {
		case 'n', 'N':
			m.Promotion = PromoteKnight
		case 'b', 'B':
			m.Promotion = PromoteBishop
		case 'r', 'R':
			m.Promotion = PromoteRook
		case 'q', 'Q':
			m.Promotion = PromoteQueen
		default:
			return Null, fmt.Errorf("%w: bad promotion in %q", ErrInvalidSquareIndex, s)
		}
	}
	return m, nil
}
