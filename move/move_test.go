package move

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

type squareTestStruct struct {
	text string
	sq   Square
}

var squareTests = []squareTestStruct{
	{"a1", 0},
	{"h1", 7},
	{"a2", 8},
	{"e4", 28},
	{"h8", 63},
}

func TestParseSquare(t *testing.T) {
	for _, tc := range squareTests {
		sq, err := ParseSquare(tc.text)
		if err != nil {
			t.Fatal(err)
		}
		if sq != tc.sq {
			t.Errorf("For %v got %v, expected %v", tc.text, sq, tc.sq)
		}
		if sq.String() != tc.text {
			t.Errorf("For %v got string %v", tc.sq, sq.String())
		}
	}
}

func TestParseSquareErrors(t *testing.T) {
	is := is.New(t)
	for _, s := range []string{"", "e", "i1", "a9", "e44", "E4"} {
		_, err := ParseSquare(s)
		is.True(errors.Is(err, ErrInvalidSquareIndex))
	}
	_, err := SquareFromIndex(64)
	is.True(errors.Is(err, ErrInvalidSquareIndex))
	sq, err := SquareFromIndex(63)
	is.NoErr(err)
	is.Equal(sq, Square(63))
}

func TestUCIRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, s := range []string{"e2e4", "g1f3", "e7e8q", "a2a1n", "e1g1"} {
		m, err := FromUCI(s)
		is.NoErr(err)
		is.Equal(m.String(), s)
	}
	_, err := FromUCI("e7e8k")
	is.True(err != nil)
	is.Equal(Null.String(), "0000")
}

func TestEncodeDecode(t *testing.T) {
	is := is.New(t)
	m := Decode(0x01C4)
	is.Equal(m.From, Square(7))
	is.Equal(m.To, Square(4))
	is.Equal(m.Promotion, NoPromotion)

	p := NewPromotion(SquareAt(4, 6), SquareAt(4, 7), PromoteQueen)
	is.Equal(Decode(p.Encode()), p)
	is.Equal(New(7, 4).Encode(), uint16(0x01C4))
}
