package strategy

import (
	"testing"

	"github.com/matryer/is"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/eval"
	"github.com/theHamdiz/kishmat/search"
)

func TestRules(t *testing.T) {
	is := is.New(t)
	cases := []struct {
		f    Features
		want Category
	}{
		{Features{Material: 8000, Endgame: true}, Endgame},
		{Features{Material: 2599, Mobility: 80, Pawns: 2}, Endgame},
		{Features{Material: 5000, Mobility: 60, Pawns: 4}, Open},
		{Features{Material: 5000, Mobility: 20, Pawns: 12}, Closed},
		{Features{Material: 5000, Mobility: 60, Pawns: 10}, SemiOpen},
		{Features{Material: 5000, Mobility: 40, Pawns: 8}, SemiClosed},
		// too few pawns for the pawn rules
		{Features{Material: 5000, Mobility: 40, Pawns: 6, Pieces: 18}, Complex},
		{Features{Material: 5000, Mobility: 40, Pawns: 6, Pieces: 10}, Trivial},
		// exactly 50 is neither high nor low mobility.
		{Features{Material: 5000, Mobility: 50, Pawns: 10, Pieces: 4}, Trivial},
	}
	for _, tc := range cases {
		is.Equal(tc.f.Category(), tc.want)
	}
}

func TestClassifyPositions(t *testing.T) {
	is := is.New(t)
	cases := []struct {
		fen  string
		want Category
	}{
		{board.StartingFEN, SemiClosed},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", Endgame},
		{"r2qk2r/p7/8/8/8/8/P7/R2QK2R w KQkq - 0 1", Open},
	}
	for _, tc := range cases {
		pos, err := board.FromFEN(tc.fen)
		is.NoErr(err)
		is.Equal(Classify(pos), tc.want)
		is.Equal(pos.FEN(), tc.fen) // left untouched
	}
}

func TestMeasureStart(t *testing.T) {
	is := is.New(t)
	f := Measure(board.StartingPosition())
	is.Equal(f.Material, 8000)
	is.Equal(f.Pawns, 16)
	is.Equal(f.Pieces, 14)
	is.Equal(f.Mobility, 40)
	is.Equal(f.Complexity(), 18)
	is.True(!f.Endgame)
}

func TestMeasureInCheck(t *testing.T) {
	is := is.New(t)
	pos, err := board.FromFEN("4k3/8/8/8/8/8/8/4R1K1 b - - 0 1")
	is.NoErr(err)
	f := Measure(pos)
	// only the checked side's evasions count.
	is.Equal(f.Mobility, len(pos.GenerateLegalMoves()))
}

func TestDispatchCoversEveryCategory(t *testing.T) {
	is := is.New(t)
	want := map[Category]policy{
		Open:       {search.IterativeDeepening, eval.General},
		SemiOpen:   {search.IterativeDeepening, eval.General},
		Closed:     {search.LateMoveReductions, eval.General},
		SemiClosed: {search.LateMoveReductions, eval.General},
		Endgame:    {search.Negamax, eval.Endgame},
		Complex:    {search.IterativeDeepening, eval.Complex},
		Trivial:    {search.Negamax, eval.General},
	}
	is.Equal(len(Categories()), len(want))
	for _, c := range Categories() {
		is.Equal(policy{PickSearch(c), PickEval(c)}, want[c])
		back, err := ParseCategory(c.String())
		is.NoErr(err)
		is.Equal(back, c)
	}
}

func TestDispatchPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	PickSearch(numCategories)
}
