package search

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/eval"
	"github.com/theHamdiz/kishmat/move"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	p, err := board.FromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func setUpSearcher(tt bool) *Searcher {
	var table *TranspositionTable
	if tt {
		table = NewTranspositionTable(4)
	}
	return NewSearcher(table)
}

const backRankMate = "6k1/5ppp/8/8/8/8/8/R6K w - - 0 1"

func TestMateInOne(t *testing.T) {
	is := is.New(t)
	for v := IterativeDeepening; v < numVariants; v++ {
		for depth := 1; depth <= 3; depth++ {
			pos := mustFEN(t, backRankMate)
			s := setUpSearcher(true)
			res, err := s.Search(context.Background(), pos, depth, v)
			is.NoErr(err)
			is.Equal(res.Move.String(), "a1a8")
			is.Equal(res.Score, MateScore-1)
			is.Equal(MateIn(res.Score), 1)
			is.Equal(pos.FEN(), backRankMate) // restored

			is.NoErr(pos.MakeMove(res.Move))
			is.True(pos.IsCheckmate())
		}
	}
}

func TestAvoidsBackRankMate(t *testing.T) {
	is := is.New(t)
	// Kh8 walks into Ra8#; every other move is safe for now.
	pos := mustFEN(t, "6k1/6pp/8/8/8/8/8/R5K1 b - - 0 1")
	res, err := setUpSearcher(true).Search(context.Background(), pos, 2, Negamax)
	is.NoErr(err)
	is.True(res.Move.String() != "g8h8")
	is.True(!IsMateScore(res.Score))
}

func TestNoLegalMove(t *testing.T) {
	is := is.New(t)
	pos := mustFEN(t, "R5k1/5ppp/8/8/8/8/8/7K b - - 0 1")
	is.True(pos.IsCheckmate())
	_, err := setUpSearcher(true).Search(context.Background(), pos, 3, IterativeDeepening)
	is.True(errors.Is(err, ErrNoLegalMove))
}

func TestWinsHangingQueen(t *testing.T) {
	is := is.New(t)
	pos := mustFEN(t, "4k3/8/8/3q4/8/8/3R4/3K4 w - - 0 1")
	res, err := setUpSearcher(true).Search(context.Background(), pos, 2, IterativeDeepening)
	is.NoErr(err)
	is.Equal(res.Move.String(), "d2d5")
}

func TestCancelledSearch(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pos := board.StartingPosition()
	res, err := setUpSearcher(true).Search(ctx, pos, 4, IterativeDeepening)
	is.True(errors.Is(err, context.Canceled))
	is.True(pos.Equal(board.StartingPosition()))
	is.Equal(res.Depth, 1)
	is.True(pos.IsLegal(res.Move))
}

func TestStoppedSearchStillFindsMate(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	for v := IterativeDeepening; v < numVariants; v++ {
		pos := mustFEN(t, backRankMate)
		res, err := setUpSearcher(true).Search(ctx, pos, 5, v)
		is.True(errors.Is(err, context.DeadlineExceeded))
		is.Equal(res.Move.String(), "a1a8")
		is.Equal(res.Depth, 1)
		is.Equal(pos.FEN(), backRankMate)
	}
}

// fullWidth is plain minimax in negamax form with no pruning at all. Leaves
// use the same horizon evaluation as the real search.
func fullWidth(t *testing.T, s *Searcher, depth, ply int) int {
	if depth <= 0 {
		v, err := s.leaf(context.Background(), ply, -Infinity, Infinity)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	moves := s.pos.GenerateLegalMoves()
	if len(moves) == 0 {
		if s.pos.IsInCheck() {
			return -MateScore + ply
		}
		return DrawScore
	}
	best := -Infinity
	for _, m := range moves {
		s.makeMove(m)
		v := -fullWidth(t, s, depth-1, ply+1)
		s.pos.UnmakeMove()
		best = max(best, v)
	}
	return best
}

type pruningCase struct {
	fen      string
	maxDepth int
}

var pruningCases = []pruningCase{
	{backRankMate, 3},
	{"4k3/8/8/3q4/8/8/3R4/3K4 w - - 0 1", 3},
	{"8/8/4k3/8/2p5/8/B7/4K3 w - - 0 1", 4},
	{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3},
	{"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3", 2},
	{"7k/5Q2/8/6K1/8/8/8/8 w - - 0 1", 4},
}

func TestPruningMatchesFullWidth(t *testing.T) {
	for _, tc := range pruningCases {
		for depth := 1; depth <= tc.maxDepth; depth++ {
			for _, q := range []bool{true, false} {
				s := setUpSearcher(false)
				s.SetNullMoveOptim(false)
				s.SetLMROptim(false)
				s.SetQuiescenceOptim(q)
				s.pos = mustFEN(t, tc.fen)

				want := fullWidth(t, s, depth, 0)
				pv := PVLine{}
				got, err := s.negamax(context.Background(), depth, 0, -Infinity, Infinity, &pv)
				if err != nil {
					t.Fatal(err)
				}
				if got != want {
					t.Errorf("%v depth %v quiescence %v: alpha-beta %v, full width %v",
						tc.fen, depth, q, got, want)
				}
			}
		}
	}
}

func TestVariantsAgreeOnForcedLines(t *testing.T) {
	is := is.New(t)
	// every variant must find the queen win or the mate regardless of
	// reductions.
	for _, fen := range []string{backRankMate, "4k3/8/8/3q4/8/8/3R4/3K4 w - - 0 1"} {
		var moves []move.Move
		for v := IterativeDeepening; v < numVariants; v++ {
			res, err := setUpSearcher(true).Search(context.Background(), mustFEN(t, fen), 3, v)
			is.NoErr(err)
			moves = append(moves, res.Move)
		}
		is.Equal(moves[0], moves[1])
		is.Equal(moves[1], moves[2])
	}
}

func TestAvoidsStalemate(t *testing.T) {
	is := is.New(t)
	// Qf7 and Qg6 both stalemate; a queen up, the search must not take
	// the draw.
	pos := mustFEN(t, "7k/8/8/5QK1/8/8/8/8 w - - 0 1")
	res, err := setUpSearcher(true).Search(context.Background(), pos, 2, Negamax)
	is.NoErr(err)
	is.True(res.Score > 0)
	is.NoErr(pos.MakeMove(res.Move))
	is.True(!pos.IsStalemate())
}

func TestPVIsPlayable(t *testing.T) {
	is := is.New(t)
	pos := mustFEN(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	res, err := setUpSearcher(true).Search(context.Background(), pos, 3, IterativeDeepening)
	is.NoErr(err)
	is.True(len(res.PV.Moves) >= 1)
	is.Equal(res.PV.Moves[0], res.Move)
	p := pos.Copy()
	for _, m := range res.PV.Moves {
		is.True(p.IsLegal(m))
		is.NoErr(p.MakeMove(m))
	}
	is.True(res.PV.SANString(pos) != "")
}

func TestDebugTableFindsNoMismatch(t *testing.T) {
	is := is.New(t)
	s := setUpSearcher(true)
	d := NewDebugTranspositionTable()
	s.SetDebugTable(d)
	_, err := s.Search(context.Background(), mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"), 2, IterativeDeepening)
	is.NoErr(err)
	is.True(d.Lookups() > 0)
	is.Equal(d.Mismatches(), uint64(0))
	is.Equal(d.Collisions(), uint64(0))
}

func TestEvaluatorSwap(t *testing.T) {
	is := is.New(t)
	s := setUpSearcher(true)
	s.SetEvaluator(eval.For(eval.Endgame))
	is.Equal(s.Evaluator().Variant(), eval.Endgame)
	res, err := s.Search(context.Background(), mustFEN(t, backRankMate), 1, Negamax)
	is.NoErr(err)
	is.Equal(res.Move.String(), "a1a8")
}

func TestDivide(t *testing.T) {
	is := is.New(t)
	entries, total, err := Divide(context.Background(), board.StartingPosition(), 3, 4)
	is.NoErr(err)
	is.Equal(len(entries), 20)
	is.Equal(total, uint64(8902))
}

func TestCapturesOrderedByVictimThenAttacker(t *testing.T) {
	is := is.New(t)
	// exd5 and Qxh5 are both available; the queen is the bigger prize.
	pos := mustFEN(t, "4k3/8/8/3p3q/4P3/8/8/4K2Q w - - 0 1")
	caps := pos.GenerateCaptures()
	orderCaptures(pos, caps)
	is.Equal(len(caps), 2)
	is.Equal(caps[0].String(), "h1h5")
	is.Equal(caps[1].String(), "e4d5")

	// two attackers on one victim: the pawn takes first.
	pos = mustFEN(t, "4k3/8/8/3r4/4P3/8/8/3RK3 w - - 0 1")
	caps = pos.GenerateCaptures()
	orderCaptures(pos, caps)
	is.Equal(len(caps), 2)
	is.Equal(caps[0].String(), "e4d5")
	is.Equal(caps[1].String(), "d1d5")

	// en passant lands on an empty square but still takes a pawn.
	pos = mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	ep, err := pos.ParseUCIMove("e5d6")
	is.NoErr(err)
	is.Equal(captureScore(pos, ep), mvvLva[board.Pawn][board.Pawn])
}
