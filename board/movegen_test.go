package board

import (
	"sort"
	"strings"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/matryer/is"

	"github.com/theHamdiz/kishmat/move"
)

type perftTest struct {
	name  string
	fen   string
	nodes []uint64
}

var perftTests = []perftTest{
	{"start", StartingFEN, []uint64{20, 400, 8902, 197281}},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []uint64{48, 2039, 97862}},
	{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []uint64{14, 191, 2812, 43238}},
	{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467}},
	{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}},
}

func TestStartingPositionMoveCount(t *testing.T) {
	is := is.New(t)
	p := StartingPosition()
	moves := p.GenerateLegalMoves()
	is.Equal(len(moves), 20)
	pawnMoves := 0
	for _, m := range moves {
		k, _, _ := p.PieceAt(m.From)
		if k == Pawn {
			pawnMoves++
		}
	}
	is.Equal(pawnMoves, 16)
}

func TestPerft(t *testing.T) {
	for _, tc := range perftTests {
		p, err := FromFEN(tc.fen)
		if err != nil {
			t.Fatal(err)
		}
		for i, want := range tc.nodes {
			depth := i + 1
			if testing.Short() && want > 10000 {
				continue
			}
			if got := p.Perft(depth); got != want {
				t.Errorf("%v depth %v: got %v, expected %v", tc.name, depth, got, want)
			}
		}
	}
}

func sortedUCI(moves []move.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

// walk compares our legal moves against dragontoothmg a couple of plies
// deep from each suite position.
func TestLegalMovesAgainstDragontooth(t *testing.T) {
	is := is.New(t)
	for _, tc := range perftTests {
		fen := tc.fen
		p, err := FromFEN(fen)
		is.NoErr(err)
		if len(strings.Fields(fen)) == 4 {
			fen += " 0 1"
		}
		compareMoves(t, p, fen)
		for _, m := range p.GenerateLegalMoves() {
			is.NoErr(p.MakeMove(m))
			compareMoves(t, p, p.FEN())
			p.UnmakeMove()
		}
	}
}

func compareMoves(t *testing.T, p *Position, fen string) {
	t.Helper()
	db := dragontoothmg.ParseFen(fen)
	theirs := []string{}
	for _, m := range db.GenerateLegalMoves() {
		theirs = append(theirs, m.String())
	}
	sort.Strings(theirs)
	ours := sortedUCI(p.GenerateLegalMoves())
	if len(ours) != len(theirs) {
		t.Errorf("%v: got %v moves %v, dragontooth has %v %v", fen, len(ours), ours, len(theirs), theirs)
		return
	}
	for i := range ours {
		if ours[i] != theirs[i] {
			t.Errorf("%v: move lists differ at %v: %v vs %v", fen, i, ours[i], theirs[i])
			return
		}
	}
}

func TestCapturesAreSubsetOfLegal(t *testing.T) {
	is := is.New(t)
	for _, tc := range perftTests {
		p, err := FromFEN(tc.fen)
		is.NoErr(err)
		legal := map[move.Move]bool{}
		for _, m := range p.GenerateLegalMoves() {
			legal[m] = true
		}
		for _, m := range p.GenerateCaptures() {
			is.True(legal[m])
			is.True(p.IsCapture(m))
		}
	}
}

func TestMagicsMatchRayScan(t *testing.T) {
	is := is.New(t)
	// xorshift so the occupancies are fixed.
	x := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		return x
	}
	for i := 0; i < 2000; i++ {
		occ := Bitboard(next() & next())
		sq := Square(next() % 64)
		is.Equal(BishopAttacks(sq, occ), slideAttacks(sq, occ, bishopDirs))
		is.Equal(RookAttacks(sq, occ), slideAttacks(sq, occ, rookDirs))
	}
}

func TestLeapersDoNotWrap(t *testing.T) {
	is := is.New(t)
	// knight on h4 must not reach the a-file.
	is.Equal(KnightAttacks(SquareAt(7, 3))&FileA, Bitboard(0))
	is.Equal(KingAttacks(SquareAt(0, 3))&FileH, Bitboard(0))
	is.Equal(PawnAttacks(White, SquareAt(7, 1)), SquareBB(SquareAt(6, 2)))
	is.Equal(KnightAttacks(0).Count(), 2)
	is.Equal(KingAttacks(SquareAt(4, 4)).Count(), 8)
}
