package search

import (
	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/move"
)

// mvvLva scores a capture by most valuable victim, then least valuable
// attacker. Indexed [victim][attacker].
var mvvLva = [6][6]int{
	{15, 14, 13, 12, 11, 10}, // victim pawn
	{25, 24, 23, 22, 21, 20}, // victim knight
	{35, 34, 33, 32, 31, 30}, // victim bishop
	{45, 44, 43, 42, 41, 40}, // victim rook
	{55, 54, 53, 52, 51, 50}, // victim queen
	{0, 0, 0, 0, 0, 0},       // victim king
}

// captureScore is the MVV-LVA key of m. An en passant capture has an
// empty target square and takes a pawn.
func captureScore(pos *board.Position, m move.Move) int {
	attacker, _, ok := pos.PieceAt(m.From)
	if !ok {
		return 0
	}
	victim, _, ok := pos.PieceAt(m.To)
	if !ok {
		victim = board.Pawn
	}
	return mvvLva[victim][attacker]
}

// orderCaptures sorts captures best first. It is a stable insertion sort;
// capture lists are short.
func orderCaptures(pos *board.Position, moves []move.Move) {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = captureScore(pos, m)
	}
	for i := 1; i < len(moves); i++ {
		m, sc := moves[i], scores[i]
		j := i
		for ; j > 0 && scores[j-1] < sc; j-- {
			moves[j], scores[j] = moves[j-1], scores[j-1]
		}
		moves[j], scores[j] = m, sc
	}
}
