package board

// IsInCheck reports whether the side to move's king is attacked.
func (p *Position) IsInCheck() bool {
	us := p.sideToMove
	return p.IsSquareAttacked(p.KingSquare(us), us.Other())
}

// IsCheckmate: no legal moves and in check.
func (p *Position) IsCheckmate() bool {
	return p.IsInCheck() && len(p.GenerateLegalMoves()) == 0
}

// IsStalemate: no legal moves and not in check.
func (p *Position) IsStalemate() bool {
	return !p.IsInCheck() && len(p.GenerateLegalMoves()) == 0
}

func (p *Position) IsGameOver() bool {
	return len(p.GenerateLegalMoves()) == 0
}

// IsEndgame is true once queens and rooks are gone and at most four minor
// pieces remain on the board.
func (p *Position) IsEndgame() bool {
	heavy := 0
	minors := 0
	for c := White; c <= Black; c++ {
		heavy += p.Count(c, Queen) + p.Count(c, Rook)
		minors += p.Count(c, Knight) + p.Count(c, Bishop)
	}
	return heavy == 0 && minors <= 4
}
