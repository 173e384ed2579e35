package board

import (
	"github.com/theHamdiz/kishmat/move"
)

var promotionOrder = [...]move.Promotion{
	move.PromoteQueen, move.PromoteRook, move.PromoteBishop, move.PromoteKnight,
}

// IsSquareAttacked reports whether any piece of side by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.Attackers(sq, by, p.Occupied()) != 0
}

// Attackers returns the pieces of side by attacking sq given occupancy occ.
func (p *Position) Attackers(sq Square, by Color, occ Bitboard) Bitboard {
	pc := &p.pieces[by]
	att := pawnAttacks[by.Other()][sq] & pc[Pawn]
	att |= knightAttacks[sq] & pc[Knight]
	att |= kingAttacks[sq] & pc[King]
	att |= BishopAttacks(sq, occ) & (pc[Bishop] | pc[Queen])
	att |= RookAttacks(sq, occ) & (pc[Rook] | pc[Queen])
	return att
}

func appendPawnMoves(ml []move.Move, from, to Square) []move.Move {
	if to.Rank() == 7 || to.Rank() == 0 {
		for _, pr := range promotionOrder {
			ml = append(ml, move.NewPromotion(from, to, pr))
		}
		return ml
	}
	return append(ml, move.New(from, to))
}

func appendTargets(ml []move.Move, from Square, targets Bitboard) []move.Move {
	for targets != 0 {
		ml = append(ml, move.New(from, targets.PopLSB()))
	}
	return ml
}

// GeneratePseudoLegalMoves appends every geometrically valid move for the
// side to move to ml. Moves may leave the mover's king attacked.
func (p *Position) GeneratePseudoLegalMoves(ml []move.Move) []move.Move {
	us, them := p.sideToMove, p.sideToMove.Other()
	own := p.occupancy[us]
	occ := p.Occupied()
	empty := ^occ
	pc := &p.pieces[us]

	enemies := p.occupancy[them]
	if p.enPassant != NoSquare {
		enemies |= SquareBB(p.enPassant)
	}
	fwd, startRank := 8, 1
	if us == Black {
		fwd, startRank = -8, 6
	}
	pawns := pc[Pawn]
	for pawns != 0 {
		from := pawns.PopLSB()
		one := Square(int(from) + fwd)
		if empty.Has(one) {
			ml = appendPawnMoves(ml, from, one)
			two := Square(int(one) + fwd)
			if from.Rank() == startRank && empty.Has(two) {
				ml = append(ml, move.New(from, two))
			}
		}
		caps := pawnAttacks[us][from] & enemies
		for caps != 0 {
			ml = appendPawnMoves(ml, from, caps.PopLSB())
		}
	}

	knights := pc[Knight]
	for knights != 0 {
		from := knights.PopLSB()
		ml = appendTargets(ml, from, knightAttacks[from]&^own)
	}
	bishops := pc[Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		ml = appendTargets(ml, from, BishopAttacks(from, occ)&^own)
	}
	rooks := pc[Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		ml = appendTargets(ml, from, RookAttacks(from, occ)&^own)
	}
	queens := pc[Queen]
	for queens != 0 {
		from := queens.PopLSB()
		ml = appendTargets(ml, from, QueenAttacks(from, occ)&^own)
	}
	if pc[King] != 0 {
		from := pc[King].LSB()
		ml = appendTargets(ml, from, kingAttacks[from]&^own)
		ml = p.appendCastles(ml, from)
	}
	return ml
}

func (p *Position) appendCastles(ml []move.Move, king Square) []move.Move {
	us, them := p.sideToMove, p.sideToMove.Other()
	ks, qs := WhiteKingside, WhiteQueenside
	home := Square(4)
	if us == Black {
		ks, qs = BlackKingside, BlackQueenside
		home = 60
	}
	if king != home || p.castling&(ks|qs) == 0 || p.IsSquareAttacked(home, them) {
		return ml
	}
	occ := p.Occupied()
	rooks := p.pieces[us][Rook]
	if p.castling&ks != 0 && rooks.Has(home+3) &&
		occ&(SquareBB(home+1)|SquareBB(home+2)) == 0 &&
		!p.IsSquareAttacked(home+1, them) && !p.IsSquareAttacked(home+2, them) {
		ml = append(ml, move.New(home, home+2))
	}
	if p.castling&qs != 0 && rooks.Has(home-4) &&
		occ&(SquareBB(home-1)|SquareBB(home-2)|SquareBB(home-3)) == 0 &&
		!p.IsSquareAttacked(home-1, them) && !p.IsSquareAttacked(home-2, them) {
		ml = append(ml, move.New(home, home-2))
	}
	return ml
}

// leavesKingSafe makes m, checks the mover's king and unmakes it.
func (p *Position) leavesKingSafe(m move.Move) bool {
	k, _, _ := p.PieceAt(m.From)
	us := p.sideToMove
	p.makeMove(m, k)
	safe := !p.IsSquareAttacked(p.KingSquare(us), us.Other())
	p.UnmakeMove()
	return safe
}

// GenerateLegalMoves returns the legal moves for the side to move.
func (p *Position) GenerateLegalMoves() []move.Move {
	pseudo := p.GeneratePseudoLegalMoves(make([]move.Move, 0, 64))
	legal := pseudo[:0]
	for _, m := range pseudo {
		if p.leavesKingSafe(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// IsCapture reports whether m takes something, en passant included.
func (p *Position) IsCapture(m move.Move) bool {
	if p.occupancy[p.sideToMove.Other()].Has(m.To) {
		return true
	}
	return m.To == p.enPassant && p.pieces[p.sideToMove][Pawn].Has(m.From)
}

// GenerateCaptures returns the legal captures for the side to move.
func (p *Position) GenerateCaptures() []move.Move {
	pseudo := p.GeneratePseudoLegalMoves(make([]move.Move, 0, 64))
	caps := pseudo[:0]
	for _, m := range pseudo {
		if p.IsCapture(m) && p.leavesKingSafe(m) {
			caps = append(caps, m)
		}
	}
	return caps
}

// GivesCheck reports whether m, played now, attacks the opponent's king.
func (p *Position) GivesCheck(m move.Move) bool {
	k, _, ok := p.PieceAt(m.From)
	if !ok {
		return false
	}
	p.makeMove(m, k)
	check := p.IsInCheck()
	p.UnmakeMove()
	return check
}

// IsLegal checks m against the legal move list.
func (p *Position) IsLegal(m move.Move) bool {
	for _, lm := range p.GenerateLegalMoves() {
		if lm == m {
			return true
		}
	}
	return false
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for _, m := range moves {
		k, _, _ := p.PieceAt(m.From)
		p.makeMove(m, k)
		n += p.Perft(depth - 1)
		p.UnmakeMove()
	}
	return n
}
