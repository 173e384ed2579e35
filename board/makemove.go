package board

import (
	"fmt"

	"github.com/theHamdiz/kishmat/move"
	"github.com/theHamdiz/kishmat/zobrist"
)

// castlingKeep[sq] is ANDed into the rights whenever a move touches sq.
var castlingKeep [64]CastlingRights

func init() {
	for i := range castlingKeep {
		castlingKeep[i] = AllCastling
	}
	castlingKeep[4] &^= WhiteKingside | WhiteQueenside
	castlingKeep[7] &^= WhiteKingside
	castlingKeep[0] &^= WhiteQueenside
	castlingKeep[60] &^= BlackKingside | BlackQueenside
	castlingKeep[63] &^= BlackKingside
	castlingKeep[56] &^= BlackQueenside
}

// castleRookSquares returns where the rook starts and ends for a king move
// from -> to that is a castle.
func castleRookSquares(from, to Square) (Square, Square) {
	base := Square(from.Rank() * 8)
	if to.File() == 6 {
		return base + 7, base + 5
	}
	return base, base + 3
}

func isCastle(k Piece, from, to Square) bool {
	d := int(to) - int(from)
	return k == King && (d == 2 || d == -2)
}

// MakeMove applies m for the side to move. The board is checked for a
// piece of the mover on m.From but the move is otherwise trusted; use
// GenerateLegalMoves or ParseUCIMove for untrusted input.
func (p *Position) MakeMove(m move.Move) error {
	k, c, ok := p.PieceAt(m.From)
	if !ok || c != p.sideToMove {
		return fmt.Errorf("%w: %v", ErrNoPieceAtSquare, m.From)
	}
	p.makeMove(m, k)
	return nil
}

// MakePieceMove is MakeMove for callers that already know what is moving.
// A board that disagrees is a broken caller, so it panics.
func (p *Position) MakePieceMove(from, to Square, piece Piece, side Color, promo move.Promotion) {
	if side != p.sideToMove || p.pieces[side][piece]&SquareBB(from) == 0 {
		panic(fmt.Sprintf("board: no %v %v on %v", side, piece, from))
	}
	p.makeMove(move.NewPromotion(from, to, promo), piece)
}

func (p *Position) makeMove(m move.Move, k Piece) {
	us, them := p.sideToMove, p.sideToMove.Other()
	keys := zobrist.Keys()

	u := undo{
		moved:      k,
		from:       m.From,
		to:         m.To,
		captured:   NoPiece,
		capturedOn: m.To,
		castling:   p.castling,
		enPassant:  p.enPassant,
		halfmove:   p.halfmoveClock,
		fullmove:   p.fullmoveNumber,
		key:        p.key,
	}

	p.key ^= keys.Castling(uint8(p.castling))
	if p.enPassant != NoSquare {
		p.key ^= keys.EnPassant(p.enPassant.File())
	}
	p.enPassant = NoSquare

	if p.occupancy[them].Has(m.To) {
		for ck := Pawn; ck <= King; ck++ {
			if p.pieces[them][ck].Has(m.To) {
				u.captured = ck
				break
			}
		}
		p.remove(them, u.captured, m.To)
	} else if k == Pawn && m.To == u.enPassant {
		capSq := m.To - 8
		if us == Black {
			capSq = m.To + 8
		}
		u.captured = Pawn
		u.capturedOn = capSq
		p.remove(them, Pawn, capSq)
	}

	p.remove(us, k, m.From)
	placed := k
	if k == Pawn && (m.To.Rank() == 7 || m.To.Rank() == 0) {
		placed = Queen
		if m.Promotion != move.NoPromotion {
			placed = PromotionPiece(m.Promotion)
		}
	}
	p.put(us, placed, m.To)

	if isCastle(k, m.From, m.To) {
		rf, rt := castleRookSquares(m.From, m.To)
		p.shift(us, Rook, rf, rt)
	}

	if k == Pawn && (int(m.To)-int(m.From) == 16 || int(m.From)-int(m.To) == 16) {
		p.enPassant = (m.From + m.To) / 2
		p.key ^= keys.EnPassant(p.enPassant.File())
	}

	p.castling &= castlingKeep[m.From] & castlingKeep[m.To]
	p.key ^= keys.Castling(uint8(p.castling))

	if k == Pawn || u.captured != NoPiece {
		p.halfmoveClock = 0
	} else {
		p.halfmoveClock++
	}
	if us == Black {
		p.fullmoveNumber++
	}
	p.sideToMove = them
	p.key ^= keys.BlackToMove()

	p.history = append(p.history, u)
}

func (p *Position) pop() undo {
	n := len(p.history)
	if n == 0 {
		panic("board: unmake with nothing to undo")
	}
	u := p.history[n-1]
	p.history = p.history[:n-1]
	return u
}

// UnmakeMove reverts the most recent MakeMove.
func (p *Position) UnmakeMove() {
	u := p.pop()
	if u.null {
		panic("board: UnmakeMove on a null move")
	}
	us, them := p.sideToMove.Other(), p.sideToMove

	placed := u.moved
	if !p.pieces[us][placed].Has(u.to) {
		for k := Knight; k <= Queen; k++ {
			if p.pieces[us][k].Has(u.to) {
				placed = k
				break
			}
		}
	}
	p.remove(us, placed, u.to)
	p.put(us, u.moved, u.from)

	if isCastle(u.moved, u.from, u.to) {
		rf, rt := castleRookSquares(u.from, u.to)
		p.shift(us, Rook, rt, rf)
	}
	if u.captured != NoPiece {
		p.put(them, u.captured, u.capturedOn)
	}

	p.sideToMove = us
	p.castling = u.castling
	p.enPassant = u.enPassant
	p.halfmoveClock = u.halfmove
	p.fullmoveNumber = u.fullmove
	p.key = u.key
}

// MakeNullMove passes the turn. Any en-passant target expires, as it would
// after a real move.
func (p *Position) MakeNullMove() {
	keys := zobrist.Keys()
	p.history = append(p.history, undo{
		null:      true,
		enPassant: p.enPassant,
		halfmove:  p.halfmoveClock,
		fullmove:  p.fullmoveNumber,
		castling:  p.castling,
		key:       p.key,
	})
	if p.enPassant != NoSquare {
		p.key ^= keys.EnPassant(p.enPassant.File())
		p.enPassant = NoSquare
	}
	p.sideToMove = p.sideToMove.Other()
	p.key ^= keys.BlackToMove()
}

func (p *Position) UnmakeNullMove() {
	u := p.pop()
	if !u.null {
		panic("board: UnmakeNullMove on a real move")
	}
	p.sideToMove = p.sideToMove.Other()
	p.enPassant = u.enPassant
	p.key = u.key
}

// LastMove returns the most recent move made, or move.Null.
func (p *Position) LastMove() move.Move {
	if len(p.history) == 0 {
		return move.Null
	}
	u := p.history[len(p.history)-1]
	if u.null {
		return move.Null
	}
	return move.New(u.from, u.to)
}

// LastWasNull reports whether the last thing made was a null move.
func (p *Position) LastWasNull() bool {
	return len(p.history) > 0 && p.history[len(p.history)-1].null
}
