package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theHamdiz/kishmat/move"
)

// FromFEN parses a position. Six fields are expected; four-field EPD-style
// input is accepted with the clocks defaulting to 0 and 1.
func FromFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 && len(fields) != 4 {
		return nil, fmt.Errorf("%w: want 6 fields, got %d", ErrInvalidPositionEncoding, len(fields))
	}
	p := &Position{enPassant: NoSquare, fullmoveNumber: 1}

	if err := p.parsePlacement(fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		p.sideToMove = White
	case "b":
		p.sideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidPositionEncoding, fields[1])
	}

	if fields[2] != "-" {
		for _, ch := range []byte(fields[2]) {
			idx := strings.IndexByte("KQkq", ch)
			if idx < 0 || p.castling&(1<<idx) != 0 {
				return nil, fmt.Errorf("%w: castling %q", ErrInvalidPositionEncoding, fields[2])
			}
			p.castling |= 1 << idx
		}
	}

	if fields[3] != "-" {
		sq, err := move.ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant: %w", ErrInvalidPositionEncoding, err)
		}
		if err := p.checkEnPassant(sq); err != nil {
			return nil, err
		}
		p.enPassant = sq
	}

	if len(fields) == 6 {
		hm, err := strconv.Atoi(fields[4])
		if err != nil || hm < 0 {
			return nil, fmt.Errorf("%w: halfmove clock %q", ErrInvalidPositionEncoding, fields[4])
		}
		fm, err := strconv.Atoi(fields[5])
		if err != nil || fm < 1 {
			return nil, fmt.Errorf("%w: fullmove number %q", ErrInvalidPositionEncoding, fields[5])
		}
		p.halfmoveClock = hm
		p.fullmoveNumber = fm
	}

	// the side that just moved cannot have left its king en prise.
	if p.IsSquareAttacked(p.KingSquare(p.sideToMove.Other()), p.sideToMove) {
		return nil, fmt.Errorf("%w: %v is in check with %v to move",
			ErrInvalidPositionEncoding, p.sideToMove.Other(), p.sideToMove)
	}

	p.key = p.computeKey()
	return p, nil
}

func (p *Position) parsePlacement(s string) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidPositionEncoding, len(ranks))
	}
	for i, row := range ranks {
		r := 7 - i
		f := 0
		for _, ch := range []byte(row) {
			if ch >= '1' && ch <= '8' {
				f += int(ch - '0')
				continue
			}
			k, c, ok := pieceFromLetter(ch)
			if !ok {
				return fmt.Errorf("%w: bad piece %q", ErrInvalidPositionEncoding, ch)
			}
			if f > 7 {
				return fmt.Errorf("%w: rank %d too long", ErrInvalidPositionEncoding, r+1)
			}
			p.pieces[c][k] |= SquareBB(SquareAt(f, r))
			f++
		}
		if f != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidPositionEncoding, r+1, f)
		}
	}
	p.refreshOccupancy()
	for c := White; c <= Black; c++ {
		if p.Count(c, King) != 1 {
			return fmt.Errorf("%w: %v must have exactly one king", ErrInvalidPositionEncoding, c)
		}
	}
	if (p.pieces[White][Pawn]|p.pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawn on back rank", ErrInvalidPositionEncoding)
	}
	return nil
}

// checkEnPassant makes sure the target sits behind a pawn that could just
// have advanced two squares.
func (p *Position) checkEnPassant(sq Square) error {
	wantRank, pawnSq := 5, sq-8
	if p.sideToMove == Black {
		wantRank, pawnSq = 2, sq+8
	}
	if sq.Rank() != wantRank || p.Occupied().Has(sq) ||
		!p.pieces[p.sideToMove.Other()][Pawn].Has(pawnSq) {
		return fmt.Errorf("%w: impossible en passant square %v", ErrInvalidPositionEncoding, sq)
	}
	return nil
}

func SquareAt(file, rank int) Square {
	return move.SquareAt(file, rank)
}

// FEN serializes the position.
func (p *Position) FEN() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			k, c, ok := p.PieceAt(SquareAt(f, r))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(k.Letter(c))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if p.sideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.castling, p.enPassant, p.halfmoveClock, p.fullmoveNumber)
	return sb.String()
}
