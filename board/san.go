package board

import (
	"fmt"
	"strings"

	"github.com/theHamdiz/kishmat/move"
)

var sanPieces = map[byte]Piece{'N': Knight, 'B': Bishop, 'R': Rook, 'Q': Queen, 'K': King}

var sanPromotions = map[byte]move.Promotion{
	'N': move.PromoteKnight, 'B': move.PromoteBishop, 'R': move.PromoteRook, 'Q': move.PromoteQueen,
	'n': move.PromoteKnight, 'b': move.PromoteBishop, 'r': move.PromoteRook, 'q': move.PromoteQueen,
}

// ParseSAN resolves a move in standard algebraic notation ("e4", "Nbd7",
// "exd5", "O-O", "e8=Q") against the legal moves of the position.
func (p *Position) ParseSAN(tok string) (move.Move, error) {
	s := strings.TrimRight(tok, "+#!?")
	if s == "" {
		return move.Null, fmt.Errorf("%w: empty move", ErrInvalidPositionEncoding)
	}
	legal := p.GenerateLegalMoves()

	switch strings.ReplaceAll(s, "0", "O") {
	case "O-O", "O-O-O":
		home := p.KingSquare(p.sideToMove)
		to := home + 2
		if len(s) == 5 {
			to = home - 2
		}
		for _, m := range legal {
			if m.From == home && m.To == to && p.pieces[p.sideToMove][King].Has(home) {
				return m, nil
			}
		}
		return move.Null, fmt.Errorf("%w: %s", ErrIllegalMove, tok)
	}

	kind := Pawn
	if k, ok := sanPieces[s[0]]; ok {
		kind = k
		s = s[1:]
	}

	promo := move.NoPromotion
	if i := strings.IndexByte(s, '='); i >= 0 {
		if i+2 != len(s) {
			return move.Null, fmt.Errorf("%w: bad promotion in %q", ErrInvalidPositionEncoding, tok)
		}
		pr, ok := sanPromotions[s[i+1]]
		if !ok {
			return move.Null, fmt.Errorf("%w: bad promotion in %q", ErrInvalidPositionEncoding, tok)
		}
		promo = pr
		s = s[:i]
	} else if kind == Pawn && len(s) >= 3 {
		if pr, ok := sanPromotions[s[len(s)-1]]; ok && s[len(s)-1] != 'b' {
			promo = pr
			s = s[:len(s)-1]
		}
	}

	if len(s) < 2 {
		return move.Null, fmt.Errorf("%w: %q", ErrInvalidPositionEncoding, tok)
	}
	to, err := move.ParseSquare(s[len(s)-2:])
	if err != nil {
		return move.Null, fmt.Errorf("%w: %q: %w", ErrInvalidPositionEncoding, tok, err)
	}
	disambig := strings.ReplaceAll(s[:len(s)-2], "x", "")
	fromFile, fromRank := -1, -1
	for _, ch := range []byte(disambig) {
		switch {
		case ch >= 'a' && ch <= 'h':
			fromFile = int(ch - 'a')
		case ch >= '1' && ch <= '8':
			fromRank = int(ch - '1')
		default:
			return move.Null, fmt.Errorf("%w: %q", ErrInvalidPositionEncoding, tok)
		}
	}
	if kind == Pawn && promo == move.NoPromotion && (to.Rank() == 7 || to.Rank() == 0) {
		promo = move.PromoteQueen
	}

	var found []move.Move
	for _, m := range legal {
		if m.To != to || m.Promotion != promo || !p.pieces[p.sideToMove][kind].Has(m.From) {
			continue
		}
		if fromFile >= 0 && m.From.File() != fromFile {
			continue
		}
		if fromRank >= 0 && m.From.Rank() != fromRank {
			continue
		}
		found = append(found, m)
	}
	switch len(found) {
	case 0:
		return move.Null, fmt.Errorf("%w: %s", ErrIllegalMove, tok)
	case 1:
		return found[0], nil
	}
	return move.Null, fmt.Errorf("%w: ambiguous move %s", ErrInvalidPositionEncoding, tok)
}

// ApplySAN parses and makes a SAN move.
func (p *Position) ApplySAN(tok string) error {
	m, err := p.ParseSAN(tok)
	if err != nil {
		return err
	}
	return p.MakeMove(m)
}

// ParseUCIMove parses coordinate notation and checks it is legal here. A
// pawn reaching the last rank without a suffix promotes to a queen.
func (p *Position) ParseUCIMove(s string) (move.Move, error) {
	m, err := move.FromUCI(s)
	if err != nil {
		return move.Null, err
	}
	if m.Promotion == move.NoPromotion && p.pieces[p.sideToMove][Pawn].Has(m.From) &&
		(m.To.Rank() == 7 || m.To.Rank() == 0) {
		m.Promotion = move.PromoteQueen
	}
	if !p.IsLegal(m) {
		return move.Null, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	}
	return m, nil
}

func isMoveNumber(tok string) bool {
	t := strings.TrimRight(tok, ".")
	if t == tok || t == "" {
		return false
	}
	for _, ch := range t {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func isResult(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}

// FromMoveText replays whitespace-separated SAN moves from the starting
// position. Move numbers ("1.", "12...") and a trailing result are skipped;
// a number glued to a move ("1.e4") is split off.
func FromMoveText(text string) (*Position, error) {
	p := StartingPosition()
	for _, tok := range strings.Fields(text) {
		if isMoveNumber(tok) || isResult(tok) {
			continue
		}
		if i := strings.LastIndexByte(tok, '.'); i >= 0 && isMoveNumber(tok[:i+1]) {
			tok = tok[i+1:]
		}
		if err := p.ApplySAN(tok); err != nil {
			return nil, fmt.Errorf("replaying %q: %w", tok, err)
		}
	}
	return p, nil
}

// SAN renders m, which must be legal here, in standard algebraic notation.
func (p *Position) SAN(m move.Move) string {
	k, _, ok := p.PieceAt(m.From)
	if !ok {
		return m.String()
	}
	var sb strings.Builder
	switch {
	case isCastle(k, m.From, m.To):
		if m.To.File() == 6 {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	case k == Pawn:
		if p.IsCapture(m) {
			sb.WriteByte(byte('a' + m.From.File()))
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != move.NoPromotion {
			sb.WriteByte('=')
			sb.WriteByte(PromotionPiece(m.Promotion).Letter(White))
		}
	default:
		sb.WriteByte(k.Letter(White))
		sameFile, sameRank, others := false, false, false
		for _, o := range p.GenerateLegalMoves() {
			if o.To != m.To || o.From == m.From || !p.pieces[p.sideToMove][k].Has(o.From) {
				continue
			}
			others = true
			if o.From.File() == m.From.File() {
				sameFile = true
			}
			if o.From.Rank() == m.From.Rank() {
				sameRank = true
			}
		}
		if others {
			switch {
			case !sameFile:
				sb.WriteByte(byte('a' + m.From.File()))
			case !sameRank:
				sb.WriteByte(byte('1' + m.From.Rank()))
			default:
				sb.WriteString(m.From.String())
			}
		}
		if p.IsCapture(m) {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
	}
	p.makeMove(m, k)
	if p.IsInCheck() {
		if len(p.GenerateLegalMoves()) == 0 {
			sb.WriteByte('#')
		} else {
			sb.WriteByte('+')
		}
	}
	p.UnmakeMove()
	return sb.String()
}
