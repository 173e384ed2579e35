package search

import (
	"fmt"
	"strings"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/move"
)

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []move.Move
	score int
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = pvLine.Moves[:0]
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m move.Move, newPVLine PVLine, score int) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, m)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// GetPVMove returns the first move of the line, or move.Null.
func (pvLine *PVLine) GetPVMove() move.Move {
	if len(pvLine.Moves) == 0 {
		return move.Null
	}
	return pvLine.Moves[0]
}

func (pvLine PVLine) Score() int { return pvLine.score }

// String gives the line in coordinate notation, space separated.
func (pvLine PVLine) String() string {
	parts := make([]string, len(pvLine.Moves))
	for i, m := range pvLine.Moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// SANString replays the line on a copy of pos and renders it in SAN with
// move numbers.
func (pvLine PVLine) SANString(pos *board.Position) string {
	p := pos.Copy()
	var sb strings.Builder
	for i, m := range pvLine.Moves {
		if p.SideToMove() == board.White {
			fmt.Fprintf(&sb, "%d. ", p.FullmoveNumber())
		} else if i == 0 {
			fmt.Fprintf(&sb, "%d... ", p.FullmoveNumber())
		}
		sb.WriteString(p.SAN(m))
		if err := p.MakeMove(m); err != nil {
			break
		}
		if i < len(pvLine.Moves)-1 {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
