package search

import (
	"context"
	"fmt"

	"github.com/theHamdiz/kishmat/move"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

// evaluate scores the current node for the side to move.
func (s *Searcher) evaluate() int {
	return s.evaluator.EvaluateFor(s.pos, s.pos.SideToMove())
}

// makeMove applies a generated move. The generator and board disagreeing
// means one of them is broken, so this panics rather than searching on.
func (s *Searcher) makeMove(m move.Move) {
	if err := s.pos.MakeMove(m); err != nil {
		panic(fmt.Sprintf("search: generated move %v does not fit board %v: %v", m, s.pos.FEN(), err))
	}
}

// orderTTMoveFirst moves the hash move to the front and leaves the rest in
// generation order.
func orderTTMoveFirst(moves []move.Move, ttMove move.Move) {
	if ttMove.IsNull() {
		return
	}
	for i, m := range moves {
		if m == ttMove {
			copy(moves[1:i+1], moves[:i])
			moves[0] = ttMove
			return
		}
	}
}

func (s *Searcher) negamax(ctx context.Context, depth, ply int, α, β int, pv *PVLine) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	pos := s.pos
	if depth <= 0 {
		return s.leaf(ctx, ply, α, β)
	}
	s.nodes.Add(1)
	if ply >= MaxPly {
		return s.evaluate(), nil
	}

	// Note: if I return early as in here, the PV might not be complete.
	// The value should still be correct, though.
	alphaOrig := α
	key := pos.Key()
	ttMove := move.Null

	if s.transpositionTableOptim {
		if ttEntry, ok := s.ttable.Lookup(key); ok {
			ttMove = ttEntry.Move()
			// never cut at the root; it has to produce a move.
			if ply > 0 && ttEntry.Depth() >= depth {
				score := scoreFromTT(ttEntry.Score(), ply)
				switch ttEntry.Flag() {
				case TTExact:
					return score, nil
				case TTLower:
					α = max(α, score)
				case TTUpper:
					β = min(β, score)
				}
				if α >= β {
					return score, nil
				}
			}
		}
	}
	if s.debugTT != nil {
		s.debugTT.check(pos.FEN(), key)
	}

	inCheck := pos.IsInCheck()

	// two null moves in a row would just hand the move back.
	if s.nullMoveOptim && !pos.LastWasNull() && ply > 0 && depth > 1 && !inCheck && !pos.IsEndgame() {
		pos.MakeNullMove()
		nullPV := PVLine{}
		value, err := s.negamax(ctx, depth-1-NullMoveReduction, ply+1, -β, -β+1, &nullPV)
		pos.UnmakeNullMove()
		if err != nil {
			return 0, err
		}
		if -value >= β {
			return β, nil
		}
	}

	children := pos.GenerateLegalMoves()
	if len(children) == 0 {
		if inCheck {
			return -MateScore + ply, nil
		}
		return DrawScore, nil
	}
	orderTTMoveFirst(children, ttMove)

	childPV := PVLine{}
	bestValue := -Infinity
	bestMove := move.Null
	for i, child := range children {
		reducible := s.lmrOptim && i >= LMRFullDepthMoves && depth >= LMRMinDepth &&
			!inCheck && child.Promotion == move.NoPromotion && !pos.IsCapture(child)
		s.makeMove(child)

		var value int
		var err error
		if reducible && !pos.IsInCheck() {
			// scout one ply shallower with a null window; only a move that
			// looks better than α earns a full-depth search.
			value, err = s.negamax(ctx, depth-2, ply+1, -α-1, -α, &childPV)
			value = -value
			if err == nil && value > α {
				childPV.Clear()
				value, err = s.negamax(ctx, depth-1, ply+1, -β, -α, &childPV)
				value = -value
			}
		} else {
			value, err = s.negamax(ctx, depth-1, ply+1, -β, -α, &childPV)
			value = -value
		}
		pos.UnmakeMove()
		if err != nil {
			return 0, err
		}
		if s.logStream != nil && ply == 0 {
			fmt.Fprintf(s.logStream, "  %v: %v\n", child, value)
		}

		if value > bestValue {
			bestValue = value
			bestMove = child
			pv.Update(child, childPV, bestValue)
		}
		α = max(α, bestValue)
		if α >= β {
			break // beta cut-off
		}
		childPV.Clear() // clear the child node's pv for the next child node
	}

	if s.transpositionTableOptim {
		var flag uint8
		if bestValue <= alphaOrig {
			flag = TTUpper
		} else if bestValue >= β {
			flag = TTLower
		} else {
			flag = TTExact
		}
		s.ttable.Store(key, NewTableEntry(depth, scoreToTT(bestValue, ply), flag, bestMove))
	}
	return bestValue, nil
}

// leaf is the horizon: quiescence when enabled, otherwise the static score
// with a mate check so a mated leaf is not scored as material.
func (s *Searcher) leaf(ctx context.Context, ply, α, β int) (int, error) {
	if s.quiescenceOptim {
		return s.quiescence(ctx, ply, α, β)
	}
	s.qnodes.Add(1)
	if s.pos.IsCheckmate() {
		return -MateScore + ply, nil
	}
	return s.evaluate(), nil
}

// quiescence searches captures only until the position is quiet. In check
// there is no standing pat, so every evasion is tried.
func (s *Searcher) quiescence(ctx context.Context, ply, α, β int) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	s.qnodes.Add(1)
	pos := s.pos
	if ply >= MaxPly {
		return s.evaluate(), nil
	}

	var moves []move.Move
	best := -Infinity
	if pos.IsInCheck() {
		moves = pos.GenerateLegalMoves()
		if len(moves) == 0 {
			return -MateScore + ply, nil
		}
	} else {
		standPat := s.evaluate()
		if standPat >= β {
			return β, nil
		}
		α = max(α, standPat)
		best = standPat
		moves = pos.GenerateCaptures()
		orderCaptures(pos, moves)
	}

	for _, m := range moves {
		s.makeMove(m)
		value, err := s.quiescence(ctx, ply+1, -β, -α)
		pos.UnmakeMove()
		if err != nil {
			return 0, err
		}
		value = -value
		if value > best {
			best = value
		}
		α = max(α, best)
		if α >= β {
			break
		}
	}
	return best, nil
}
