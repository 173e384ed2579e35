package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/move"
)

type DivideEntry struct {
	Move  move.Move
	Nodes uint64
}

// Divide runs perft below every root move, one goroutine per move up to
// threads at a time, each on its own copy of pos.
func Divide(ctx context.Context, pos *board.Position, depth, threads int) ([]DivideEntry, uint64, error) {
	if depth < 1 {
		return nil, 1, nil
	}
	moves := pos.GenerateLegalMoves()
	out := make([]DivideEntry, len(moves))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(threads, 1))
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := pos.Copy()
			if err := p.MakeMove(m); err != nil {
				return err
			}
			out[i] = DivideEntry{Move: m, Nodes: p.Perft(depth - 1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Move.String() < out[j].Move.String() })
	var total uint64
	for _, e := range out {
		total += e.Nodes
	}
	return out, total, nil
}
