package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/stats"
)

const defaultBenchDepth = 4

var benchPositions = []struct {
	name string
	fen  string
}{
	{"start", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"},
	{"pos3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"},
	{"pos4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"},
	{"italian", "r1bqk1nr/pppp1ppp/2n5/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4"},
}

// bench searches a fixed suite and reports nodes per second.
func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	depth, err := cmd.options.IntDefault("depth", defaultBenchDepth)
	if err != nil {
		return nil, err
	}
	if len(cmd.args) > 0 {
		if depth, err = sc.searchDepth(cmd); err != nil {
			return nil, err
		}
	}
	sc.engine.ApplyConfig()
	ctx, done := sc.searchContext()
	defer done()

	var sb strings.Builder
	var nps []float64
	var total uint64
	for _, bp := range benchPositions {
		pos, err := board.FromFEN(bp.fen)
		if err != nil {
			return nil, err
		}
		sc.engine.NewGame()
		start := time.Now()
		a, err := sc.engine.Analyze(ctx, pos, depth)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", bp.name, err)
		}
		elapsed := time.Since(start)
		total += a.Nodes
		rate := float64(a.Nodes) / max(elapsed.Seconds(), 1e-6)
		nps = append(nps, rate)
		fmt.Fprintf(&sb, "%-10s %-8s %10d nodes %8v %10.0f nps\n", bp.name,
			pos.SAN(a.Move), a.Nodes, elapsed.Round(time.Millisecond), rate)
	}
	s := stats.Summarize(nps)
	lo, hi := s.ConfidenceInterval(95)
	fmt.Fprintf(&sb, "depth %d, %d nodes total\nnps mean %.0f (95%% ci %.0f to %.0f), median %.0f",
		depth, total, s.Mean, lo, hi, s.Median)
	return msg(sb.String()), nil
}
