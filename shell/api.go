package shell

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/book"
	"github.com/theHamdiz/kishmat/engine"
	"github.com/theHamdiz/kishmat/eval"
	"github.com/theHamdiz/kishmat/move"
	"github.com/theHamdiz/kishmat/search"
	"github.com/theHamdiz/kishmat/strategy"
)

const histogramClamp = 2000

func (sc *ShellController) moveText(pos *board.Position, m move.Move) string {
	if sc.options.san {
		return pos.SAN(m)
	}
	return m.String()
}

func status(p *board.Position) string {
	switch {
	case p.IsCheckmate():
		return "checkmate"
	case p.IsStalemate():
		return "stalemate"
	case p.IsInCheck():
		return "check"
	}
	return ""
}

func scoreText(score int) string {
	if n := search.MateIn(score); n != 0 {
		return fmt.Sprintf("mate in %d", n)
	}
	return fmt.Sprintf("%+d cp", score)
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	sb.WriteString(sc.pos.String())
	fmt.Fprintf(&sb, "FEN: %s\n", sc.pos.FEN())
	fmt.Fprintf(&sb, "%v to move", sc.pos.SideToMove())
	if s := status(sc.pos); s != "" {
		fmt.Fprintf(&sb, " (%s)", s)
	}
	if m := sc.pos.LastMove(); !m.IsNull() {
		fmt.Fprintf(&sb, "; last move %v", m)
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.pos = board.StartingPosition()
	sc.engine.NewGame()
	return sc.show(cmd)
}

func (sc *ShellController) fen(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.pos.FEN()), nil
	}
	p, err := board.FromFEN(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	sc.pos = p
	return sc.show(cmd)
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: moves <SAN move text from the start position>")
	}
	p, err := board.FromMoveText(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	sc.pos = p
	return sc.show(cmd)
}

// parseAnyMove accepts coordinate notation first, then SAN.
func parseAnyMove(p *board.Position, tok string) (move.Move, error) {
	if m, err := p.ParseUCIMove(tok); err == nil {
		return m, nil
	}
	return p.ParseSAN(tok)
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <move> [move ...]")
	}
	p := sc.pos.Copy()
	for _, tok := range cmd.args {
		m, err := parseAnyMove(p, tok)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", tok, err)
		}
		if err := p.MakeMove(m); err != nil {
			return nil, err
		}
	}
	sc.pos = p
	return sc.show(cmd)
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil || n < 1 {
			return nil, errors.New("usage: undo [plies]")
		}
	}
	if sc.pos.Ply() < n {
		return nil, fmt.Errorf("only %d plies to undo", sc.pos.Ply())
	}
	for range n {
		sc.pos.UnmakeMove()
	}
	return sc.show(cmd)
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	v := eval.General
	if name := cmd.options.String("variant"); name != "" {
		var err error
		if v, err = eval.ParseVariant(name); err != nil {
			return nil, err
		}
	}
	e := eval.For(v)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s%8s%8s%8s\n", "term", "white", "black", "net")
	for _, ts := range e.Breakdown(sc.pos) {
		fmt.Fprintf(&sb, "%-16s%8d%8d%8d\n", ts.Name, ts.White, ts.Black, ts.White-ts.Black)
	}
	fmt.Fprintf(&sb, "%v evaluation: %d for white, %d for the side to move",
		v, e.Evaluate(sc.pos), e.EvaluateFor(sc.pos, sc.pos.SideToMove()))
	return msg(sb.String()), nil
}

func (sc *ShellController) searchDepth(cmd *shellcmd) (int, error) {
	depth := sc.engine.DefaultDepth()
	if len(cmd.args) > 0 {
		d, err := strconv.Atoi(cmd.args[0])
		if err != nil || d < 1 || d > search.MaxDepth {
			return 0, fmt.Errorf("depth must be between 1 and %d", search.MaxDepth)
		}
		depth = d
	}
	return depth, nil
}

func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	depth, err := sc.searchDepth(cmd)
	if err != nil {
		return nil, err
	}
	variantName := sc.options.variant
	if v := cmd.options.String("variant"); v != "" {
		variantName = v
	}
	variant, auto, err := parseVariant(variantName)
	if err != nil {
		return nil, err
	}
	sc.engine.ApplyConfig()
	ctx, done := sc.searchContext()
	defer done()

	var trace strings.Builder
	if cmd.options.Bool("verbose") {
		s := sc.engine.Searcher()
		s.SetLogStream(&trace)
		defer s.SetLogStream(nil)
	}

	pos := sc.pos.Copy()
	var a engine.Analysis
	if auto {
		a, err = sc.engine.Analyze(ctx, pos, depth)
	} else {
		ev := eval.General
		if name := cmd.options.String("eval"); name != "" {
			if ev, err = eval.ParseVariant(name); err != nil {
				return nil, err
			}
		}
		s := sc.engine.Searcher()
		s.SetEvaluator(eval.For(ev))
		var res search.Result
		res, err = s.Search(ctx, pos, depth, variant)
		a = engine.Analysis{
			Move: res.Move, Score: res.Score, PV: res.PV, Depth: res.Depth,
			Nodes: res.Nodes + res.QNodes, Elapsed: res.Elapsed,
			Category: strategy.Classify(pos), Search: variant, Eval: ev,
		}
	}
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "best move: %s (%v)\n", sc.pos.SAN(a.Move), a.Move)
	if a.Source == engine.SourceBook {
		fmt.Fprintf(&sb, "from the opening book\n")
	} else {
		nps := 0.0
		if secs := a.Elapsed.Seconds(); secs > 0 {
			nps = float64(a.Nodes) / secs
		}
		fmt.Fprintf(&sb, "score: %s\n", scoreText(a.Score))
		fmt.Fprintf(&sb, "depth %d, %d nodes in %v (%.0f nps)\n", a.Depth, a.Nodes,
			a.Elapsed.Round(time.Millisecond), nps)
	}
	fmt.Fprintf(&sb, "category: %v (search %v, eval %v)\n", a.Category, a.Search, a.Eval)
	fmt.Fprintf(&sb, "pv: %s", a.PV.SANString(sc.pos))
	if trace.Len() > 0 {
		sb.WriteString("\nsearch trace:\n" + strings.TrimRight(trace.String(), "\n"))
	}

	if cmd.options.Bool("histogram") {
		scores, err := sc.rootScores(depth, variant, auto)
		if err != nil {
			return nil, err
		}
		sb.WriteString("\nroot move scores:\n")
		if err := histogram.Fprint(&sb, histogram.Hist(10, scores), histogram.Linear(40)); err != nil {
			return nil, err
		}
	}
	if cmd.options.Bool("play") {
		if err := sc.pos.MakeMove(a.Move); err != nil {
			return nil, err
		}
		sb.WriteString("\n" + sc.pos.String())
	}
	return msg(sb.String()), nil
}

// rootScores searches every root move one ply shallower and returns the
// scores from the side to move's view, clamped so mates do not flatten the
// plot.
func (sc *ShellController) rootScores(depth int, variant search.Variant, auto bool) ([]float64, error) {
	ctx, done := sc.searchContext()
	defer done()
	if auto {
		variant = strategy.PickSearch(strategy.Classify(sc.pos))
	}
	s := sc.engine.Searcher()
	var scores []float64
	for _, m := range sc.pos.GenerateLegalMoves() {
		p := sc.pos.Copy()
		if err := p.MakeMove(m); err != nil {
			return nil, err
		}
		var score int
		switch {
		case p.IsCheckmate():
			score = search.MateScore - 1
		case p.IsStalemate():
			score = search.DrawScore
		case depth <= 1:
			score = -s.Evaluator().EvaluateFor(p, p.SideToMove())
		default:
			res, err := s.Search(ctx, p, depth-1, variant)
			if err != nil {
				return nil, err
			}
			score = -res.Score
		}
		scores = append(scores, float64(max(-histogramClamp, min(score, histogramClamp))))
	}
	return scores, nil
}

func (sc *ShellController) classify(cmd *shellcmd) (*Response, error) {
	f := strategy.Measure(sc.pos)
	c := f.Category()
	return msg(fmt.Sprintf(
		"category: %v\nmaterial %d, pawns %d, pieces %d, mobility %d, complexity %d, endgame %v\nsearch %v, eval %v",
		c, f.Material, f.Pawns, f.Pieces, f.Mobility, f.Complexity(), f.Endgame,
		strategy.PickSearch(c), strategy.PickEval(c))), nil
}

func (sc *ShellController) book(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) >= 2 && cmd.args[0] == "load" {
		b, err := book.LoadFile(sc.config, cmd.args[1])
		if err != nil {
			return nil, err
		}
		sc.engine.SetBook(b)
		return msg(fmt.Sprintf("loaded %d book entries", b.Len())), nil
	}
	b := sc.engine.Book()
	if b == nil {
		return nil, errors.New("no book loaded; use `book load <path>`")
	}
	entries := b.Entries(sc.pos.Key())
	if len(entries) == 0 {
		return msg("no book entries for this position"), nil
	}
	lines := lo.Map(entries, func(e book.Entry, _ int) string {
		legal := ""
		if !sc.pos.IsLegal(e.Move()) {
			legal = " (illegal here)"
		}
		return e.Annotation() + legal
	})
	return msg(strings.Join(lines, "\n")), nil
}

func (sc *ShellController) hash(cmd *shellcmd) (*Response, error) {
	key := engine.Hash(sc.pos)
	out := fmt.Sprintf("%016x", key)
	if key != sc.pos.RecomputeKey() {
		out += fmt.Sprintf(" (MISMATCH: recomputed %016x)", sc.pos.RecomputeKey())
	}
	return msg(out), nil
}

func perftDepth(cmd *shellcmd) (int, error) {
	if len(cmd.args) == 0 {
		return 0, errors.New("need a depth")
	}
	d, err := strconv.Atoi(cmd.args[0])
	if err != nil || d < 0 {
		return 0, errors.New("depth must be a non-negative number")
	}
	return d, nil
}

func (sc *ShellController) perft(cmd *shellcmd) (*Response, error) {
	d, err := perftDepth(cmd)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	n := sc.pos.Perft(d)
	elapsed := time.Since(start)
	return msg(fmt.Sprintf("perft(%d) = %d in %v", d, n, elapsed.Round(time.Millisecond))), nil
}

func (sc *ShellController) divide(cmd *shellcmd) (*Response, error) {
	d, err := perftDepth(cmd)
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	ctx, done := sc.searchContext()
	defer done()
	entries, total, err := search.Divide(ctx, sc.pos, d, threads)
	if err != nil {
		return nil, err
	}
	lines := lo.Map(entries, func(e search.DivideEntry, _ int) string {
		return fmt.Sprintf("%v: %d", e.Move, e.Nodes)
	})
	slices.Sort(lines)
	lines = append(lines, fmt.Sprintf("total: %d", total))
	return msg(strings.Join(lines, "\n")), nil
}

func (sc *ShellController) legal(cmd *shellcmd) (*Response, error) {
	moves := sc.pos.GenerateLegalMoves()
	texts := lo.Map(moves, func(m move.Move, _ int) string { return sc.moveText(sc.pos, m) })
	slices.Sort(texts)
	return msg(fmt.Sprintf("%d legal moves: %s", len(texts), strings.Join(texts, " "))), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.options.ToDisplayText()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		_, val := sc.options.Show(opt)
		return msg(val), nil
	}
	ret, err := sc.options.Set(opt, cmd.args[1])
	if err != nil {
		return nil, err
	}
	sc.engine.ApplyConfig()
	return msg("set " + opt + " to " + ret), nil
}

// setting reads or writes raw config keys. Writing also saves the config
// file when one is in use.
func (sc *ShellController) setting(cmd *shellcmd) (*Response, error) {
	switch len(cmd.args) {
	case 0:
		all := sc.config.SanitizedSettings()
		keys := lo.Keys(all)
		slices.Sort(keys)
		lines := lo.Map(keys, func(k string, _ int) string { return fmt.Sprintf("%s: %v", k, all[k]) })
		return msg(strings.Join(lines, "\n")), nil
	case 1:
		return msg(fmt.Sprintf("%v", sc.config.Get(cmd.args[0]))), nil
	}
	key, value := cmd.args[0], cmd.args[1]
	sc.config.Set(key, value)
	sc.engine.ApplyConfig()
	if err := sc.config.Write(); err != nil {
		return msg(fmt.Sprintf("set %s to %s for this session (not saved: %v)", key, value, err)), nil
	}
	return msg(fmt.Sprintf("set config %s to %s and saved to file", key, value)), nil
}
