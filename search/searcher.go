// Package search finds the best move in a position with a depth-bounded
// negamax search and its pruning variants.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/eval"
	"github.com/theHamdiz/kishmat/move"
)

const (
	MateScore     = 30000
	MaxPly        = 128
	MateThreshold = MateScore - MaxPly
	Infinity      = 32000
	DrawScore     = 0
	MaxDepth      = 64

	NullMoveReduction = 2
	LMRFullDepthMoves = 4
	LMRMinDepth       = 3
)

var ErrNoLegalMove = errors.New("no legal move")

// Variant is a search algorithm the strategy layer can pick.
type Variant uint8

const (
	IterativeDeepening Variant = iota
	LateMoveReductions
	Negamax

	numVariants
)

func (v Variant) String() string {
	switch v {
	case IterativeDeepening:
		return "iterative-deepening"
	case LateMoveReductions:
		return "late-move-reductions"
	case Negamax:
		return "negamax"
	}
	return fmt.Sprintf("variant(%d)", v)
}

type Searcher struct {
	pos       *board.Position
	evaluator *eval.Evaluator
	ttable    *TranspositionTable
	debugTT   *DebugTranspositionTable

	transpositionTableOptim bool
	quiescenceOptim         bool
	nullMoveOptim           bool
	lmrOptim                bool
	iterativeDeepeningOptim bool

	principalVariation PVLine
	bestPVValue        int
	completedDepth     int

	nodes  atomic.Uint64
	qnodes atomic.Uint64

	logStream io.Writer
}

// NewSearcher returns a searcher with every optimisation on, using tt for
// its transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		evaluator:               eval.For(eval.General),
		ttable:                  tt,
		transpositionTableOptim: tt != nil,
		quiescenceOptim:         true,
		nullMoveOptim:           true,
		lmrOptim:                true,
		iterativeDeepeningOptim: true,
	}
}

type Result struct {
	Move    move.Move
	Score   int
	Depth   int
	Nodes   uint64
	QNodes  uint64
	PV      PVLine
	Elapsed time.Duration
	Variant Variant
}

// Search looks for the best move for the side to move in pos, searching
// max depth plies deep. pos is used as scratch space and is restored before
// Search returns.
func (s *Searcher) Search(ctx context.Context, pos *board.Position, depth int, variant Variant) (Result, error) {
	if len(pos.GenerateLegalMoves()) == 0 {
		return Result{}, ErrNoLegalMove
	}
	if variant >= numVariants {
		return Result{}, fmt.Errorf("unknown search variant %d", variant)
	}
	depth = clamp(depth, 1, MaxDepth)
	s.pos = pos
	defer func() { s.pos = nil }()

	saved := [...]bool{s.nullMoveOptim, s.lmrOptim, s.iterativeDeepeningOptim}
	defer func() {
		s.nullMoveOptim, s.lmrOptim, s.iterativeDeepeningOptim = saved[0], saved[1], saved[2]
	}()
	switch variant {
	case IterativeDeepening:
		s.iterativeDeepeningOptim = true
	case LateMoveReductions:
		s.lmrOptim = true
		s.iterativeDeepeningOptim = false
	case Negamax:
		s.nullMoveOptim = false
		s.lmrOptim = false
		s.iterativeDeepeningOptim = false
	}

	log.Debug().Int("depth", depth).Str("variant", variant.String()).
		Bool("tt", s.transpositionTableOptim).Bool("quiescence", s.quiescenceOptim).
		Bool("null-move", s.nullMoveOptim).Bool("lmr", s.lmrOptim).
		Msg("search-config")

	tstart := time.Now()
	s.nodes.Store(0)
	s.qnodes.Store(0)
	s.principalVariation.Clear()
	s.bestPVValue = 0
	s.completedDepth = 0
	if s.transpositionTableOptim {
		s.ttable.NewSearch()
	}

	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load() + s.qnodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		if s.iterativeDeepeningOptim {
			return s.iterativelyDeepen(ctx, depth)
		}
		return s.searchDepth(ctx, depth)
	})

	err := g.Wait()
	if err != nil && s.completedDepth == 0 && ctx.Err() != nil {
		// a stopped search still answers with its one-ply move.
		if ferr := s.searchDepth(context.WithoutCancel(ctx), 1); ferr != nil {
			log.Error().Err(ferr).Msg("fallback-search-failed")
		}
	}
	res := Result{
		Move:    s.principalVariation.GetPVMove(),
		Score:   s.bestPVValue,
		Depth:   s.completedDepth,
		Nodes:   s.nodes.Load(),
		QNodes:  s.qnodes.Load(),
		PV:      PVLine{Moves: append([]move.Move(nil), s.principalVariation.Moves...), score: s.bestPVValue},
		Elapsed: time.Since(tstart),
		Variant: variant,
	}
	ev := log.Info().
		Str("best", res.Move.String()).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Uint64("qnodes", res.QNodes).
		Float64("time-elapsed-sec", res.Elapsed.Seconds())
	if s.transpositionTableOptim {
		st := s.ttable.Stats()
		ev = ev.Uint64("ttable-created", st.Created).
			Uint64("ttable-lookups", st.Lookups).
			Uint64("ttable-hits", st.Hits).
			Uint64("ttable-t2collisions", st.T2Collisions)
	}
	ev.Msg("search-returning")

	// A cancelled search still reports the last completed iteration.
	return res, err
}

func (s *Searcher) iterativelyDeepen(ctx context.Context, plies int) error {
	for p := 1; p <= plies; p++ {
		log.Debug().Int("plies", p).Msg("deepening-iteratively")
		if err := s.searchDepth(ctx, p); err != nil {
			return err
		}
		log.Debug().Int("score", s.bestPVValue).Int("ply", p).
			Str("pv", s.principalVariation.String()).Msg("best-val")
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "depth %d score %d pv %s\n", p, s.bestPVValue, s.principalVariation.String())
		}
	}
	return nil
}

// searchDepth runs one full-window root search and records its line.
func (s *Searcher) searchDepth(ctx context.Context, depth int) error {
	pv := PVLine{}
	val, err := s.negamax(ctx, depth, 0, -Infinity, Infinity, &pv)
	if err != nil {
		return err
	}
	s.principalVariation = pv
	s.bestPVValue = val
	s.completedDepth = depth
	return nil
}

// Nodes is the number of main-search nodes visited by the last Search.
func (s *Searcher) Nodes() uint64 { return s.nodes.Load() }

func (s *Searcher) SetEvaluator(e *eval.Evaluator) {
	s.evaluator = e
}

func (s *Searcher) Evaluator() *eval.Evaluator { return s.evaluator }

func (s *Searcher) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt && s.ttable != nil
}

func (s *Searcher) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
	s.transpositionTableOptim = tt != nil
}

func (s *Searcher) TranspositionTable() *TranspositionTable { return s.ttable }

func (s *Searcher) SetQuiescenceOptim(q bool) {
	s.quiescenceOptim = q
}

func (s *Searcher) SetNullMoveOptim(n bool) {
	s.nullMoveOptim = n
}

func (s *Searcher) SetLMROptim(l bool) {
	s.lmrOptim = l
}

func (s *Searcher) SetIterativeDeepening(id bool) {
	s.iterativeDeepeningOptim = id
}

// SetDebugTable turns on FEN-keyed bookkeeping that cross-checks the
// Zobrist keys the search sees. Slow; for tests and debugging.
func (s *Searcher) SetDebugTable(d *DebugTranspositionTable) {
	s.debugTT = d
}

func (s *Searcher) SetLogStream(w io.Writer) {
	s.logStream = w
}
