// Package engine is kishmat's boundary API. It ties the board, evaluator,
// search, strategy and opening book together behind a small set of calls.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/book"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/eval"
	"github.com/theHamdiz/kishmat/move"
	"github.com/theHamdiz/kishmat/search"
	"github.com/theHamdiz/kishmat/strategy"
)

// ErrNoLegalMove is returned when the side to search for has no moves.
var ErrNoLegalMove = search.ErrNoLegalMove

type Source uint8

const (
	SourceSearch Source = iota
	SourceBook
)

func (s Source) String() string {
	if s == SourceBook {
		return "book"
	}
	return "search"
}

// Analysis is what Analyze found.
type Analysis struct {
	Move     move.Move
	Score    int
	Category strategy.Category
	Search   search.Variant
	Eval     eval.Variant
	PV       search.PVLine
	Depth    int
	Nodes    uint64
	Source   Source
	Elapsed  time.Duration
}

// Engine owns a searcher and its transposition table. It is not safe for
// concurrent use.
type Engine struct {
	cfg      *config.Config
	searcher *search.Searcher
	book     *book.Book
	useBook  bool
	depth    int
}

type options struct {
	ttMegabytes int
}

type Option func(*options)

// WithTTMegabytes overrides the configured table size. Batch workers use it
// to split one memory budget between several engines.
func WithTTMegabytes(mb int) Option {
	return func(o *options) { o.ttMegabytes = mb }
}

// New builds an engine from cfg: table size, pruning switches, default
// depth and the opening book.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	tt := &search.TranspositionTable{}
	switch frac := cfg.GetFloat64(config.ConfigTTMemoryFraction); {
	case o.ttMegabytes > 0:
		tt.Reset(o.ttMegabytes)
	case frac > 0:
		tt.ResetFraction(frac)
	default:
		tt.Reset(cfg.GetInt(config.ConfigTTMegabytes))
	}
	e := &Engine{
		cfg:      cfg,
		searcher: search.NewSearcher(tt),
		useBook:  cfg.GetBool(config.ConfigUseBook),
		depth:    cfg.GetInt(config.ConfigSearchDepth),
	}
	e.ApplyConfig()
	if path := cfg.GetString(config.ConfigBookPath); path != "" {
		b, err := book.LoadFile(cfg, path)
		if err != nil {
			return nil, err
		}
		e.book = b
	}
	return e, nil
}

// ApplyConfig re-reads the pruning switches and defaults from the config,
// for use after a setting changed.
func (e *Engine) ApplyConfig() {
	e.searcher.SetTranspositionTableOptim(e.cfg.GetBool(config.ConfigTranspositionTable))
	e.searcher.SetNullMoveOptim(e.cfg.GetBool(config.ConfigNullMove))
	e.searcher.SetLMROptim(e.cfg.GetBool(config.ConfigLMR))
	e.searcher.SetQuiescenceOptim(e.cfg.GetBool(config.ConfigQuiescence))
	e.useBook = e.cfg.GetBool(config.ConfigUseBook)
	e.depth = e.cfg.GetInt(config.ConfigSearchDepth)
}

func (e *Engine) Searcher() *search.Searcher { return e.searcher }
func (e *Engine) Book() *book.Book           { return e.book }
func (e *Engine) SetBook(b *book.Book)       { e.book = b }
func (e *Engine) DefaultDepth() int          { return e.depth }

// NewGame forgets everything learned in earlier searches.
func (e *Engine) NewGame() {
	if tt := e.searcher.TranspositionTable(); tt != nil {
		tt.Clear()
	}
}

// forMover returns pos itself when mover is on move, otherwise a copy with
// the turn handed to mover. A copy whose side not on move stands in check
// cannot be searched.
func forMover(pos *board.Position, mover board.Color) (*board.Position, error) {
	if pos.SideToMove() == mover {
		return pos, nil
	}
	p := pos.Copy()
	p.SetSideToMove(mover)
	if p.IsSquareAttacked(p.KingSquare(mover.Other()), mover) {
		return nil, fmt.Errorf("%w: %v cannot move while the %v king is in check",
			board.ErrInvalidPositionEncoding, mover, mover.Other())
	}
	return p, nil
}

func (e *Engine) resolveDepth(depth int) int {
	if depth <= 0 {
		return e.depth
	}
	return depth
}

// SearchBestMove finds mover's best move in pos with a general-purpose
// iterative-deepening search. pos is not changed.
func (e *Engine) SearchBestMove(ctx context.Context, pos *board.Position, depth int, mover board.Color) (move.Move, error) {
	p, err := forMover(pos, mover)
	if err != nil {
		return move.Null, err
	}
	e.searcher.SetEvaluator(eval.For(eval.General))
	res, err := e.searcher.Search(ctx, p, e.resolveDepth(depth), search.IterativeDeepening)
	if err != nil {
		return move.Null, err
	}
	return res.Move, nil
}

// EvaluatePosition is the static score of pos from mover's point of view.
func (e *Engine) EvaluatePosition(pos *board.Position, mover board.Color) int {
	return eval.EvaluateFor(pos, mover)
}

// Hash is the Zobrist key of pos.
func Hash(pos *board.Position) uint64 {
	return pos.Key()
}

// BookMove returns the book's choice for pos if it has one that is legal
// there.
func (e *Engine) BookMove(pos *board.Position) (book.Entry, bool) {
	if e.book == nil || !e.useBook {
		return book.Entry{}, false
	}
	entry, ok := e.book.GetMove(pos.Key())
	if !ok {
		return book.Entry{}, false
	}
	if !pos.IsLegal(entry.Move()) {
		log.Warn().Str("fen", pos.FEN()).Str("move", entry.Move().String()).Msg("illegal-book-move")
		return book.Entry{}, false
	}
	return entry, true
}

// Analyze plays from the book when it can. Otherwise it classifies pos and
// searches it with the variants the strategy table picks for its category.
func (e *Engine) Analyze(ctx context.Context, pos *board.Position, depth int) (Analysis, error) {
	cat := strategy.Classify(pos)
	a := Analysis{
		Category: cat,
		Search:   strategy.PickSearch(cat),
		Eval:     strategy.PickEval(cat),
	}
	if pos.IsGameOver() {
		return a, ErrNoLegalMove
	}
	if entry, ok := e.BookMove(pos); ok {
		a.Move = entry.Move()
		a.Source = SourceBook
		a.PV = search.PVLine{Moves: []move.Move{a.Move}}
		a.Score = e.EvaluatePosition(pos, pos.SideToMove())
		log.Debug().Str("annotation", entry.Annotation()).Msg("book-hit")
		return a, nil
	}

	e.searcher.SetEvaluator(eval.For(a.Eval))
	res, err := e.searcher.Search(ctx, pos, e.resolveDepth(depth), a.Search)
	a.Move = res.Move
	a.Score = res.Score
	a.PV = res.PV
	a.Depth = res.Depth
	a.Nodes = res.Nodes + res.QNodes
	a.Elapsed = res.Elapsed
	log.Debug().Str("category", cat.String()).Str("search", a.Search.String()).
		Str("eval", a.Eval.String()).Str("move", a.Move.String()).Msg("analyzed")
	return a, err
}
