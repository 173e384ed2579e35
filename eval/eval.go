// Package eval scores chess positions statically.
package eval

import (
	"fmt"

	"github.com/theHamdiz/kishmat/board"
)

// Term is one independently computed part of the evaluation. Score returns
// the term for one side only; the evaluator takes white minus black.
type Term interface {
	Name() string
	Score(p *board.Position, c board.Color) int
}

// Variant selects which set of terms an Evaluator uses.
type Variant uint8

const (
	General Variant = iota
	Endgame
	Complex

	numVariants
)

func (v Variant) String() string {
	switch v {
	case General:
		return "general"
	case Endgame:
		return "endgame"
	case Complex:
		return "complex"
	}
	return fmt.Sprintf("variant(%d)", v)
}

func ParseVariant(s string) (Variant, error) {
	for v := General; v < numVariants; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown evaluation variant %q", s)
}

type Evaluator struct {
	variant Variant
	terms   []Term
}

var evaluators [numVariants]*Evaluator

func init() {
	evaluators[General] = &Evaluator{General, []Term{
		Material{}, PieceSquare{MinorWeight: 1}, KingSafety{Table: &kingShelterTable}, PawnStructure{},
	}}
	evaluators[Endgame] = &Evaluator{Endgame, []Term{
		Material{}, PieceSquare{MinorWeight: 1}, KingSafety{Table: &kingActiveTable}, PawnStructure{},
	}}
	evaluators[Complex] = &Evaluator{Complex, []Term{
		Material{}, PieceSquare{MinorWeight: 2}, KingSafety{Table: &kingShelterTable}, PawnStructure{},
	}}
}

// For returns the shared evaluator for a variant.
func For(v Variant) *Evaluator {
	if v >= numVariants {
		panic(fmt.Sprintf("eval: unknown variant %d", v))
	}
	return evaluators[v]
}

func (e *Evaluator) Variant() Variant { return e.variant }

// Evaluate scores p from White's point of view.
func (e *Evaluator) Evaluate(p *board.Position) int {
	s := 0
	for _, t := range e.terms {
		s += t.Score(p, board.White) - t.Score(p, board.Black)
	}
	return s
}

// EvaluateFor scores p from mover's point of view. Negating for Black keeps
// EvaluateFor(p, White) == -EvaluateFor(p, Black) exact.
func (e *Evaluator) EvaluateFor(p *board.Position, mover board.Color) int {
	s := e.Evaluate(p)
	if mover == board.Black {
		return -s
	}
	return s
}

// Evaluate uses the general evaluator.
func Evaluate(p *board.Position) int {
	return evaluators[General].Evaluate(p)
}

func EvaluateFor(p *board.Position, mover board.Color) int {
	return evaluators[General].EvaluateFor(p, mover)
}

type TermScore struct {
	Name  string
	White int
	Black int
}

// Breakdown lists every term for both sides, for display.
func (e *Evaluator) Breakdown(p *board.Position) []TermScore {
	out := make([]TermScore, len(e.terms))
	for i, t := range e.terms {
		out[i] = TermScore{t.Name(), t.Score(p, board.White), t.Score(p, board.Black)}
	}
	return out
}
