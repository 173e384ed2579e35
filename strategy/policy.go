package strategy

import (
	"fmt"

	"github.com/theHamdiz/kishmat/eval"
	"github.com/theHamdiz/kishmat/search"
)

type policy struct {
	search search.Variant
	eval   eval.Variant
}

var policies = [numCategories]policy{
	Open:       {search.IterativeDeepening, eval.General},
	SemiOpen:   {search.IterativeDeepening, eval.General},
	Closed:     {search.LateMoveReductions, eval.General},
	SemiClosed: {search.LateMoveReductions, eval.General},
	Endgame:    {search.Negamax, eval.Endgame},
	Complex:    {search.IterativeDeepening, eval.Complex},
	Trivial:    {search.Negamax, eval.General},
}

func policyFor(c Category) policy {
	if c >= numCategories {
		panic(fmt.Sprintf("strategy: no policy for %v", c))
	}
	return policies[c]
}

// PickSearch returns the search variant for c. It panics if c is not a
// known category.
func PickSearch(c Category) search.Variant {
	return policyFor(c).search
}

// PickEval returns the evaluation variant for c. It panics if c is not a
// known category.
func PickEval(c Category) eval.Variant {
	return policyFor(c).eval
}
