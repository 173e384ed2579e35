package search

import "golang.org/x/exp/constraints"

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func clamp[T constraints.Ordered](x, lo, hi T) T {
	return max(lo, min(x, hi))
}

// IsMateScore reports whether score means a forced mate for either side.
func IsMateScore(score int) bool {
	return abs(score) >= MateThreshold
}

// MateIn converts a mate score into full moves, positive when the side to
// move mates. It returns 0 for ordinary scores.
func MateIn(score int) int {
	if !IsMateScore(score) {
		return 0
	}
	plies := MateScore - abs(score)
	moves := (plies + 1) / 2
	if score < 0 {
		return -moves
	}
	return moves
}

// scoreToTT makes mate scores relative to the node being stored so they
// stay right when the entry is found at another ply.
func scoreToTT(score, ply int) int {
	switch {
	case score >= MateThreshold:
		return score + ply
	case score <= -MateThreshold:
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	switch {
	case score >= MateThreshold:
		return score - ply
	case score <= -MateThreshold:
		return score + ply
	}
	return score
}
