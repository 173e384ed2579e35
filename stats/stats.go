// Package stats summarises samples such as nodes per second across bench
// runs or node counts across a batch.
package stats

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Summary describes a set of samples.
type Summary struct {
	N      int
	Mean   float64
	Stdev  float64
	Min    float64
	Max    float64
	Median float64
}

// Summarize computes a Summary. An empty sample gives the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	s := Summary{N: len(samples)}
	s.Mean, s.Stdev = stat.MeanStdDev(samples, nil)
	if len(samples) == 1 {
		s.Stdev = 0
	}
	s.Min = floats.Min(samples)
	s.Max = floats.Max(samples)
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// StandardError returns the standard error of the mean.
func (s Summary) StandardError() float64 {
	if s.N == 0 {
		return 0
	}
	return s.Stdev / math.Sqrt(float64(s.N))
}

var unitNormal = distuv.UnitNormal

// ZVal is the two-sided critical value of the unit normal for a confidence
// in percent, e.g. 1.96 for 95.
func ZVal(confidence float64) float64 {
	return unitNormal.Quantile(0.5 + confidence/200)
}

// ConfidenceInterval gives the bounds of the mean at the given confidence,
// in percent.
func (s Summary) ConfidenceInterval(confidence float64) (lo, hi float64) {
	half := ZVal(confidence) * s.StandardError()
	return s.Mean - half, s.Mean + half
}

func (s Summary) String() string {
	lo, hi := s.ConfidenceInterval(95)
	return fmt.Sprintf("n=%d mean=%.1f stdev=%.1f median=%.1f min=%.1f max=%.1f 95%%ci=[%.1f, %.1f]",
		s.N, s.Mean, s.Stdev, s.Median, s.Min, s.Max, lo, hi)
}
