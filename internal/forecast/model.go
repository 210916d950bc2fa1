package forecast

import (
	"math"
)

// Model names reported on a fitted series.
const (
	ModelHolt        = "holt"
	ModelHoltWinters = "holt_winters_add"
)

// zScore95 widens the residual standard deviation into the 95% interval.
const zScore95 = 1.96

type smoothing struct {
	alpha float64
	beta  float64
	gamma float64
}

func (s smoothing) clamped() smoothing {
	if s.alpha <= 0 || s.alpha > 1 {
		s.alpha = 0.3
	}
	if s.beta <= 0 || s.beta > 1 {
		s.beta = 0.1
	}
	if s.gamma <= 0 || s.gamma > 1 {
		s.gamma = 0.1
	}
	return s
}

// fitResult carries the projection plus the in-sample fitted values used
// to size the prediction interval.
type fitResult struct {
	model    string
	forecast []float64
	fitted   []float64
}

// holt fits a damped-free additive trend model. Level seeds from the
// first observation, trend from the first difference.
func holt(train []float64, h int, s smoothing) fitResult {
	s = s.clamped()
	level := train[0]
	trend := 0.0
	if len(train) >= 2 {
		trend = train[1] - train[0]
	}

	fitted := make([]float64, len(train))
	fitted[0] = level
	for i := 1; i < len(train); i++ {
		fitted[i] = level + trend
		prevLevel := level
		level = s.alpha*train[i] + (1-s.alpha)*(level+trend)
		trend = s.beta*(level-prevLevel) + (1-s.beta)*trend
	}

	out := make([]float64, h)
	for i := 1; i <= h; i++ {
		out[i-1] = level + float64(i)*trend
	}
	return fitResult{model: ModelHolt, forecast: out, fitted: fitted}
}

// holtWintersAdd fits additive trend plus additive seasonality with
// period p. The caller guarantees len(train) >= 2*p.
func holtWintersAdd(train []float64, h, p int, s smoothing) fitResult {
	s = s.clamped()

	level := meanOf(train[:p])
	trend := (meanOf(train[p:2*p]) - meanOf(train[:p])) / float64(p)
	season := make([]float64, p)
	for i := 0; i < p; i++ {
		season[i] = train[i] - level
	}

	fitted := make([]float64, len(train))
	for i := 0; i < len(train); i++ {
		si := i % p
		fitted[i] = level + trend + season[si]
		prevLevel := level
		prevSeason := season[si]
		level = s.alpha*(train[i]-prevSeason) + (1-s.alpha)*(level+trend)
		trend = s.beta*(level-prevLevel) + (1-s.beta)*trend
		season[si] = s.gamma*(train[i]-level) + (1-s.gamma)*prevSeason
	}

	out := make([]float64, h)
	for i := 1; i <= h; i++ {
		si := (len(train) + i - 1) % p
		out[i-1] = level + float64(i)*trend + season[si]
	}
	return fitResult{model: ModelHoltWinters, forecast: out, fitted: fitted}
}

// residualStd is the standard deviation of the one-step in-sample
// residuals, used as the interval half-width before the z-score scaling.
func residualStd(train, fitted []float64) float64 {
	n := len(train)
	if len(fitted) < n {
		n = len(fitted)
	}
	if n == 0 {
		return 0
	}
	var ss float64
	for i := 0; i < n; i++ {
		d := train[i] - fitted[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}
