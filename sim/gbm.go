// Package sim generates synthetic market flow for the matching engine:
// GBM provides geometric Brownian motion sampling helpers, and
// MarketSimulator steps its own mean-reverting log-price process and
// sends resting and crossing orders to a matchserver.Feed, the way a
// market-data replay or load generator would in front of the real engine.
package sim

import (
	"math"
	"math/rand"
)

// GBM samples a geometric Brownian motion process: dS = mu*S*dt +
// sigma*S*dW, discretized via log-Euler so S stays strictly positive.
type GBM struct {
	s0, mu, sigma float64
	rng           *rand.Rand
}

// NewGBM constructs a GBM process seeded with seed (0 is replaced by 1,
// so every seed gives a reproducible sequence).
func NewGBM(s0, mu, sigma float64, seed int64) *GBM {
	if seed == 0 {
		seed = 1
	}
	return &GBM{s0: s0, mu: mu, sigma: sigma, rng: rand.New(rand.NewSource(seed))}
}

// SampleTerminal draws a single terminal price S_T for maturity T years.
func (g *GBM) SampleTerminal(t float64) float64 {
	z := g.rng.NormFloat64()
	drift := (g.mu - 0.5*g.sigma*g.sigma) * t
	vol := g.sigma * math.Sqrt(t)
	return g.s0 * math.Exp(drift+vol*z)
}

// SamplePath draws a single path of nSteps steps over [0, T]. nSteps ==
// 0 returns just the starting price — this is the comparison the
// original source code lost to a stray assignment; it is restored here.
func (g *GBM) SamplePath(t float64, nSteps int) []float64 {
	path := make([]float64, 0, nSteps+1)
	path = append(path, g.s0)
	if nSteps == 0 {
		return path
	}

	dt := t / float64(nSteps)
	driftDt := (g.mu - 0.5*g.sigma*g.sigma) * dt
	volSqrtDt := g.sigma * math.Sqrt(dt)

	s := g.s0
	for i := 0; i < nSteps; i++ {
		z := g.rng.NormFloat64()
		s = s * math.Exp(driftDt+volSqrtDt*z)
		path = append(path, s)
	}
	return path
}

// SampleTerminalBatch draws nPaths independent terminal prices for
// maturity T, useful as Monte Carlo input.
func (g *GBM) SampleTerminalBatch(nPaths int, t float64) []float64 {
	out := make([]float64, nPaths)
	drift := (g.mu - 0.5*g.sigma*g.sigma) * t
	vol := g.sigma * math.Sqrt(t)
	for i := 0; i < nPaths; i++ {
		z := g.rng.NormFloat64()
		out[i] = g.s0 * math.Exp(drift+vol*z)
	}
	return out
}
