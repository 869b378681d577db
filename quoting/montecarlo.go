package quoting

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// MonteCarloOptions tunes MonteCarloPrice. NPaths is the total number of
// simulated terminal draws (with UseAntithetic, each worker's share is
// rounded up to an even count, so PathsDrawn can exceed NPaths);
// NWorkers == 0 uses GOMAXPROCS worker goroutines; UseAntithetic pairs
// each draw with its mirror image to cut estimator variance.
type MonteCarloOptions struct {
	NPaths        int
	NWorkers      int
	Seed          int64
	UseAntithetic bool
}

// MonteCarloResult is a terminal-payoff Monte Carlo estimate: a
// discounted price plus its standard error over the paths actually drawn.
type MonteCarloResult struct {
	Price      float64
	StdError   float64
	PathsDrawn int
}

// MonteCarloPrice estimates a European option's discounted price by
// simulating terminal GBM draws in parallel and averaging the payoff,
// as an independent cross-check against the closed-form Price. It is
// not used on the order-submission path — only as an optional
// verification helper.
func MonteCarloPrice(in Inputs, isCall bool, opts MonteCarloOptions) MonteCarloResult {
	nPaths := opts.NPaths
	if nPaths <= 0 {
		nPaths = 100000
	}
	nWorkers := opts.NWorkers
	if nWorkers <= 0 {
		nWorkers = runtime.GOMAXPROCS(0)
	}
	if nWorkers > nPaths {
		nWorkers = nPaths
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}

	counts := make([]int, nWorkers)
	base := nPaths / nWorkers
	for i := range counts {
		counts[i] = base
	}
	for i := 0; i < nPaths%nWorkers; i++ {
		counts[i]++
	}
	if opts.UseAntithetic {
		for i, c := range counts {
			if c%2 != 0 {
				counts[i]++
			}
		}
	}

	drift := (in.R - 0.5*in.Sigma*in.Sigma) * in.T
	vol := in.Sigma * math.Sqrt(in.T)
	discount := math.Exp(-in.R * in.T)

	type acc struct {
		sumY, sumY2 float64
		n           int
	}
	results := make([]acc, nWorkers)

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(uint64(w)*0x9e3779b97f4a7c15)))
			var local acc
			n := counts[w]
			i := 0
			if opts.UseAntithetic {
				for ; i+1 < n; i += 2 {
					z := rng.NormFloat64()
					st1 := in.S * math.Exp(drift+vol*z)
					st2 := in.S * math.Exp(drift+vol*(-z))
					y1 := payoff(st1, in.K, isCall)
					y2 := payoff(st2, in.K, isCall)
					local.sumY += y1 + y2
					local.sumY2 += y1*y1 + y2*y2
					local.n += 2
				}
			}
			for ; i < n; i++ {
				z := rng.NormFloat64()
				st := in.S * math.Exp(drift+vol*z)
				y := payoff(st, in.K, isCall)
				local.sumY += y
				local.sumY2 += y * y
				local.n++
			}
			results[w] = local
		}(w)
	}
	wg.Wait()

	var sumY, sumY2 float64
	var n int
	for _, r := range results {
		sumY += r.sumY
		sumY2 += r.sumY2
		n += r.n
	}
	if n == 0 {
		return MonteCarloResult{}
	}

	mean := sumY / float64(n)
	variance := sumY2/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stderr := math.Sqrt(variance / float64(n))

	return MonteCarloResult{
		Price:      discount * mean,
		StdError:   discount * stderr,
		PathsDrawn: n,
	}
}

func payoff(st, k float64, isCall bool) float64 {
	if isCall {
		return math.Max(0, st-k)
	}
	return math.Max(0, k-st)
}
