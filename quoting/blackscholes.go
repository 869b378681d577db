// Package quoting implements a Black-Scholes-driven quoting bot: it
// consumes the matching engine's output feed like any other client and
// submits two-sided quotes around a theoretical fair value, skewed
// against its own filled inventory.
package quoting

import "math"

const invSqrt2Pi = 0.3989422804014327

// normPDF is the standard normal probability density function.
func normPDF(x float64) float64 {
	return invSqrt2Pi * math.Exp(-0.5*x*x)
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Inputs bundles the parameters a Black-Scholes closed form needs. r and
// sigma are annualized; T is time to expiry in years.
type Inputs struct {
	S     float64
	K     float64
	R     float64
	Sigma float64
	T     float64
}

func d1(in Inputs) float64 {
	return (math.Log(in.S/in.K) + (in.R+0.5*in.Sigma*in.Sigma)*in.T) / (in.Sigma * math.Sqrt(in.T))
}

func d2(in Inputs) float64 {
	return d1(in) - in.Sigma*math.Sqrt(in.T)
}

// Call prices a European call under Black-Scholes with no dividends. D2
// is computed in a single assignment here — the original source this is
// grounded on loses it to a self-assignment (`D2 = D2 = ...`) that
// silently discards the right-hand side; that bug is not reproduced.
func Call(in Inputs) float64 {
	D1 := d1(in)
	D2 := D1 - in.Sigma*math.Sqrt(in.T)
	return in.S*normCDF(D1) - in.K*math.Exp(-in.R*in.T)*normCDF(D2)
}

// Put prices a European put under Black-Scholes with no dividends.
func Put(in Inputs) float64 {
	D1 := d1(in)
	D2 := D1 - in.Sigma*math.Sqrt(in.T)
	return in.K*math.Exp(-in.R*in.T)*normCDF(-D2) - in.S*normCDF(-D1)
}

// CallDelta is d(call)/dS.
func CallDelta(in Inputs) float64 {
	return normCDF(d1(in))
}

// PutDelta is d(put)/dS.
func PutDelta(in Inputs) float64 {
	return normCDF(d1(in)) - 1.0
}

// Gamma is the same for calls and puts.
func Gamma(in Inputs) float64 {
	return normPDF(d1(in)) / (in.S * in.Sigma * math.Sqrt(in.T))
}

// Vega is the same for calls and puts.
func Vega(in Inputs) float64 {
	return in.S * normPDF(d1(in)) * math.Sqrt(in.T)
}

// Price degenerate-guards S/K/sigma/T before delegating to Call or Put,
// returning the payoff's intrinsic value when the closed form would
// divide by zero.
func Price(in Inputs, isCall bool) float64 {
	if in.S <= 0 || in.K <= 0 || in.Sigma <= 0 || in.T <= 0 {
		if isCall {
			return math.Max(0, in.S-in.K)
		}
		return math.Max(0, in.K-in.S)
	}
	if isCall {
		return Call(in)
	}
	return Put(in)
}

// Delta applies Price's degenerate guard before delegating to CallDelta
// or PutDelta.
func Delta(in Inputs, isCall bool) float64 {
	if in.S <= 0 || in.K <= 0 || in.Sigma <= 0 || in.T <= 0 {
		if isCall {
			if in.S > in.K {
				return 1.0
			}
			return 0.0
		}
		if in.S > in.K {
			return 0.0
		}
		return -1.0
	}
	if isCall {
		return CallDelta(in)
	}
	return PutDelta(in)
}
