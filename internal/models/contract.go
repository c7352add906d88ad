// Package models defines the core value objects shared by the metric
// calculator, the simulation engine, and the hedge solver.
package models

import (
	"math"
)

// SharesPerContract is the standard equity-option contract multiplier.
const SharesPerContract = 100.0

// tradingDaysPerYear is the annualization convention used throughout.
const tradingDaysPerYear = 252.0

// OptionContract is an immutable snapshot of one option's market and risk
// attributes. Instances are constructed through NewOptionContract and passed
// by value; an "edit" is a new instance, never an in-place mutation, so
// cached scores and simulation results can never desynchronize from the
// data they were computed from.
type OptionContract struct {
	Strike          float64 `json:"strike"`
	Delta           float64 `json:"delta"`
	Gamma           float64 `json:"gamma"`
	Theta           float64 `json:"theta"` // Conventionally negative for long options
	Vega            float64 `json:"vega"`
	Bid             float64 `json:"bid"`
	Ask             float64 `json:"ask"`
	UnderlyingPrice float64 `json:"underlying_price"`
	ATR             float64 `json:"atr"`
	ImpliedVol      float64 `json:"implied_vol"`  // Decimal (0.30 = 30%)
	RealizedVol     float64 `json:"realized_vol"` // Defaults to ImpliedVol when not supplied
}

// ContractParams is the flat field set accepted by NewOptionContract.
// RealizedVol is optional; when nil the contract's realized volatility
// defaults to its implied volatility, which zeroes the volatility-edge
// term in the TAS and ExpectedReturn metrics.
type ContractParams struct {
	Strike          float64
	Delta           float64
	Gamma           float64
	Theta           float64
	Vega            float64
	Bid             float64
	Ask             float64
	UnderlyingPrice float64
	ATR             float64
	ImpliedVol      float64
	RealizedVol     *float64
}

// NewOptionContract validates params and builds an immutable contract.
// Malformed input (bid > ask, non-positive strike or underlying, negative
// ATR or volatility) is rejected with a ValidationError, never clamped.
func NewOptionContract(p ContractParams) (OptionContract, error) {
	if p.Strike <= 0 || math.IsNaN(p.Strike) {
		return OptionContract{}, &ValidationError{Field: "strike", Reason: "must be a positive number"}
	}
	if p.UnderlyingPrice <= 0 || math.IsNaN(p.UnderlyingPrice) {
		return OptionContract{}, &ValidationError{Field: "underlying_price", Reason: "must be a positive number"}
	}
	if p.Bid < 0 {
		return OptionContract{}, &ValidationError{Field: "bid", Reason: "must be >= 0"}
	}
	if p.Ask < 0 {
		return OptionContract{}, &ValidationError{Field: "ask", Reason: "must be >= 0"}
	}
	if p.Bid > p.Ask {
		return OptionContract{}, &ValidationError{Field: "bid", Reason: "must not exceed ask"}
	}
	if p.ATR < 0 {
		return OptionContract{}, &ValidationError{Field: "atr", Reason: "must be >= 0"}
	}
	if p.ImpliedVol < 0 {
		return OptionContract{}, &ValidationError{Field: "implied_vol", Reason: "must be >= 0"}
	}

	rv := p.ImpliedVol
	if p.RealizedVol != nil {
		if *p.RealizedVol < 0 {
			return OptionContract{}, &ValidationError{Field: "realized_vol", Reason: "must be >= 0"}
		}
		rv = *p.RealizedVol
	}

	return OptionContract{
		Strike:          p.Strike,
		Delta:           p.Delta,
		Gamma:           p.Gamma,
		Theta:           p.Theta,
		Vega:            p.Vega,
		Bid:             p.Bid,
		Ask:             p.Ask,
		UnderlyingPrice: p.UnderlyingPrice,
		ATR:             p.ATR,
		ImpliedVol:      p.ImpliedVol,
		RealizedVol:     rv,
	}, nil
}

// Spread returns the bid/ask spread. Derived, never stored.
func (c OptionContract) Spread() float64 {
	return c.Ask - c.Bid
}

// MidPrice returns the bid/ask midpoint, used as the option premium.
func (c OptionContract) MidPrice() float64 {
	return (c.Bid + c.Ask) / 2
}

// VolEdge returns the realized-vs-implied volatility edge scaled by vega.
// Zero when realized volatility was defaulted to implied.
func (c OptionContract) VolEdge() float64 {
	return (c.RealizedVol - c.ImpliedVol) * c.Vega
}

// RealizedVolFromATR derives annualized realized volatility from an ATR
// reading using the trading-year convention: (ATR / price) * sqrt(252).
// Callers that want the original analyzer's ATR-based realized volatility
// pass the result through ContractParams.RealizedVol.
func RealizedVolFromATR(atr, underlyingPrice float64) float64 {
	if underlyingPrice <= 0 {
		return 0
	}
	return (atr / underlyingPrice) * math.Sqrt(tradingDaysPerYear)
}
