package models

// Holding-period bounds. The Greek-expansion P&L approximation degrades
// quickly beyond a few days, so periods outside this window are rejected
// rather than clamped.
const (
	MinHoldingPeriodDays = 1
	MaxHoldingPeriodDays = 5
)

// DefaultSlippageFraction is the slippage estimate as a fraction of the
// bid/ask spread when the caller does not supply one.
const DefaultSlippageFraction = 0.5

// Greek identifies one of the four sensitivity terms in the simulation's
// P&L decomposition.
type Greek string

const (
	GreekDelta Greek = "delta"
	GreekGamma Greek = "gamma"
	GreekTheta Greek = "theta"
	GreekVega  Greek = "vega"
)

// GreekPriority is the fixed tie-break order for the primary edge factor.
// Visualizations depend on this ordering; it is part of the contract,
// not an implementation detail.
var GreekPriority = []Greek{GreekDelta, GreekGamma, GreekTheta, GreekVega}

// SimulationConfig parameterizes one Monte Carlo run.
type SimulationConfig struct {
	// NumSimulations is the number of synthetic price paths. Practical
	// range is 100 to 100,000.
	NumSimulations int `yaml:"num_simulations" json:"num_simulations"`
	// StartingPrice is the initial underlying price. Zero means "use the
	// contract's underlying price".
	StartingPrice float64 `yaml:"starting_price" json:"starting_price"`
	// AssumedVol is the annualized volatility driving the price paths,
	// as a decimal (0.30 = 30%).
	AssumedVol float64 `yaml:"assumed_vol" json:"assumed_vol"`
	// HoldingPeriodDays is the simulated holding period, 1 to 5 inclusive.
	HoldingPeriodDays int `yaml:"holding_period_days" json:"holding_period_days"`
	// RealisticExecution subtracts spread-crossing and slippage costs
	// from every path's P&L when true.
	RealisticExecution bool `yaml:"realistic_execution" json:"realistic_execution"`
	// SlippageFraction scales the spread-based slippage estimate. Negative
	// means "use the default of half the spread".
	SlippageFraction float64 `yaml:"slippage_fraction" json:"slippage_fraction"`
	// IVDriftFraction sets the standard deviation of the zero-mean implied
	// volatility noise as a fraction of the contract's IV. Zero disables
	// the vega term entirely, which is the documented default.
	IVDriftFraction float64 `yaml:"iv_drift_fraction" json:"iv_drift_fraction"`
}

// Validate rejects configurations the engine cannot run. Failures are
// reported before any path is generated; there are no partial simulations.
func (c *SimulationConfig) Validate() error {
	if c.NumSimulations <= 0 {
		return &ValidationError{Field: "num_simulations", Reason: "must be > 0"}
	}
	if c.StartingPrice < 0 {
		return &ValidationError{Field: "starting_price", Reason: "must be >= 0 (0 means contract underlying)"}
	}
	if c.AssumedVol < 0 {
		return &ValidationError{Field: "assumed_vol", Reason: "must be >= 0"}
	}
	if c.HoldingPeriodDays < MinHoldingPeriodDays || c.HoldingPeriodDays > MaxHoldingPeriodDays {
		return &ValidationError{Field: "holding_period_days", Reason: "must be between 1 and 5"}
	}
	if c.IVDriftFraction < 0 {
		return &ValidationError{Field: "iv_drift_fraction", Reason: "must be >= 0"}
	}
	return nil
}

// EffectiveSlippageFraction resolves the slippage fraction, applying the
// half-spread default when unset.
func (c *SimulationConfig) EffectiveSlippageFraction() float64 {
	if c.SlippageFraction < 0 {
		return DefaultSlippageFraction
	}
	return c.SlippageFraction
}

// GreekContributions holds the mean per-path contribution of each additive
// term in the Greek-expansion P&L formula.
type GreekContributions struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// ByGreek returns the contribution for a single Greek.
func (g GreekContributions) ByGreek(greek Greek) float64 {
	switch greek {
	case GreekDelta:
		return g.Delta
	case GreekGamma:
		return g.Gamma
	case GreekTheta:
		return g.Theta
	case GreekVega:
		return g.Vega
	default:
		return 0
	}
}

// SimulationResult aggregates one Monte Carlo run for one contract. It is
// created fresh per run, never mutated after aggregation, and owned by the
// run that produced it.
type SimulationResult struct {
	RunID string `json:"run_id"`
	Seed  int64  `json:"seed"`

	// Returns holds the per-path dollar returns, in path order
	// (length NumSimulations).
	Returns []float64 `json:"returns"`

	AvgReturnDollars float64 `json:"avg_return_dollars"`
	AvgReturnPct     float64 `json:"avg_return_pct"`
	// WinRate is the fraction of paths with a strictly positive return.
	WinRate  float64 `json:"win_rate"`
	BestCase float64 `json:"best_case"`

	// PrimaryEdgeFactor is the Greek whose mean contribution dominates in
	// absolute magnitude, ties broken Delta > Gamma > Theta > Vega.
	PrimaryEdgeFactor Greek              `json:"primary_edge_factor"`
	Contributions     GreekContributions `json:"contributions"`
}
