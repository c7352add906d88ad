// Package simulation implements the Monte Carlo simulated-alpha engine.
//
// Each run draws terminal underlying prices from a lognormal (GBM) step,
// approximates per-path option P&L with a second-order Greek expansion,
// and aggregates returns, win rate, best case, and a per-Greek
// contribution decomposition. Runs are deterministic for a fixed seed:
// every path owns an RNG stream derived from seed + path index, so a
// parallel run reproduces a sequential one bit for bit.
package simulation

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"math"
	"math/big"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

const tradingDaysPerYear = 252.0

// Config contains tuning knobs for the engine's worker pool. The defaults
// suit interactive use; results never depend on these values.
type Config struct {
	// Workers caps the number of concurrent path batches.
	Workers int
	// BatchSize is the number of paths per batch. Cancellation is checked
	// between batches, so smaller batches abort faster.
	BatchSize int
}

// DefaultConfig is the default engine configuration.
var DefaultConfig = Config{
	Workers:   4,
	BatchSize: 2048,
}

// Engine runs Monte Carlo simulations over option contracts. It is
// stateless between runs; each Run call owns its accumulators, so one
// Engine may serve concurrent runs.
type Engine struct {
	config Config
}

// NewEngine creates a simulation engine. An omitted or non-positive
// config value falls back to DefaultConfig.
func NewEngine(config ...Config) *Engine {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig.Workers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig.BatchSize
	}
	return &Engine{config: cfg}
}

// Run simulates a contract with fresh randomness. The drawn seed is
// recorded on the result so any run can be reproduced with RunSeeded.
func (e *Engine) Run(ctx context.Context, contract models.OptionContract, cfg models.SimulationConfig) (*models.SimulationResult, error) {
	seed, err := freshSeed()
	if err != nil {
		return nil, fmt.Errorf("drawing simulation seed: %w", err)
	}
	return e.RunSeeded(ctx, contract, cfg, seed)
}

// RunSeeded simulates a contract deterministically: identical contract,
// config, and seed reproduce an identical result, including path order.
func (e *Engine) RunSeeded(ctx context.Context, contract models.OptionContract, cfg models.SimulationConfig, seed int64) (*models.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	startPrice := cfg.StartingPrice
	if startPrice == 0 {
		startPrice = contract.UnderlyingPrice
	}
	if startPrice <= 0 {
		return nil, &models.ValidationError{Field: "starting_price", Reason: "must resolve to a positive price"}
	}

	n := cfg.NumSimulations
	returns := make([]float64, n)

	numBatches := (n + e.config.BatchSize - 1) / e.config.BatchSize
	partials := make([]batchStats, numBatches)

	p := pathParams{
		contract:   contract,
		startPrice: startPrice,
		sigma:      cfg.AssumedVol,
		days:       cfg.HoldingPeriodDays,
		ivDriftStd: cfg.IVDriftFraction * contract.ImpliedVol,
	}
	if cfg.RealisticExecution {
		spread := contract.Spread()
		p.execCost = 0.5*spread + cfg.EffectiveSlippageFraction()*spread
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for b := 0; b < numBatches; b++ {
		b := b
		g.Go(func() error {
			// Cooperative stop point; a canceled run discards all
			// partial state rather than returning it as final.
			if err := gctx.Err(); err != nil {
				return err
			}
			start := b * e.config.BatchSize
			end := min(start+e.config.BatchSize, n)
			partials[b] = simulateBatch(p, seed, start, end, returns)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total batchStats
	total.bestCase = math.Inf(-1)
	for _, part := range partials {
		total.merge(part)
	}

	return e.aggregate(contract, cfg, seed, returns, total), nil
}

// pathParams is the read-only per-run state shared by all path workers.
type pathParams struct {
	contract   models.OptionContract
	startPrice float64
	sigma      float64
	days       int
	ivDriftStd float64
	execCost   float64
}

// batchStats accumulates the commutative reductions for one path batch.
type batchStats struct {
	sumReturn float64
	wins      int
	bestCase  float64

	sumDelta float64
	sumGamma float64
	sumTheta float64
	sumVega  float64
}

func (s *batchStats) merge(o batchStats) {
	s.sumReturn += o.sumReturn
	s.wins += o.wins
	s.bestCase = math.Max(s.bestCase, o.bestCase)
	s.sumDelta += o.sumDelta
	s.sumGamma += o.sumGamma
	s.sumTheta += o.sumTheta
	s.sumVega += o.sumVega
}

// simulateBatch computes paths [start, end), writing per-path returns into
// the shared slice (disjoint index ranges, no coordination needed) and
// returning the batch's partial reductions.
func simulateBatch(p pathParams, seed int64, start, end int, returns []float64) batchStats {
	stats := batchStats{bestCase: math.Inf(-1)}
	t := float64(p.days) / tradingDaysPerYear
	sqrtT := math.Sqrt(t)
	c := p.contract

	for i := start; i < end; i++ {
		// Partitioned RNG stream: seed + path index, so parallel and
		// sequential execution draw identical randomness per path.
		rng := rand.New(rand.NewSource(seed + int64(i)))

		z := rng.NormFloat64()
		terminal := p.startPrice * math.Exp(-0.5*p.sigma*p.sigma*t+p.sigma*sqrtT*z)
		dS := terminal - p.startPrice

		deltaTerm := c.Delta * dS
		gammaTerm := 0.5 * c.Gamma * dS * dS
		thetaTerm := -c.Theta * float64(p.days)
		vegaTerm := 0.0
		if p.ivDriftStd > 0 {
			vegaTerm = c.Vega * (rng.NormFloat64() * p.ivDriftStd)
		}

		pnl := deltaTerm + gammaTerm + thetaTerm + vegaTerm - p.execCost
		returns[i] = pnl

		stats.sumReturn += pnl
		if pnl > 0 {
			stats.wins++
		}
		stats.bestCase = math.Max(stats.bestCase, pnl)
		stats.sumDelta += deltaTerm
		stats.sumGamma += gammaTerm
		stats.sumTheta += thetaTerm
		stats.sumVega += vegaTerm
	}
	return stats
}

func (e *Engine) aggregate(contract models.OptionContract, cfg models.SimulationConfig, seed int64, returns []float64, total batchStats) *models.SimulationResult {
	n := float64(len(returns))
	avg := total.sumReturn / n

	premium := contract.MidPrice()
	avgPct := 0.0
	if premium > 0 {
		avgPct = avg / premium * 100
	}

	contribs := models.GreekContributions{
		Delta: total.sumDelta / n,
		Gamma: total.sumGamma / n,
		Theta: total.sumTheta / n,
		Vega:  total.sumVega / n,
	}

	return &models.SimulationResult{
		RunID:             uuid.NewString(),
		Seed:              seed,
		Returns:           returns,
		AvgReturnDollars:  avg,
		AvgReturnPct:      avgPct,
		WinRate:           float64(total.wins) / n,
		BestCase:          total.bestCase,
		PrimaryEdgeFactor: primaryEdgeFactor(contribs),
		Contributions:     contribs,
	}
}

// primaryEdgeFactor picks the Greek whose mean contribution has the
// largest absolute magnitude. Ties break in the fixed priority order
// Delta > Gamma > Theta > Vega; a strictly larger magnitude is required
// to displace an earlier Greek.
func primaryEdgeFactor(contribs models.GreekContributions) models.Greek {
	best := models.GreekPriority[0]
	bestMag := math.Abs(contribs.ByGreek(best))
	for _, g := range models.GreekPriority[1:] {
		if mag := math.Abs(contribs.ByGreek(g)); mag > bestMag {
			best = g
			bestMag = mag
		}
	}
	return best
}

// freshSeed draws a seed from the OS entropy source for unseeded runs.
func freshSeed() (int64, error) {
	v, err := crand.Int(crand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}
