// Package analyzer composes the metric calculator, simulation engine, and
// hedge solver into batch analysis reports. It is the only package that
// shapes core outputs for the presentation layer; the core components
// never call one another directly.
package analyzer

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/hedge"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/metrics"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/simulation"
)

// Aggregator orchestrates the core components over batches of contracts.
// Stateless between calls; all run state lives in the returned Report.
type Aggregator struct {
	calc   *metrics.Calculator
	engine *simulation.Engine
	solver *hedge.Solver
	logger *log.Logger
}

// NewAggregator wires an aggregator from its components. A nil logger
// falls back to stderr.
func NewAggregator(calc *metrics.Calculator, engine *simulation.Engine, solver *hedge.Solver, logger *log.Logger) *Aggregator {
	if calc == nil {
		panic("analyzer.NewAggregator: calculator must not be nil")
	}
	if engine == nil {
		panic("analyzer.NewAggregator: engine must not be nil")
	}
	if solver == nil {
		panic("analyzer.NewAggregator: solver must not be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "analyzer: ", log.LstdFlags)
	}
	return &Aggregator{calc: calc, engine: engine, solver: solver, logger: logger}
}

// Request describes one batch analysis: which contracts, which metric,
// and optionally a simulation pass over every contract. A non-nil Seed
// makes the whole batch reproducible; each contract's run is seeded as
// Seed + its input index so runs stay independent per contract.
type Request struct {
	Contracts  []models.OptionContract
	Metric     models.AlphaMetric
	Simulation *models.SimulationConfig
	Seed       *int64
}

// SimOutcome is a per-contract simulation result-or-error pair. One
// contract's failure never aborts the rest of the batch.
type SimOutcome struct {
	Index    int
	Contract models.OptionContract
	Result   *models.SimulationResult
	Err      error
}

// Report is the immutable product of one Analyze call.
type Report struct {
	ID          string
	GeneratedAt time.Time
	Metric      models.AlphaMetric

	Rankings      []metrics.Ranked
	ScoreFailures []metrics.ScoreFailure
	Simulations   []SimOutcome
}

// Analyze ranks the batch and, when requested, simulates every contract.
// Per-item failures are collected into the report; the only whole-batch
// errors are an unknown metric, an invalid simulation config, and
// cancellation.
func (a *Aggregator) Analyze(ctx context.Context, req Request) (*Report, error) {
	ranked, failures, err := a.calc.Rank(req.Contracts, req.Metric)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		a.logger.Printf("contract %d (strike %.2f) not scored: %v", f.Index, f.Contract.Strike, f.Err)
	}

	report := &Report{
		ID:            uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
		Metric:        req.Metric,
		Rankings:      ranked,
		ScoreFailures: failures,
	}

	if req.Simulation == nil {
		return report, nil
	}
	// Reject a bad config before touching any contract; fail fast
	// beats a batch of identical per-item errors.
	if err := req.Simulation.Validate(); err != nil {
		return nil, err
	}

	report.Simulations = make([]SimOutcome, 0, len(req.Contracts))
	for i, contract := range req.Contracts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var result *models.SimulationResult
		var runErr error
		if req.Seed != nil {
			result, runErr = a.engine.RunSeeded(ctx, contract, *req.Simulation, *req.Seed+int64(i))
		} else {
			result, runErr = a.engine.Run(ctx, contract, *req.Simulation)
		}
		if runErr != nil {
			// Cancellation aborts the batch; partial reports are
			// discarded, not returned as final.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Printf("simulation failed for contract %d (strike %.2f): %v", i, contract.Strike, runErr)
		}
		report.Simulations = append(report.Simulations, SimOutcome{
			Index:    i,
			Contract: contract,
			Result:   result,
			Err:      runErr,
		})
	}

	return report, nil
}

// DeltaHedge forwards to the hedge solver for the presentation layer's
// hedge panel.
func (a *Aggregator) DeltaHedge(contract models.OptionContract, contractMultiplier float64) (models.HedgeResult, error) {
	return a.solver.DeltaHedge(contract, contractMultiplier)
}

// DeltaGammaHedge forwards to the hedge solver.
func (a *Aggregator) DeltaGammaHedge(contract, instrument models.OptionContract, contractMultiplier float64) (models.HedgeResult, error) {
	return a.solver.DeltaGammaHedge(contract, instrument, contractMultiplier)
}
