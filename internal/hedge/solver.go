// Package hedge computes neutralizing position sizes for option exposure.
package hedge

import (
	"fmt"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

// Solver sizes hedge positions against one option contract's Greeks. The
// solutions are instantaneous: they zero the exposure at the moment of
// computation and say nothing about re-hedging as the underlying moves.
type Solver struct{}

// NewSolver returns a hedge solver.
func NewSolver() *Solver {
	return &Solver{}
}

// normalizeMultiplier applies the standard 100-share equity-option
// convention when the caller passes zero.
func normalizeMultiplier(contractMultiplier float64) (float64, error) {
	if contractMultiplier == 0 {
		return models.SharesPerContract, nil
	}
	if contractMultiplier < 0 {
		return 0, &models.ValidationError{Field: "contract_multiplier", Reason: "must be > 0"}
	}
	return contractMultiplier, nil
}

// DeltaHedge returns the underlying share count that flattens one option
// contract's delta: shares = -delta * multiplier. A long call (positive
// delta) hedges with short stock, hence the sign flip.
func (s *Solver) DeltaHedge(contract models.OptionContract, contractMultiplier float64) (models.HedgeResult, error) {
	mult, err := normalizeMultiplier(contractMultiplier)
	if err != nil {
		return models.HedgeResult{}, err
	}
	return models.HedgeResult{
		Shares: -contract.Delta * mult,
	}, nil
}

// DeltaGammaHedge solves the 2x2 system that zeroes both delta and gamma
// using a second option as the gamma leg:
//
//	n2 = -gamma1 / gamma2
//	shares = -(delta1 + n2*delta2) * multiplier
//
// A hedge instrument with zero gamma makes the system degenerate and is
// rejected with an ArithmeticError.
func (s *Solver) DeltaGammaHedge(contract, hedgeInstrument models.OptionContract, contractMultiplier float64) (models.HedgeResult, error) {
	mult, err := normalizeMultiplier(contractMultiplier)
	if err != nil {
		return models.HedgeResult{}, err
	}
	if hedgeInstrument.Gamma == 0 {
		return models.HedgeResult{}, &models.ArithmeticError{
			Op:     "delta-gamma hedge",
			Reason: fmt.Sprintf("hedge instrument at strike %.2f has zero gamma, system is degenerate", hedgeInstrument.Strike),
		}
	}

	n2 := -contract.Gamma / hedgeInstrument.Gamma
	shares := -(contract.Delta + n2*hedgeInstrument.Delta) * mult

	return models.HedgeResult{
		Shares:    shares,
		Contracts: n2,
	}, nil
}
