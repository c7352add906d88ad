// Package metrics implements the alpha-metric calculator: pure scoring
// functions over option contracts and a stable descending ranking.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

// Calculator scores contracts against a chosen alpha metric. It holds no
// per-contract state; the only knob is the slippage model shared by the
// cost-adjusted metrics.
type Calculator struct {
	// slippageFraction scales the spread-based slippage estimate used in
	// RA-SAS and ExpectedReturn denominators.
	slippageFraction float64
}

// NewCalculator returns a calculator using the default half-spread
// slippage estimate.
func NewCalculator() *Calculator {
	return NewCalculatorWithSlippage(models.DefaultSlippageFraction)
}

// NewCalculatorWithSlippage returns a calculator with a custom slippage
// fraction. Negative fractions fall back to the default.
func NewCalculatorWithSlippage(slippageFraction float64) *Calculator {
	if slippageFraction < 0 {
		slippageFraction = models.DefaultSlippageFraction
	}
	return &Calculator{slippageFraction: slippageFraction}
}

// Score computes the selected alpha metric for one contract.
//
// All four metrics divide by |theta|, so a zero theta is an arithmetic
// degeneracy: the score is undefined and an ArithmeticError is returned
// rather than an infinity that would poison a ranking.
func (c *Calculator) Score(contract models.OptionContract, metric models.AlphaMetric) (float64, error) {
	if !metric.Valid() {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownMetric, string(metric))
	}
	if contract.Theta == 0 {
		return 0, &models.ArithmeticError{
			Op:     metric.String(),
			Reason: fmt.Sprintf("theta is zero for strike %.2f, score undefined", contract.Strike),
		}
	}

	absTheta := math.Abs(contract.Theta)
	edge := contract.Delta * contract.Gamma

	switch metric {
	case models.MetricSAS:
		return edge / absTheta, nil
	case models.MetricRASAS:
		return edge / c.costDenominator(contract, absTheta), nil
	case models.MetricTAS:
		return edge/absTheta + contract.VolEdge(), nil
	case models.MetricExpectedReturn:
		return edge/c.costDenominator(contract, absTheta) + contract.VolEdge(), nil
	default:
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownMetric, string(metric))
	}
}

// costDenominator is the RA-SAS denominator: time decay plus execution
// costs (spread + slippage estimate).
func (c *Calculator) costDenominator(contract models.OptionContract, absTheta float64) float64 {
	spread := contract.Spread()
	return absTheta + spread + c.slippageFraction*spread
}

// Ranked pairs a contract with its computed score. Index is the contract's
// position in the original input, preserved so callers can correlate
// rankings back to their own rows.
type Ranked struct {
	Index    int                   `json:"index"`
	Contract models.OptionContract `json:"contract"`
	Score    float64               `json:"score"`
}

// ScoreFailure reports one contract that could not be scored. Batch
// ranking isolates these instead of aborting the whole set.
type ScoreFailure struct {
	Index    int
	Contract models.OptionContract
	Err      error
}

// Rank scores every contract and returns the successes ordered descending
// by score, plus the per-contract failures. The sort is stable: contracts
// with equal scores keep their original relative order. An unknown metric
// fails the whole call since no contract could be scored.
func (c *Calculator) Rank(contracts []models.OptionContract, metric models.AlphaMetric) ([]Ranked, []ScoreFailure, error) {
	if !metric.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", models.ErrUnknownMetric, string(metric))
	}

	ranked := make([]Ranked, 0, len(contracts))
	var failures []ScoreFailure
	for i, contract := range contracts {
		score, err := c.Score(contract, metric)
		if err != nil {
			failures = append(failures, ScoreFailure{Index: i, Contract: contract, Err: err})
			continue
		}
		ranked = append(ranked, Ranked{Index: i, Contract: contract, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, failures, nil
}
