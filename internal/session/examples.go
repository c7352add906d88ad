package session

import (
	"fmt"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

// ExampleContracts returns a small curated chain for trying the toolkit
// without a CSV: three near-the-money calls on a $100 underlying with
// plausible Greeks, spreads, and volatility levels.
func ExampleContracts() []models.OptionContract {
	rows := []models.ContractParams{
		{
			Strike: 95, Delta: 0.72, Gamma: 0.035, Theta: -0.06, Vega: 0.11,
			Bid: 6.10, Ask: 6.30, UnderlyingPrice: 100, ATR: 1.8, ImpliedVol: 0.28,
		},
		{
			Strike: 100, Delta: 0.52, Gamma: 0.050, Theta: -0.08, Vega: 0.14,
			Bid: 2.95, Ask: 3.10, UnderlyingPrice: 100, ATR: 1.8, ImpliedVol: 0.30,
		},
		{
			Strike: 105, Delta: 0.31, Gamma: 0.041, Theta: -0.07, Vega: 0.12,
			Bid: 1.15, Ask: 1.28, UnderlyingPrice: 100, ATR: 1.8, ImpliedVol: 0.33,
		},
	}

	contracts := make([]models.OptionContract, 0, len(rows))
	for i, p := range rows {
		c, err := models.NewOptionContract(p)
		if err != nil {
			// The fixtures above are authored to pass validation.
			panic(fmt.Sprintf("session: example contract %d invalid: %v", i, err))
		}
		contracts = append(contracts, c)
	}
	return contracts
}
