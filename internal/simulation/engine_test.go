package simulation

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

func testContract(t *testing.T) models.OptionContract {
	t.Helper()
	c, err := models.NewOptionContract(models.ContractParams{
		Strike: 100, Delta: 0.52, Gamma: 0.05, Theta: -0.08, Vega: 0.14,
		Bid: 2.95, Ask: 3.05, UnderlyingPrice: 100, ATR: 1.8, ImpliedVol: 0.30,
	})
	require.NoError(t, err)
	return c
}

func testConfig() models.SimulationConfig {
	return models.SimulationConfig{
		NumSimulations:    2000,
		AssumedVol:        0.30,
		HoldingPeriodDays: 3,
	}
}

func TestRunSeeded_Deterministic(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)
	cfg := testConfig()

	a, err := engine.RunSeeded(context.Background(), c, cfg, 42)
	require.NoError(t, err)
	b, err := engine.RunSeeded(context.Background(), c, cfg, 42)
	require.NoError(t, err)

	// Bit-identical path sequences and aggregates for a fixed seed.
	assert.Equal(t, a.Returns, b.Returns)
	assert.Equal(t, a.AvgReturnDollars, b.AvgReturnDollars)
	assert.Equal(t, a.WinRate, b.WinRate)
	assert.Equal(t, a.BestCase, b.BestCase)
	assert.Equal(t, a.PrimaryEdgeFactor, b.PrimaryEdgeFactor)
	assert.Equal(t, a.Contributions, b.Contributions)

	// Distinct run identities even for identical inputs.
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRunSeeded_DifferentSeedsDiffer(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)
	cfg := testConfig()

	a, err := engine.RunSeeded(context.Background(), c, cfg, 1)
	require.NoError(t, err)
	b, err := engine.RunSeeded(context.Background(), c, cfg, 99999)
	require.NoError(t, err)

	assert.NotEqual(t, a.Returns, b.Returns)
}

func TestRunSeeded_ParallelMatchesSequential(t *testing.T) {
	c := testContract(t)
	cfg := testConfig()

	sequential := NewEngine(Config{Workers: 1, BatchSize: 7})
	parallel := NewEngine(Config{Workers: 8, BatchSize: 64})

	a, err := sequential.RunSeeded(context.Background(), c, cfg, 42)
	require.NoError(t, err)
	b, err := parallel.RunSeeded(context.Background(), c, cfg, 42)
	require.NoError(t, err)

	// Per-path RNG partitioning makes worker topology invisible.
	assert.Equal(t, a.Returns, b.Returns)
	assert.Equal(t, a.AvgReturnDollars, b.AvgReturnDollars)
	assert.Equal(t, a.BestCase, b.BestCase)
	assert.Equal(t, a.Contributions, b.Contributions)
}

func TestRunSeeded_ZeroVolConvergence(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)
	cfg := testConfig()
	cfg.AssumedVol = 0

	result, err := engine.RunSeeded(context.Background(), c, cfg, 7)
	require.NoError(t, err)

	// With zero volatility every path is the pure time-decay term.
	want := -c.Theta * float64(cfg.HoldingPeriodDays)
	for i, r := range result.Returns {
		require.InDelta(t, want, r, 1e-12, "path %d", i)
	}
	assert.InDelta(t, want, result.AvgReturnDollars, 1e-9)
	assert.InDelta(t, want, result.BestCase, 1e-12)
	assert.Equal(t, models.GreekTheta, result.PrimaryEdgeFactor)
	assert.Zero(t, result.Contributions.Delta)
	assert.Zero(t, result.Contributions.Gamma)
	assert.Zero(t, result.Contributions.Vega)

	if want > 0 {
		assert.Equal(t, 1.0, result.WinRate)
	} else {
		assert.Equal(t, 0.0, result.WinRate)
	}
}

func TestRunSeeded_RealisticExecutionCost(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)

	frictionless := testConfig()
	realistic := testConfig()
	realistic.RealisticExecution = true
	realistic.SlippageFraction = 0.5

	a, err := engine.RunSeeded(context.Background(), c, frictionless, 42)
	require.NoError(t, err)
	b, err := engine.RunSeeded(context.Background(), c, realistic, 42)
	require.NoError(t, err)

	// Half the spread crossing plus half-spread slippage: one full spread.
	wantCost := c.Spread()
	for i := range a.Returns {
		require.InDelta(t, wantCost, a.Returns[i]-b.Returns[i], 1e-12, "path %d", i)
	}
	assert.InDelta(t, wantCost, a.AvgReturnDollars-b.AvgReturnDollars, 1e-9)
}

func TestRunSeeded_PercentReturnUsesMidPremium(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)
	cfg := testConfig()

	result, err := engine.RunSeeded(context.Background(), c, cfg, 42)
	require.NoError(t, err)

	want := result.AvgReturnDollars / c.MidPrice() * 100
	assert.InDelta(t, want, result.AvgReturnPct, 1e-12)
}

func TestRunSeeded_IVDriftAddsVegaNoise(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)

	cfg := testConfig()
	cfg.AssumedVol = 0
	cfg.IVDriftFraction = 0.05

	result, err := engine.RunSeeded(context.Background(), c, cfg, 42)
	require.NoError(t, err)

	// Paths differ only through the vega term now.
	first := result.Returns[0]
	varies := false
	for _, r := range result.Returns[1:] {
		if r != first {
			varies = true
			break
		}
	}
	assert.True(t, varies, "IV drift should vary per-path returns")

	// Zero-mean noise: the mean vega contribution stays small relative
	// to the deterministic decay term.
	decay := math.Abs(-c.Theta * float64(cfg.HoldingPeriodDays))
	assert.Less(t, math.Abs(result.Contributions.Vega), decay)
	assert.Equal(t, models.GreekTheta, result.PrimaryEdgeFactor)
}

func TestRunSeeded_StartingPriceDefaultsToUnderlying(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)

	implicit := testConfig()
	explicit := testConfig()
	explicit.StartingPrice = c.UnderlyingPrice

	a, err := engine.RunSeeded(context.Background(), c, implicit, 42)
	require.NoError(t, err)
	b, err := engine.RunSeeded(context.Background(), c, explicit, 42)
	require.NoError(t, err)

	assert.Equal(t, a.Returns, b.Returns)
}

func TestRunSeeded_InvalidConfig(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)

	tests := []struct {
		name   string
		mutate func(*models.SimulationConfig)
	}{
		{"zero simulations", func(cfg *models.SimulationConfig) { cfg.NumSimulations = 0 }},
		{"holding period too long", func(cfg *models.SimulationConfig) { cfg.HoldingPeriodDays = 6 }},
		{"holding period too short", func(cfg *models.SimulationConfig) { cfg.HoldingPeriodDays = 0 }},
		{"negative vol", func(cfg *models.SimulationConfig) { cfg.AssumedVol = -0.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			result, err := engine.RunSeeded(context.Background(), c, cfg, 1)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err))
			assert.Nil(t, result, "no partial simulation on invalid config")
		})
	}
}

func TestRunSeeded_Cancellation(t *testing.T) {
	engine := NewEngine(Config{Workers: 2, BatchSize: 128})
	c := testContract(t)
	cfg := testConfig()
	cfg.NumSimulations = 100000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.RunSeeded(ctx, c, cfg, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result, "partial results are discarded, never returned")
}

func TestRun_RecordsReproducibleSeed(t *testing.T) {
	engine := NewEngine()
	c := testContract(t)
	cfg := testConfig()

	first, err := engine.Run(context.Background(), c, cfg)
	require.NoError(t, err)
	require.Len(t, first.Returns, cfg.NumSimulations)

	replay, err := engine.RunSeeded(context.Background(), c, cfg, first.Seed)
	require.NoError(t, err)
	assert.Equal(t, first.Returns, replay.Returns)
}

func TestPrimaryEdgeFactor_TieBreakOrder(t *testing.T) {
	tests := []struct {
		name     string
		contribs models.GreekContributions
		want     models.Greek
	}{
		{
			name:     "all zero falls to delta",
			contribs: models.GreekContributions{},
			want:     models.GreekDelta,
		},
		{
			name:     "exact delta gamma tie keeps delta",
			contribs: models.GreekContributions{Delta: 0.5, Gamma: -0.5},
			want:     models.GreekDelta,
		},
		{
			name:     "gamma theta tie keeps gamma",
			contribs: models.GreekContributions{Gamma: 0.3, Theta: 0.3},
			want:     models.GreekGamma,
		},
		{
			name:     "magnitude beats sign",
			contribs: models.GreekContributions{Delta: 0.1, Theta: -0.4},
			want:     models.GreekTheta,
		},
		{
			name:     "vega wins only when strictly largest",
			contribs: models.GreekContributions{Delta: 0.1, Gamma: 0.1, Theta: 0.1, Vega: 0.2},
			want:     models.GreekVega,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, primaryEdgeFactor(tt.contribs))
		})
	}
}
