package models

import (
	"math"
	"testing"
)

func validParams() ContractParams {
	return ContractParams{
		Strike: 100, Delta: 0.52, Gamma: 0.05, Theta: -0.08, Vega: 0.14,
		Bid: 2.95, Ask: 3.10, UnderlyingPrice: 100, ATR: 1.8, ImpliedVol: 0.30,
	}
}

func TestNewOptionContract_Validation(t *testing.T) {
	negative := -0.1

	tests := []struct {
		name    string
		mutate  func(*ContractParams)
		wantErr bool
		field   string
	}{
		{
			name:   "valid contract",
			mutate: func(p *ContractParams) {},
		},
		{
			name:    "zero strike",
			mutate:  func(p *ContractParams) { p.Strike = 0 },
			wantErr: true,
			field:   "strike",
		},
		{
			name:    "negative strike",
			mutate:  func(p *ContractParams) { p.Strike = -5 },
			wantErr: true,
			field:   "strike",
		},
		{
			name:    "zero underlying",
			mutate:  func(p *ContractParams) { p.UnderlyingPrice = 0 },
			wantErr: true,
			field:   "underlying_price",
		},
		{
			name:    "bid above ask",
			mutate:  func(p *ContractParams) { p.Bid = 3.20; p.Ask = 3.10 },
			wantErr: true,
			field:   "bid",
		},
		{
			name:    "negative bid",
			mutate:  func(p *ContractParams) { p.Bid = -0.05 },
			wantErr: true,
			field:   "bid",
		},
		{
			name:    "negative ATR",
			mutate:  func(p *ContractParams) { p.ATR = -1 },
			wantErr: true,
			field:   "atr",
		},
		{
			name:    "negative implied vol",
			mutate:  func(p *ContractParams) { p.ImpliedVol = -0.3 },
			wantErr: true,
			field:   "implied_vol",
		},
		{
			name:    "negative realized vol",
			mutate:  func(p *ContractParams) { p.RealizedVol = &negative },
			wantErr: true,
			field:   "realized_vol",
		},
		{
			name:   "zero bid and ask are allowed",
			mutate: func(p *ContractParams) { p.Bid = 0; p.Ask = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := NewOptionContract(p)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !IsValidationError(err) {
					t.Fatalf("expected ValidationError, got %T: %v", err, err)
				}
				ve := err.(*ValidationError)
				if ve.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, ve.Field)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewOptionContract_RealizedVolDefault(t *testing.T) {
	c, err := NewOptionContract(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RealizedVol != c.ImpliedVol {
		t.Errorf("realized vol should default to implied vol, got %v vs %v", c.RealizedVol, c.ImpliedVol)
	}
	if c.VolEdge() != 0 {
		t.Errorf("vol edge should be zero when realized vol defaults, got %v", c.VolEdge())
	}

	rv := 0.35
	p := validParams()
	p.RealizedVol = &rv
	c, err = NewOptionContract(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RealizedVol != rv {
		t.Errorf("expected realized vol %v, got %v", rv, c.RealizedVol)
	}
	want := (rv - p.ImpliedVol) * p.Vega
	if math.Abs(c.VolEdge()-want) > 1e-12 {
		t.Errorf("expected vol edge %v, got %v", want, c.VolEdge())
	}
}

func TestOptionContract_Derived(t *testing.T) {
	c, err := NewOptionContract(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Spread(); math.Abs(got-0.15) > 1e-12 {
		t.Errorf("expected spread 0.15, got %v", got)
	}
	if got := c.MidPrice(); math.Abs(got-3.025) > 1e-12 {
		t.Errorf("expected mid 3.025, got %v", got)
	}
}

func TestRealizedVolFromATR(t *testing.T) {
	got := RealizedVolFromATR(2.0, 100.0)
	want := 0.02 * math.Sqrt(252)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if RealizedVolFromATR(2.0, 0) != 0 {
		t.Error("expected 0 for non-positive underlying")
	}
}
