package models

import (
	"fmt"
	"strings"
)

// AlphaMetric selects which scoring formula the calculator applies.
type AlphaMetric string

const (
	// MetricSAS is the Scalping Alpha Score: (delta * gamma) / |theta|.
	MetricSAS AlphaMetric = "sas"
	// MetricRASAS is the Risk-Adjusted SAS, which adds execution costs
	// (spread + slippage) to the denominator.
	MetricRASAS AlphaMetric = "ra-sas"
	// MetricTAS is the True Alpha Score: SAS plus the volatility edge.
	MetricTAS AlphaMetric = "tas"
	// MetricExpectedReturn is RA-SAS plus the volatility edge.
	MetricExpectedReturn AlphaMetric = "expected-return"
)

// Valid returns true if the metric is one of the defined constants.
func (m AlphaMetric) Valid() bool {
	switch m {
	case MetricSAS, MetricRASAS, MetricTAS, MetricExpectedReturn:
		return true
	default:
		return false
	}
}

// String returns the metric's display name.
func (m AlphaMetric) String() string {
	switch m {
	case MetricSAS:
		return "SAS"
	case MetricRASAS:
		return "RA-SAS"
	case MetricTAS:
		return "TAS"
	case MetricExpectedReturn:
		return "Expected Return"
	default:
		return string(m)
	}
}

// ParseMetric maps a user-supplied tag to an AlphaMetric, accepting the
// canonical tags case-insensitively. Unrecognized tags return
// ErrUnknownMetric.
func ParseMetric(s string) (AlphaMetric, error) {
	m := AlphaMetric(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}
