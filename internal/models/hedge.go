package models

// HedgeResult holds neutralizing position sizes for one option contract.
// Shares is the signed count of underlying shares; Contracts is the signed
// count of the secondary hedging instrument (zero for a delta-only hedge).
// Immutable once computed; the hedge is instantaneous at the moment of
// computation, re-hedging along a price path is the caller's concern.
type HedgeResult struct {
	Shares    float64 `json:"shares"`
	Contracts float64 `json:"contracts"`
}
