// Package session holds the in-memory state for one analysis session:
// the loaded contracts and the latest report. Nothing here persists
// across runs; the toolkit's core is stateless and this store is the
// single owner of "currently loaded" state on behalf of the
// presentation layer.
package session

import (
	"sync"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/analyzer"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

// Interface defines the session-state contract used by the CLI and the
// results API. Implementations must be safe for concurrent use.
type Interface interface {
	// Contract management
	SetContracts(contracts []models.OptionContract)
	AddContract(contract models.OptionContract)
	Contracts() []models.OptionContract

	// Report management. Reports replace each other wholesale; a new
	// report supersedes and discards the previous one.
	SetReport(report *analyzer.Report)
	LatestReport() *analyzer.Report

	Clear()
}

// Store is the in-memory session store.
type Store struct {
	mu        sync.RWMutex
	contracts []models.OptionContract
	report    *analyzer.Report
}

// Ensure Store implements Interface.
var _ Interface = (*Store)(nil)

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// SetContracts replaces the loaded contract set.
func (s *Store) SetContracts(contracts []models.OptionContract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = make([]models.OptionContract, len(contracts))
	copy(s.contracts, contracts)
}

// AddContract appends one contract to the session.
func (s *Store) AddContract(contract models.OptionContract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = append(s.contracts, contract)
}

// Contracts returns a copy of the loaded contracts. Contracts are value
// objects, so the copy shares nothing mutable with the store.
func (s *Store) Contracts() []models.OptionContract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.OptionContract, len(s.contracts))
	copy(out, s.contracts)
	return out
}

// SetReport installs a new report, discarding any previous one.
func (s *Store) SetReport(report *analyzer.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
}

// LatestReport returns the most recent report, or nil if none has been
// produced yet. Reports are never mutated after aggregation.
func (s *Store) LatestReport() *analyzer.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Clear drops all session state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = nil
	s.report = nil
}
