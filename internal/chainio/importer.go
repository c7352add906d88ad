// Package chainio reads option-chain CSV files into contracts and writes
// analysis reports back out as CSV. Parsing mechanics live here; the
// validation rules belong to the models constructor.
package chainio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

// headerAliases maps each contract field to the column names it may
// appear under, normalized to lowercase. Matching is first-alias-wins.
var headerAliases = map[string][]string{
	"strike": {"strike", "strike price", "strikeprice"},
	"delta":  {"delta"},
	"gamma":  {"gamma"},
	"theta":  {"theta"},
	"vega":   {"vega"},
	"bid":    {"bid", "bid price"},
	"ask":    {"ask", "ask price"},
	"iv":     {"iv", "implied volatility", "impliedvolatility"},
}

// requiredFields must resolve to a column or the import fails outright.
var requiredFields = []string{"strike", "delta", "gamma", "theta"}

// ImportOptions carries the session-level values applied to every row,
// matching the original chain-import convention: the CSV supplies
// per-contract Greeks and prices, the session supplies the underlying.
type ImportOptions struct {
	UnderlyingPrice float64
	ATR             float64
	// DeriveRealizedVol sets each contract's realized volatility from the
	// session ATR as (ATR/price)*sqrt(252). When false, realized
	// volatility defaults to each contract's implied volatility.
	DeriveRealizedVol bool
}

// RowError reports one CSV row that could not become a contract. Line is
// 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// ImportChain reads a chain CSV. Row-level failures (unparseable numbers,
// rows the contract validator rejects) are collected and returned beside
// the successful contracts; only structural problems (no header, missing
// required columns) fail the whole import.
func ImportChain(r io.Reader, opts ImportOptions) ([]models.OptionContract, []RowError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var contracts []models.OptionContract
	var rowErrs []RowError
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}

		contract, err := buildContract(record, cols, opts)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		contracts = append(contracts, contract)
	}

	return contracts, rowErrs, nil
}

// resolveColumns maps field names to column indexes via the alias table.
func resolveColumns(header []string) (map[string]int, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := make(map[string]int)
	for field, aliases := range headerAliases {
		for _, alias := range aliases {
			for i, h := range normalized {
				if h == alias {
					cols[field] = i
					break
				}
			}
			if _, ok := cols[field]; ok {
				break
			}
		}
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing required columns: %s (found: %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}
	return cols, nil
}

func buildContract(record []string, cols map[string]int, opts ImportOptions) (models.OptionContract, error) {
	field := func(name string) (float64, error) {
		idx, ok := cols[name]
		if !ok {
			return 0, nil // optional column absent, default zero
		}
		if idx >= len(record) {
			return 0, fmt.Errorf("column %q missing from record", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		return v, nil
	}

	p := models.ContractParams{
		UnderlyingPrice: opts.UnderlyingPrice,
		ATR:             opts.ATR,
	}
	var err error
	if p.Strike, err = field("strike"); err != nil {
		return models.OptionContract{}, err
	}
	if p.Delta, err = field("delta"); err != nil {
		return models.OptionContract{}, err
	}
	if p.Gamma, err = field("gamma"); err != nil {
		return models.OptionContract{}, err
	}
	if p.Theta, err = field("theta"); err != nil {
		return models.OptionContract{}, err
	}
	if p.Vega, err = field("vega"); err != nil {
		return models.OptionContract{}, err
	}
	if p.Bid, err = field("bid"); err != nil {
		return models.OptionContract{}, err
	}
	if p.Ask, err = field("ask"); err != nil {
		return models.OptionContract{}, err
	}

	iv, err := field("iv")
	if err != nil {
		return models.OptionContract{}, err
	}
	// Chain CSVs carry IV as a percentage (30 = 30%).
	p.ImpliedVol = iv / 100

	if opts.DeriveRealizedVol {
		rv := models.RealizedVolFromATR(opts.ATR, opts.UnderlyingPrice)
		p.RealizedVol = &rv
	}

	return models.NewOptionContract(p)
}
