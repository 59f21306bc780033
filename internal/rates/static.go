// Package rates provides rate resolver implementations.
package rates

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jnst/pull-payment-service/internal/service"
)

// Static resolves rates from a fixed table, configured as a comma separated
// list of PAIR=VALUE entries, e.g. "BTC_USD=60000,EUR_USD=1.08".
type Static struct {
	table map[string]decimal.Decimal
}

// ParseStatic builds a static resolver from its configuration string.
func ParseStatic(spec string) (*Static, error) {
	table := make(map[string]decimal.Decimal)

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		pair, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q", entry)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate value in %q: %w", entry, err)
		}

		table[strings.TrimSpace(pair)] = rate
	}

	return &Static{table: table}, nil
}

// FetchRate implements service.RateResolver from the static table. The rate
// rule is ignored beyond the pair it names.
func (s *Static) FetchRate(_ context.Context, _ service.RateRule, pair service.CurrencyPair) (decimal.Decimal, error) {
	if rate, ok := s.table[pair.String()]; ok {
		return rate, nil
	}

	// Inverted pairs are quoted from the direct entry.
	if rate, ok := s.table[pair.Right+"_"+pair.Left]; ok && rate.IsPositive() {
		return decimal.New(1, 0).Div(rate), nil
	}

	return decimal.Zero, fmt.Errorf("no rate available for %s", pair)
}
