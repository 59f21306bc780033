package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jnst/pull-payment-service/internal/model"
)

// DefaultDivisibility is the decimal precision assumed for assets without an
// explicit entry in the divisibility table.
const DefaultDivisibility = 8

var one = big.NewInt(1)

// assetQuotient returns the exact value of amount/rate as a rational.
func assetQuotient(amount, rate decimal.Decimal) *big.Rat {
	return new(big.Rat).Quo(amount.Rat(), rate.Rat())
}

// ceilToPlaces returns the smallest decimal with the given number of decimal
// places that is greater than or equal to q. Rounding never goes down so an
// approved payout is never underfunded.
func ceilToPlaces(q *big.Rat, places int32) decimal.Decimal {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	scaled := new(big.Rat).Mul(q, new(big.Rat).SetInt(scale))

	n := new(big.Int).Div(scaled.Num(), scaled.Denom())
	if new(big.Int).Mul(n, scaled.Denom()).Cmp(scaled.Num()) != 0 {
		n.Add(n, one)
	}

	return decimal.NewFromBigInt(n, -places)
}

// divisibilityFor returns the decimal precision of the asset.
func (s *Service) divisibilityFor(asset string) int32 {
	if d, ok := s.divisibility[asset]; ok {
		return d
	}

	return DefaultDivisibility
}

// GetRate resolves the rate between a payout's payment method asset and its
// pull payment's settlement currency. An empty explicitRule falls back to the
// pair's default rule; a non-empty rule must reference the pair.
func (s *Service) GetRate(ctx context.Context, payout *model.Payout, explicitRule string) (decimal.Decimal, error) {
	if s.rates == nil {
		return decimal.Zero, errors.New("no rate resolver configured")
	}

	pullPayment, err := s.pullPayments.GetByID(ctx, payout.PullPaymentID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load pull payment for rate lookup: %w", err)
	}

	pair := CurrencyPair{
		Left:  model.PaymentMethodAsset(payout.PaymentMethodID),
		Right: pullPayment.Blob.Currency,
	}

	rule := RateRule(pair.String())
	if explicitRule != "" {
		if !strings.Contains(explicitRule, pair.String()) {
			return decimal.Zero, model.ErrInvalidRateRule
		}

		rule = RateRule(explicitRule)
	}

	return s.rates.FetchRate(ctx, rule, pair)
}
