package rates

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/pull-payment-service/internal/service"
)

var _ service.RateResolver = (*Static)(nil)

func TestParseStatic(t *testing.T) {
	resolver, err := ParseStatic("BTC_USD=60000, EUR_USD=1.08")
	require.NoError(t, err)

	rate, err := resolver.FetchRate(context.Background(), "", service.CurrencyPair{Left: "BTC", Right: "USD"})
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(60000)))

	rate, err = resolver.FetchRate(context.Background(), "", service.CurrencyPair{Left: "EUR", Right: "USD"})
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))
}

func TestParseStaticEmptySpec(t *testing.T) {
	resolver, err := ParseStatic("")
	require.NoError(t, err)

	_, err = resolver.FetchRate(context.Background(), "", service.CurrencyPair{Left: "BTC", Right: "USD"})
	assert.Error(t, err)
}

func TestParseStaticRejectsMalformedEntries(t *testing.T) {
	_, err := ParseStatic("BTC_USD")
	assert.Error(t, err)

	_, err = ParseStatic("BTC_USD=sixty thousand")
	assert.Error(t, err)
}

func TestFetchRateInvertsReversePair(t *testing.T) {
	resolver, err := ParseStatic("BTC_USD=50000")
	require.NoError(t, err)

	// USD_BTC is quoted from the BTC_USD entry.
	rate, err := resolver.FetchRate(context.Background(), "", service.CurrencyPair{Left: "USD", Right: "BTC"})
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1).Div(decimal.NewFromInt(50000))))
}

func TestFetchRateUnknownPair(t *testing.T) {
	resolver, err := ParseStatic("BTC_USD=50000")
	require.NoError(t, err)

	_, err = resolver.FetchRate(context.Background(), "", service.CurrencyPair{Left: "ETH", Right: "EUR"})
	assert.Error(t, err)
}
