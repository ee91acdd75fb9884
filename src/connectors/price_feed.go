package connectors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
)

// PriceFeed provides an independent reference price for a token pair, used
// by the price-protection check to reject quotes that drift too far from
// the open market.
type PriceFeed interface {
	ReferencePrice(baseSymbol, quoteSymbol string) (decimal.Decimal, error)
}

// BinancePriceFeed reads last-trade prices from the binance spot API.
type BinancePriceFeed struct {
	api goex.API
}

// newBinanceAPI is a variable so tests can substitute a stub exchange.
var newBinanceAPI = func() goex.API {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

func NewBinancePriceFeed() *BinancePriceFeed {
	return &BinancePriceFeed{api: newBinanceAPI()}
}

func (f *BinancePriceFeed) ReferencePrice(baseSymbol, quoteSymbol string) (decimal.Decimal, error) {
	pair := goex.NewCurrencyPair(
		goex.Currency{Symbol: strings.ToUpper(baseSymbol)},
		goex.Currency{Symbol: strings.ToUpper(quoteSymbol)},
	)
	ticker, err := f.api.GetTicker(pair)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ticker for %s/%s: %w", baseSymbol, quoteSymbol, err)
	}
	if ticker.Last <= 0 {
		return decimal.Zero, fmt.Errorf("no last price for %s/%s", baseSymbol, quoteSymbol)
	}
	return decimal.NewFromFloat(ticker.Last), nil
}
