// Package risk holds pre-trade checks that can veto a swap before it is
// signed.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"spotengine/src/connectors"
)

// PriceProtectionError marks a quote whose rate drifted too far below the
// open-market reference.
type PriceProtectionError struct {
	QuotedRate    decimal.Decimal
	ReferenceRate decimal.Decimal
	DeviationPct  decimal.Decimal
}

func (e *PriceProtectionError) Error() string {
	return fmt.Sprintf("quoted rate %s is %s%% below reference %s",
		e.QuotedRate, e.DeviationPct.Round(2), e.ReferenceRate)
}

// DeviationPercent is how far the quoted rate sits below the reference, as
// a percentage; zero or negative when the quote is at or above market.
func DeviationPercent(quotedRate, referenceRate decimal.Decimal) decimal.Decimal {
	if !referenceRate.IsPositive() {
		return decimal.Zero
	}
	return referenceRate.Sub(quotedRate).
		Div(referenceRate).
		Mul(decimal.NewFromInt(100))
}

// CheckRate vetoes a quote whose rate is more than maxDeviationPercent
// below the reference. A quote above the reference always passes.
func CheckRate(quotedRate, referenceRate decimal.Decimal, maxDeviationPercent float64) error {
	deviation := DeviationPercent(quotedRate, referenceRate)
	if deviation.GreaterThan(decimal.NewFromFloat(maxDeviationPercent)) {
		return &PriceProtectionError{
			QuotedRate:    quotedRate,
			ReferenceRate: referenceRate,
			DeviationPct:  deviation,
		}
	}
	return nil
}

// PriceGuard runs the check against a live reference feed.
type PriceGuard struct {
	feed                connectors.PriceFeed
	maxDeviationPercent float64
}

func NewPriceGuard(feed connectors.PriceFeed, maxDeviationPercent float64) *PriceGuard {
	return &PriceGuard{feed: feed, maxDeviationPercent: maxDeviationPercent}
}

// Check fetches the reference price for the pair symbols and vetoes the
// quoted rate when it drifts too far. A dead feed does not block trading;
// the check degrades to a warning.
func (g *PriceGuard) Check(baseSymbol, quoteSymbol string, quotedRate decimal.Decimal) error {
	reference, err := g.feed.ReferencePrice(baseSymbol, quoteSymbol)
	if err != nil {
		logger.WithError(err).Warn("price protection skipped, reference feed unavailable")
		return nil
	}
	return CheckRate(quotedRate, reference, g.maxDeviationPercent)
}
