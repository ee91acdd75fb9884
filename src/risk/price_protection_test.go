package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckRate(t *testing.T) {
	cases := []struct {
		name         string
		quoted       string
		reference    string
		maxDeviation float64
		wantVeto     bool
	}{
		{"quote at reference passes", "100", "100", 1, false},
		{"quote above reference passes", "105", "100", 1, false},
		{"small drift within tolerance", "99.5", "100", 1, false},
		{"drift beyond tolerance vetoed", "98", "100", 1, true},
		{"boundary drift passes", "99", "100", 1, false},
		{"zero reference never vetoes", "50", "0", 1, false},
		{"tight tolerance", "99.8", "100", 0.1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckRate(
				decimal.RequireFromString(tc.quoted),
				decimal.RequireFromString(tc.reference),
				tc.maxDeviation,
			)
			if tc.wantVeto && err == nil {
				t.Fatal("expected veto")
			}
			if !tc.wantVeto && err != nil {
				t.Fatalf("unexpected veto: %v", err)
			}
		})
	}
}

func TestCheckRateErrorDetail(t *testing.T) {
	err := CheckRate(decimal.RequireFromString("90"), decimal.RequireFromString("100"), 5)
	if err == nil {
		t.Fatal("expected veto")
	}
	var ppErr *PriceProtectionError
	if !errors.As(err, &ppErr) {
		t.Fatalf("expected PriceProtectionError, got %T", err)
	}
	if !ppErr.DeviationPct.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10%% deviation, got %s", ppErr.DeviationPct)
	}
}

type deadFeed struct{}

func (deadFeed) ReferencePrice(baseSymbol, quoteSymbol string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("feed down")
}

func TestPriceGuardDegradesWhenFeedDown(t *testing.T) {
	guard := NewPriceGuard(deadFeed{}, 1)
	if err := guard.Check("ETH", "USDT", decimal.RequireFromString("1")); err != nil {
		t.Fatalf("a dead feed must not block trading, got %v", err)
	}
}
