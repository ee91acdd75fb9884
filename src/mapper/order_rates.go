package mapper

import (
	"github.com/shopspring/decimal"

	"spotengine/src/model"
)

// amountToUnits converts a base-unit amount string into token units.
func amountToUnits(amount string, decimals int32) decimal.Decimal {
	return decimalOrZero(amount).Shift(-decimals)
}

// rate is dst units per one src unit; zero when either side is empty.
func rate(srcAmount string, srcDecimals int32, dstAmount string, dstDecimals int32) decimal.Decimal {
	src := amountToUnits(srcAmount, srcDecimals)
	if !src.IsPositive() {
		return decimal.Zero
	}
	return amountToUnits(dstAmount, dstDecimals).Div(src)
}

// ExecutionRate is the realized average price across all fills.
func ExecutionRate(order *model.Order, srcDecimals, dstDecimals int32) decimal.Decimal {
	return rate(order.SrcAmountFilled, srcDecimals, order.DstAmountFilled, dstDecimals)
}

// LimitRate is the worst acceptable price per trade, derived from the
// per-trade minimum output.
func LimitRate(order *model.Order, srcDecimals, dstDecimals int32) decimal.Decimal {
	if order.IsMarketPrice() {
		return decimal.Zero
	}
	return rate(order.SrcAmountPerTrade, srcDecimals, order.MinDstAmountPerTrade, dstDecimals)
}

// TriggerRate is the price at which a conditional order becomes eligible;
// zero for plain twap and limit orders.
func TriggerRate(order *model.Order, srcDecimals, dstDecimals int32) decimal.Decimal {
	if order.TriggerPricePerTrade == "" || order.TriggerPricePerTrade == model.MaxUint256 {
		return decimal.Zero
	}
	return rate(order.SrcAmountPerTrade, srcDecimals, order.TriggerPricePerTrade, dstDecimals)
}
