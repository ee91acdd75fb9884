// Package mapper converts wire-level orders from both sources into the
// normalized model.Order the cache and handlers work with.
package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spotengine/src/externalmodel"
	"spotengine/src/model"
)

const chunkStatusSuccess = "success"

// MapV2Order normalizes a permit-based order.
func MapV2Order(order externalmodel.HubOrderV2) model.Order {
	progress := v2Progress(order)
	fills := v2Fills(order)

	totalTrades := order.Metadata.ExpectedChunks
	if totalTrades == 0 {
		totalTrades = 1
	}

	limit := order.Order.Witness.Output.Limit
	minDstPerTrade := limit
	if decimalOrZero(limit).Equal(decimal.NewFromInt(1)) {
		// limit of exactly 1 is the contract sentinel for "no limit"
		minDstPerTrade = ""
	}

	trigger := order.Order.Witness.Output.Stop
	if decimalOrZero(trigger).IsZero() {
		trigger = ""
	}

	deadlineSeconds := decimalOrZero(order.Order.Deadline).IntPart()

	return model.Order{
		ID:      order.Hash,
		Hash:    order.Hash,
		Version: 2,

		Type:   v2OrderType(order),
		Status: v2Status(order, progress),

		Maker:    order.Order.Witness.Swapper,
		SrcToken: order.Order.Witness.Input.Token,
		DstToken: order.Order.Witness.Output.Token,

		SrcAmount:            order.Order.Witness.Input.MaxAmount,
		SrcAmountPerTrade:    order.Order.Witness.Input.Amount,
		TotalTrades:          totalTrades,
		MinDstAmountPerTrade: minDstPerTrade,
		TriggerPricePerTrade: trigger,
		SrcAmountFilled:      sumFills(fills, func(f model.OrderFill) string { return f.InAmount }),
		DstAmountFilled:      sumFills(fills, func(f model.OrderFill) string { return f.OutAmount }),

		Progress: progress,

		Deadline:  time.Unix(deadlineSeconds, 0).UTC(),
		FillDelay: time.Duration(order.Order.Witness.Epoch) * time.Second,

		ChainID:   order.Order.Witness.ChainID,
		Exchange:  order.Order.Witness.Exchange.Adapter,
		CreatedAt: order.Timestamp,

		Fills: fills,
	}
}

// v2OrderType classifies by the witness output bounds. A disabled stop
// (max uint256) marks a take-profit order; any other positive stop is a
// stop-loss, split by whether a real limit rides along.
func v2OrderType(order externalmodel.HubOrderV2) model.OrderType {
	stop := decimalOrZero(order.Order.Witness.Output.Stop)
	hasLimit := decimalOrZero(order.Order.Witness.Output.Limit).GreaterThan(decimal.NewFromInt(1))
	chunks := v2Chunks(order)

	if stop.Equal(maxUint256) {
		return model.OrderTypeTakeProfit
	}
	if stop.IsPositive() {
		if hasLimit {
			return model.OrderTypeStopLossLimit
		}
		return model.OrderTypeStopLossMarket
	}
	if !hasLimit && chunks <= 1 {
		return model.OrderTypeTwapMarket
	}
	if chunks >= 1 && hasLimit {
		return model.OrderTypeTwapLimit
	}
	if hasLimit {
		return model.OrderTypeLimit
	}
	return model.OrderTypeTwapMarket
}

// v2Chunks prefers the recorded chunk list; when the order has never
// executed, the chunk count is derived from the amounts.
func v2Chunks(order externalmodel.HubOrderV2) int {
	if n := len(order.Metadata.Chunks); n > 0 {
		return n
	}
	amount := decimalOrZero(order.Order.Witness.Input.Amount)
	if amount.IsZero() {
		return 0
	}
	return int(decimalOrZero(order.Order.Witness.Input.MaxAmount).Div(amount).IntPart())
}

// v2Progress is the success-chunk ratio as a 2-decimal percentage, snapped
// to 100 at or above 99% and floored at 0.
func v2Progress(order externalmodel.HubOrderV2) float64 {
	total := order.Metadata.ExpectedChunks
	if total == 0 {
		return 0
	}
	success := 0
	for _, chunk := range order.Metadata.Chunks {
		if chunk.Status == chunkStatusSuccess {
			success++
		}
	}

	ratio := decimal.NewFromInt(int64(success)).Div(decimal.NewFromInt(int64(total)))
	if ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.99)) {
		return 100
	}
	if !ratio.IsPositive() {
		return 0
	}
	percent, _ := ratio.Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return percent
}

func v2Status(order externalmodel.HubOrderV2, progress float64) model.OrderStatus {
	switch {
	case order.Metadata.Status == "completed" || progress >= 99:
		return model.OrderStatusCompleted
	case order.Metadata.Status == "pending" || order.Metadata.Status == "eligible":
		return model.OrderStatusOpen
	case isCancelledDescription(order.Metadata.Description):
		return model.OrderStatusCanceled
	default:
		return model.OrderStatusExpired
	}
}

// isCancelledDescription matches the free-text marker the order store
// writes when the contract voided the order. Substring match on purpose;
// the store prefixes it with detail in some deployments.
func isCancelledDescription(description string) bool {
	return strings.Contains(strings.ToLower(description), "cancelled by contract")
}

func v2Fills(order externalmodel.HubOrderV2) []model.OrderFill {
	var fills []model.OrderFill
	for _, chunk := range order.Metadata.Chunks {
		if chunk.Status != chunkStatusSuccess {
			continue
		}
		fills = append(fills, model.OrderFill{
			OrderID:   order.Hash,
			InAmount:  chunk.InAmount,
			OutAmount: chunk.OutAmount,
			Timestamp: chunk.Timestamp,
			TxHash:    chunk.TxHash,
		})
	}
	return fills
}

func sumFills(fills []model.OrderFill, pick func(model.OrderFill) string) string {
	total := decimal.Zero
	for _, fill := range fills {
		total = total.Add(decimalOrZero(pick(fill)))
	}
	return total.String()
}

var maxUint256 = decimal.RequireFromString(model.MaxUint256)

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
