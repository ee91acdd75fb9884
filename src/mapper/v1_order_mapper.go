package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spotengine/src/externalmodel"
	"spotengine/src/model"
)

// MapV1Order normalizes a contract-native order. The fill delay is not
// carried on the order; the caller resolves it from the protocol config the
// order references.
func MapV1Order(order externalmodel.IndexedOrderV1, config externalmodel.ProtocolConfigV1, chainID uint64) model.Order {
	fills := v1Fills(order)
	progress := v1Progress(order)

	srcAmount := decimalOrZero(order.SrcAmount)
	bidAmount := decimalOrZero(order.SrcBidAmount)
	totalTrades := 1
	if bidAmount.IsPositive() && srcAmount.GreaterThan(bidAmount) {
		totalTrades = int(srcAmount.Div(bidAmount).Ceil().IntPart())
	}

	minDstPerTrade := order.DstMinAmount
	if decimalOrZero(minDstPerTrade).LessThanOrEqual(decimal.NewFromInt(1)) {
		minDstPerTrade = ""
	}

	twapAddress := order.TwapAddress
	if twapAddress == "" {
		twapAddress = config.TwapAddress
	}

	return model.Order{
		ID:      fmt.Sprint(order.ID),
		Version: 1,

		Type:   v1OrderType(totalTrades, minDstPerTrade),
		Status: v1Status(order, progress),

		Maker:    order.Maker,
		SrcToken: order.SrcToken,
		DstToken: order.DstToken,

		SrcAmount:            order.SrcAmount,
		SrcAmountPerTrade:    order.SrcBidAmount,
		TotalTrades:          totalTrades,
		MinDstAmountPerTrade: minDstPerTrade,
		SrcAmountFilled:      order.SrcFilledAmount,
		DstAmountFilled:      sumFills(fills, func(f model.OrderFill) string { return f.OutAmount }),

		Progress: progress,

		Deadline:  time.Unix(order.Deadline, 0).UTC(),
		FillDelay: time.Duration(config.FillDelaySeconds) * time.Second,

		TwapAddress: twapAddress,

		ChainID:   chainID,
		CreatedAt: time.Unix(order.CreatedAt, 0).UTC(),

		Fills: fills,
	}
}

// v1OrderType is coarse on purpose: the legacy contract only expresses
// twap and limit semantics, never triggers.
func v1OrderType(totalTrades int, minDstPerTrade string) model.OrderType {
	hasLimit := minDstPerTrade != ""
	switch {
	case totalTrades > 1 && hasLimit:
		return model.OrderTypeTwapLimit
	case totalTrades > 1:
		return model.OrderTypeTwapMarket
	case hasLimit:
		return model.OrderTypeLimit
	default:
		return model.OrderTypeTwapMarket
	}
}

func v1Progress(order externalmodel.IndexedOrderV1) float64 {
	total := decimalOrZero(order.SrcAmount)
	if !total.IsPositive() {
		return 0
	}
	ratio := decimalOrZero(order.SrcFilledAmount).Div(total)
	if ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.99)) {
		return 100
	}
	if !ratio.IsPositive() {
		return 0
	}
	percent, _ := ratio.Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return percent
}

func v1Status(order externalmodel.IndexedOrderV1, progress float64) model.OrderStatus {
	switch {
	case strings.EqualFold(order.Status, "completed") || progress >= 99:
		return model.OrderStatusCompleted
	case strings.EqualFold(order.Status, "canceled") || strings.EqualFold(order.Status, "cancelled"):
		return model.OrderStatusCanceled
	case order.Deadline > 0 && time.Now().Unix() > order.Deadline:
		return model.OrderStatusExpired
	default:
		return model.OrderStatusOpen
	}
}

func v1Fills(order externalmodel.IndexedOrderV1) []model.OrderFill {
	var fills []model.OrderFill
	for _, fill := range order.Fills {
		fills = append(fills, model.OrderFill{
			OrderID:   fmt.Sprint(order.ID),
			InAmount:  fill.SrcAmountIn,
			OutAmount: fill.DstAmountOut,
			Timestamp: time.Unix(fill.Timestamp, 0).UTC(),
			TxHash:    fill.TxHash,
		})
	}
	return fills
}
