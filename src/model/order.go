package model

import "time"

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCanceled  OrderStatus = "canceled"
)

type OrderType string

const (
	OrderTypeTwapMarket     OrderType = "twap-market"
	OrderTypeTwapLimit      OrderType = "twap-limit"
	OrderTypeLimit          OrderType = "limit"
	OrderTypeStopLossMarket OrderType = "stop-loss-market"
	OrderTypeStopLossLimit  OrderType = "stop-loss-limit"
	OrderTypeTakeProfit     OrderType = "take-profit"
)

// Order is the normalized view over both storage schemes: version 1 orders
// live on the legacy twap contract and are keyed by a numeric id, version 2
// orders are permit-based and keyed by the order hash.
type Order struct {
	ID      string `gorm:"primaryKey;size:80" json:"id"`
	Hash    string `gorm:"size:80" json:"hash"`
	Version int    `json:"version"`

	Type   OrderType   `gorm:"size:30" json:"type"`
	Status OrderStatus `gorm:"size:20;index" json:"status"`

	Maker    string `gorm:"size:60;index" json:"maker"`
	SrcToken string `gorm:"size:60" json:"srcToken"`
	DstToken string `gorm:"size:60" json:"dstToken"`

	SrcAmount            string `gorm:"size:80" json:"srcAmount"`
	SrcAmountPerTrade    string `gorm:"size:80" json:"srcAmountPerTrade"`
	TotalTrades          int    `json:"totalTrades"`
	MinDstAmountPerTrade string `gorm:"size:80" json:"minDstAmountPerTrade,omitempty"`
	TriggerPricePerTrade string `gorm:"size:80" json:"triggerPricePerTrade,omitempty"`
	SrcAmountFilled      string `gorm:"size:80" json:"srcAmountFilled"`
	DstAmountFilled      string `gorm:"size:80" json:"dstAmountFilled"`

	// Progress is a percentage in [0,100]; anything at or above 99 is
	// reported as fully filled.
	Progress float64 `json:"progress"`

	Deadline  time.Time     `json:"deadline"`
	FillDelay time.Duration `json:"fillDelay"`

	// TwapAddress is set on version 1 orders only; cancellation goes
	// through it.
	TwapAddress string `gorm:"size:60" json:"twapAddress,omitempty"`

	// Cache key: orders are stored per (account, chain, exchange adapter).
	Account  string `gorm:"size:60;index:idx_orders_scope" json:"account"`
	ChainID  uint64 `gorm:"index:idx_orders_scope" json:"chainId"`
	Exchange string `gorm:"size:60;index:idx_orders_scope" json:"exchange"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Fills []OrderFill `gorm:"foreignKey:OrderID;references:ID" json:"fills,omitempty"`
}

func (Order) TableName() string {
	return "cached_orders"
}

// OrderFill is one executed chunk of an order. Fills are append-only and
// derived from execution-chunk records; they are never mutated afterwards.
type OrderFill struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	OrderID   string    `gorm:"size:80;index" json:"-"`
	InAmount  string    `gorm:"size:80" json:"inAmount"`
	OutAmount string    `gorm:"size:80" json:"outAmount"`
	Timestamp time.Time `json:"timestamp"`
	TxHash    string    `gorm:"size:80" json:"txHash"`
}

func (OrderFill) TableName() string {
	return "cached_order_fills"
}

// IsMarketPrice reports whether the order executes at market, i.e. carries
// no real per-trade limit. A limit of "1" is the contract's sentinel for
// "no limit".
func (o *Order) IsMarketPrice() bool {
	return o.MinDstAmountPerTrade == "" || o.MinDstAmountPerTrade == "0" || o.MinDstAmountPerTrade == "1"
}
