// Package externalmodel holds the raw wire shapes returned by the hub, the
// orders API and the legacy indexer. Nothing in here is persisted; the
// mapper package converts these into model.Order.
package externalmodel

import "time"

// RePermitExchange identifies the settlement adapter inside the witness.
type RePermitExchange struct {
	Adapter string `json:"adapter"`
	Ref     string `json:"ref"`
	Share   int    `json:"share"`
	Data    string `json:"data"`
}

type RePermitInput struct {
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	MaxAmount string `json:"maxAmount"`
}

type RePermitOutput struct {
	Token     string `json:"token"`
	Limit     string `json:"limit"`
	Stop      string `json:"stop"`
	Recipient string `json:"recipient"`
}

// RePermitWitness is the signed constraint set of a version 2 order, as the
// orders API echoes it back.
type RePermitWitness struct {
	Reactor     string           `json:"reactor"`
	Executor    string           `json:"executor"`
	Exchange    RePermitExchange `json:"exchange"`
	Swapper     string           `json:"swapper"`
	Nonce       string           `json:"nonce"`
	Deadline    string           `json:"deadline"`
	ChainID     uint64           `json:"chainid"`
	Exclusivity int              `json:"exclusivity"`
	Epoch       int64            `json:"epoch"`
	Slippage    int              `json:"slippage"`
	Freshness   int              `json:"freshness"`
	Input       RePermitInput    `json:"input"`
	Output      RePermitOutput   `json:"output"`
}

type RePermitPermitted struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type RePermitOrder struct {
	Permitted RePermitPermitted `json:"permitted"`
	Spender   string            `json:"spender"`
	Nonce     string            `json:"nonce"`
	Deadline  string            `json:"deadline"`
	Witness   RePermitWitness   `json:"witness"`
}

// OrderChunk is one execution slice as recorded by the orders API.
type OrderChunk struct {
	Status    string    `json:"status"`
	InAmount  string    `json:"inAmount"`
	OutAmount string    `json:"outAmount"`
	TxHash    string    `json:"txHash"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderMetadata struct {
	Status         string       `json:"status"`
	Description    string       `json:"description"`
	Chunks         []OrderChunk `json:"chunks"`
	ExpectedChunks int          `json:"expectedChunks"`
	// DisplayOnlyInputTokenPriceUSD is an 18-decimals fixed-point string;
	// informational only.
	DisplayOnlyInputTokenPriceUSD string `json:"displayOnlyInputTokenPriceUSD"`
}

// HubOrderV2 is a generalized permit-based order, keyed by hash.
type HubOrderV2 struct {
	Hash      string        `json:"hash"`
	Timestamp time.Time     `json:"timestamp"`
	Order     RePermitOrder `json:"order"`
	Metadata  OrderMetadata `json:"metadata"`
}

type OrdersResponse struct {
	Orders []HubOrderV2 `json:"orders"`
	Error  string       `json:"error,omitempty"`
}
