package externalmodel

// IndexedOrderV1 is a legacy contract-native order as returned by the
// indexer, keyed by a numeric id. Its fill delay is not carried on the
// order itself; it comes from a separate protocol configuration lookup.
type IndexedOrderV1 struct {
	ID          uint64 `json:"id"`
	Maker       string `json:"maker"`
	TwapAddress string `json:"twapAddress"`
	ConfigKey   string `json:"configKey"`

	SrcToken        string `json:"srcToken"`
	DstToken        string `json:"dstToken"`
	SrcAmount       string `json:"srcAmount"`
	SrcBidAmount    string `json:"srcBidAmount"`
	DstMinAmount    string `json:"dstMinAmount"`
	SrcFilledAmount string `json:"srcFilledAmount"`

	Status    string          `json:"status"`
	Deadline  int64           `json:"deadline"`  // unix seconds
	CreatedAt int64           `json:"createdAt"` // unix seconds
	Fills     []IndexedFillV1 `json:"fills"`
}

type IndexedFillV1 struct {
	SrcAmountIn  string `json:"srcAmountIn"`
	DstAmountOut string `json:"dstAmountOut"`
	TxHash       string `json:"txHash"`
	Timestamp    int64  `json:"timestamp"` // unix seconds
}

// ProtocolConfigV1 is the per-deployment configuration the indexer exposes;
// the only field the engine needs is the fill delay between chunks.
type ProtocolConfigV1 struct {
	Key              string `json:"key"`
	FillDelaySeconds int64  `json:"fillDelaySeconds"`
	TwapAddress      string `json:"twapAddress"`
}

type IndexedOrdersResponse struct {
	Orders []IndexedOrderV1 `json:"orders"`
	Error  string           `json:"error,omitempty"`
}
