package model

import (
	"encoding/json"
	"time"
)

// Quote is a time-bound price commitment from the hub for one token pair and
// input amount. Timestamp is stamped client-side on receipt; the server's own
// clock is never trusted for freshness.
type Quote struct {
	InToken         string          `json:"inToken"`
	OutToken        string          `json:"outToken"`
	InAmount        string          `json:"inAmount"`
	OutAmount       string          `json:"outAmount"`
	MinAmountOut    string          `json:"minAmountOut"`
	User            string          `json:"user"`
	Slippage        float64         `json:"slippage"`
	QS              string          `json:"qs"`
	Partner         string          `json:"partner"`
	Exchange        string          `json:"exchange"`
	SessionID       string          `json:"sessionId"`
	SerializedOrder string          `json:"serializedOrder"`
	PermitData      json.RawMessage `json:"permitData,omitempty"`
	SignablePayload json.RawMessage `json:"eip712,omitempty"`
	GasAmountOut    string          `json:"gasAmountOut,omitempty"`
	ReferencePrice  string          `json:"referencePrice,omitempty"`
	Error           string          `json:"error,omitempty"`

	Timestamp time.Time `json:"-"`
}

// IsFreshQuote reports whether the quote is still young enough to sign.
// A quote older than maxAgeSeconds must be replaced before signing.
func IsFreshQuote(q *Quote, maxAgeSeconds int) bool {
	if q == nil {
		return false
	}
	return time.Since(q.Timestamp) < time.Duration(maxAgeSeconds)*time.Second
}
