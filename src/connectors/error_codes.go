package connectors

import (
	"errors"
	"strings"

	"spotengine/src/model"
)

var (
	ErrSwapTimeout  = errors.New("swap timeout")
	ErrMissingChain = errors.New("chain id is not set")
	ErrMissingQuote = errors.New("quote is not set")
)

// HubErrorCodes maps known hub error strings to short machine codes the
// caller can branch on without substring checks.
var HubErrorCodes = map[string]string{
	"tns":                  "TOKEN_NOT_SUPPORTED",
	"not supported":        "TOKEN_NOT_SUPPORTED",
	"ldv":                  "LOW_DOLLAR_VALUE",
	"no liquidity":         "NO_LIQUIDITY",
	"slippage failed":      "SLIPPAGE_FAILED",
	"insufficient balance": "INSUFFICIENT_BALANCE",
	"expired":              "QUOTE_EXPIRED",
}

// stickyQuoteErrors are failure modes tied to the pair/amount itself, not to
// a transient backend condition. Once seen, re-quoting the same request will
// not recover.
var stickyQuoteErrors = []string{
	"not supported",
	"ldv",
	"no liquidity",
}

// IsStickyQuoteError reports whether the quote failure is permanent for the
// current pair and amount. Matching is substring-based because the hub
// returns free-text errors.
func IsStickyQuoteError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sticky := range stickyQuoteErrors {
		if strings.Contains(msg, sticky) {
			return true
		}
	}
	return false
}

// IsRejectedError reports whether the failure is the signer declining the
// request, as opposed to an execution fault.
func IsRejectedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rejected") || strings.Contains(msg, "denied")
}

// ParseError normalizes any failure into a user-presentable message plus a
// machine code when the text matches a known hub error.
func ParseError(err error) *model.ParsedError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for needle, code := range HubErrorCodes {
		if strings.Contains(lower, needle) {
			return &model.ParsedError{Message: msg, Code: code}
		}
	}
	return &model.ParsedError{Message: msg, Code: "UNKNOWN"}
}
