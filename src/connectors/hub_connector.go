package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"spotengine/src/analytics"
	"spotengine/src/model"
)

const (
	// QuoteFreshnessSeconds is the max age before a held quote must be
	// re-fetched prior to execution.
	QuoteFreshnessSeconds = 60
)

var (
	swapStatusAttempts = 30
	swapStatusInterval = 2 * time.Second

	txDetailsAttempts = 10
	txDetailsInterval = 2500 * time.Millisecond
)

// hubURLByChain routes quote traffic to the per-chain hub deployment.
// Chains without a dedicated deployment fall through to the default.
var hubURLByChain = map[uint64]string{
	137:   "https://polygon.hub.orbs.network",
	56:    "https://bsc.hub.orbs.network",
	250:   "https://ftm.hub.orbs.network",
	8453:  "https://base.hub.orbs.network",
	59144: "https://linea.hub.orbs.network",
	81457: "https://blast.hub.orbs.network",
	1101:  "https://zkevm.hub.orbs.network",
	146:   "https://sonic.hub.orbs.network",
	2741:  "https://abstract.hub.orbs.network",
	1:     "https://eth.hub.orbs.network",
	42161: "https://arbitrum.hub.orbs.network",
	1329:  "https://sei.hub.orbs.network",
	5000:  "https://mantle.hub.orbs.network",
}

const hubURLDefault = "https://hub.orbs.network"

// HubURL resolves the hub deployment for a chain, honoring the env
// override first.
func HubURL(chainID uint64) string {
	if override := GetConfig().HubBaseURL; override != "" {
		return strings.TrimRight(override, "/")
	}
	if url, ok := hubURLByChain[chainID]; ok {
		return url
	}
	return hubURLDefault
}

// QuoteRequest is the caller-side shape of a quote ask. DexMinAmountOut is
// the best competing dex output and may be empty when no comparison exists.
type QuoteRequest struct {
	FromToken       string
	ToToken         string
	InAmount        string
	DexMinAmountOut string
	Account         string
	Slippage        float64
	QS              string
}

// quoteKey is the identity of a quoting session. While it stays the same,
// consecutive quotes reuse one session id so the hub can serve its
// server-side cache.
type quoteKey struct {
	fromToken string
	toToken   string
	inAmount  string
	account   string
}

type HubConnector struct {
	http     *resty.Client
	config   Config
	chainID  uint64
	recorder *analytics.Recorder

	mu      sync.Mutex
	lastKey *quoteKey
}

func NewHubConnector(chainID uint64, recorder *analytics.Recorder) *HubConnector {
	config := GetConfig()
	httpClient := resty.New().
		SetBaseURL(HubURL(chainID)).
		SetTimeout(config.HTTPTimeout).
		SetRetryCount(0)

	return &HubConnector{
		http:     httpClient,
		config:   config,
		chainID:  chainID,
		recorder: recorder,
	}
}

// sessionFor returns the session id to attach to this quote, rotating it
// when the pair, amount or account changed since the previous quote.
func (c *HubConnector) sessionFor(req QuoteRequest) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := quoteKey{
		fromToken: strings.ToLower(req.FromToken),
		toToken:   strings.ToLower(req.ToToken),
		inAmount:  req.InAmount,
		account:   strings.ToLower(req.Account),
	}
	if c.lastKey == nil || *c.lastKey != key {
		c.lastKey = &key
		return c.recorder.NewSession()
	}
	return c.recorder.SessionID()
}

// GetQuote asks the hub for an executable quote. A 200 response whose body
// carries an error field is a failure, same as a transport error.
func (c *HubConnector) GetQuote(ctx context.Context, req QuoteRequest) (*model.Quote, error) {
	if c.chainID == 0 {
		return nil, ErrMissingChain
	}

	sessionID := c.sessionFor(req)

	outAmount := req.DexMinAmountOut
	if outAmount == "" {
		outAmount = "-1"
	}

	body := map[string]interface{}{
		"inToken":   req.FromToken,
		"outToken":  req.ToToken,
		"inAmount":  req.InAmount,
		"outAmount": outAmount,
		"user":      req.Account,
		"slippage":  req.Slippage,
		"qs":        req.QS,
		"partner":   c.config.Partner,
		"sessionId": sessionID,
	}

	c.recorder.OnRequest(analytics.StageQuote, map[string]interface{}{
		"inToken":  req.FromToken,
		"outToken": req.ToToken,
		"inAmount": req.InAmount,
	})

	ctx, cancel := context.WithTimeout(ctx, c.config.QuoteTimeout)
	defer cancel()

	var quote model.Quote
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("chainId", fmt.Sprint(c.chainID)).
		SetBody(body).
		SetResult(&quote).
		Post("/quote")
	if err != nil {
		c.recorder.OnFailed(analytics.StageQuote, err.Error())
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	if resp.IsError() {
		err = fmt.Errorf("quote non-2xx status %d: %s", resp.StatusCode(), resp.String())
		c.recorder.OnFailed(analytics.StageQuote, err.Error())
		return nil, err
	}
	if quote.Error != "" {
		err = fmt.Errorf("quote failed: %s", quote.Error)
		c.recorder.OnFailed(analytics.StageQuote, quote.Error)
		return nil, err
	}

	quote.SessionID = sessionID
	quote.Timestamp = time.Now()

	c.recorder.OnSuccess(analytics.StageQuote, map[string]interface{}{
		"outAmount": quote.OutAmount,
	})
	return &quote, nil
}

// SubmitSwap ships the signed order for execution. The call is
// fire-and-forget on the hub side; confirmation happens through the
// status poll that follows.
func (c *HubConnector) SubmitSwap(ctx context.Context, quote *model.Quote, signature string) error {
	if quote == nil {
		return ErrMissingQuote
	}

	body := map[string]interface{}{
		"inToken":   quote.InToken,
		"outToken":  quote.OutToken,
		"inAmount":  quote.InAmount,
		"outAmount": quote.OutAmount,
		"user":      quote.User,
		"signature": signature,
		"sessionId": quote.SessionID,
	}
	if quote.SerializedOrder != "" {
		body["serializedOrder"] = quote.SerializedOrder
	}
	if len(quote.PermitData) > 0 {
		body["permitData"] = json.RawMessage(quote.PermitData)
	}

	var result struct {
		TxHash string `json:"txHash"`
		Error  string `json:"error,omitempty"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("chainId", fmt.Sprint(c.chainID)).
		SetBody(body).
		SetResult(&result).
		Post("/swap-async")
	if err != nil {
		return fmt.Errorf("swap submit failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("swap submit non-2xx status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != "" {
		return fmt.Errorf("swap submit failed: %s", result.Error)
	}
	return nil
}

type swapStatusResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error,omitempty"`
}

// WaitForSwapStatus polls for the settlement transaction hash. Individual
// poll failures are swallowed; only exhausting the attempt budget is an
// error, reported as ErrSwapTimeout.
func (c *HubConnector) WaitForSwapStatus(ctx context.Context, sessionID, user string) (string, error) {
	for attempt := 0; attempt < swapStatusAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(swapStatusInterval):
		}

		var status swapStatusResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("chainId", fmt.Sprint(c.chainID)).
			SetBody(map[string]string{"user": user}).
			SetResult(&status).
			Post("/swap/status/" + sessionID)
		if err != nil || resp.IsError() {
			logger.WithFields(logger.Fields{
				"attempt":   attempt,
				"sessionId": sessionID,
			}).Debug("swap status poll failed, retrying")
			continue
		}
		if status.Error != "" {
			return "", fmt.Errorf("swap failed: %s", status.Error)
		}
		if status.TxHash != "" {
			return status.TxHash, nil
		}
	}
	return "", ErrSwapTimeout
}

type TxDetails struct {
	Status         string `json:"status"`
	ExactOutAmount string `json:"exactOutAmount,omitempty"`
	GasCharges     string `json:"gasCharges,omitempty"`
}

// GetTxDetails polls until the settlement transaction reaches a terminal
// on-chain state. Unlike the status poll above, a request error here fails
// immediately; at this point the hub has already accepted the swap, so a
// dead endpoint means nothing more can be learned by retrying.
func (c *HubConnector) GetTxDetails(ctx context.Context, txHash string, quote *model.Quote) (*TxDetails, error) {
	if quote == nil {
		return nil, ErrMissingQuote
	}
	body := map[string]interface{}{
		"outToken":  quote.OutToken,
		"user":      quote.User,
		"qs":        quote.QS,
		"partner":   c.config.Partner,
		"sessionId": quote.SessionID,
	}

	for attempt := 0; attempt < txDetailsAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(txDetailsInterval):
		}

		var details TxDetails
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("chainId", fmt.Sprint(c.chainID)).
			SetBody(body).
			SetResult(&details).
			Post("/tx/" + txHash)
		if err != nil {
			return nil, fmt.Errorf("tx details request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("tx details non-2xx status %d: %s", resp.StatusCode(), resp.String())
		}
		if strings.EqualFold(details.Status, "mined") {
			return &details, nil
		}
	}
	return nil, fmt.Errorf("tx %s not mined after %d attempts: %w", txHash, txDetailsAttempts, ErrSwapTimeout)
}
