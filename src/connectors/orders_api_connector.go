package connectors

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"spotengine/src/externalmodel"
)

// OrdersAPIConnector talks to the version 2 order store, which serves
// permit-based orders keyed by hash.
type OrdersAPIConnector struct {
	http *resty.Client
}

func NewOrdersAPIConnector() *OrdersAPIConnector {
	config := GetConfig()
	return &OrdersAPIConnector{
		http: resty.New().
			SetBaseURL(config.OrdersAPIURL).
			SetTimeout(config.HTTPTimeout).
			SetRetryCount(2),
	}
}

// GetOrders fetches every version 2 order for a swapper on a chain,
// optionally narrowed to one exchange adapter.
func (c *OrdersAPIConnector) GetOrders(ctx context.Context, swapper string, chainID uint64, exchange string) ([]externalmodel.HubOrderV2, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("swapper", swapper).
		SetQueryParam("chainId", fmt.Sprint(chainID))
	if exchange != "" {
		req.SetQueryParam("exchange", exchange)
	}

	var result externalmodel.OrdersResponse
	resp, err := req.SetResult(&result).Get("/orders")
	if err != nil {
		return nil, fmt.Errorf("orders request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("orders non-2xx status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("orders failed: %s", result.Error)
	}
	return result.Orders, nil
}

type submitOrderResponse struct {
	Hash  string `json:"hash"`
	Error string `json:"error,omitempty"`
}

// SubmitOrder registers a signed conditional order and returns its hash.
func (c *OrdersAPIConnector) SubmitOrder(ctx context.Context, order externalmodel.RePermitOrder, signature string, chainID uint64) (string, error) {
	body := map[string]interface{}{
		"order":     order,
		"signature": signature,
		"chainId":   chainID,
	}

	var result submitOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/orders")
	if err != nil {
		return "", fmt.Errorf("order submit failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("order submit non-2xx status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != "" {
		return "", fmt.Errorf("order submit failed: %s", result.Error)
	}
	return result.Hash, nil
}
