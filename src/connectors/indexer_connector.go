package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"

	"spotengine/src/externalmodel"
)

// IndexerConnector talks to the legacy version 1 indexer, which serves
// contract-native orders keyed by numeric id. Protocol configs are
// immutable per key, so lookups are cached for the connector lifetime.
type IndexerConnector struct {
	http *resty.Client

	mu      sync.Mutex
	configs map[string]externalmodel.ProtocolConfigV1
}

func NewIndexerConnector() *IndexerConnector {
	config := GetConfig()
	return &IndexerConnector{
		http: resty.New().
			SetBaseURL(config.IndexerURL).
			SetTimeout(config.HTTPTimeout).
			SetRetryCount(2),
		configs: map[string]externalmodel.ProtocolConfigV1{},
	}
}

// GetOrders fetches every version 1 order a maker created on a chain.
func (c *IndexerConnector) GetOrders(ctx context.Context, maker string, chainID uint64) ([]externalmodel.IndexedOrderV1, error) {
	var result externalmodel.IndexedOrdersResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("maker", maker).
		SetQueryParam("chainId", fmt.Sprint(chainID)).
		SetResult(&result).
		Get("/orders")
	if err != nil {
		return nil, fmt.Errorf("indexed orders request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("indexed orders non-2xx status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("indexed orders failed: %s", result.Error)
	}
	return result.Orders, nil
}

// GetProtocolConfig resolves the deployment config an order references; the
// fill delay between chunks lives there, not on the order.
func (c *IndexerConnector) GetProtocolConfig(ctx context.Context, key string) (externalmodel.ProtocolConfigV1, error) {
	c.mu.Lock()
	if cached, ok := c.configs[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var config externalmodel.ProtocolConfigV1
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&config).
		Get("/configs/" + key)
	if err != nil {
		return config, fmt.Errorf("protocol config request failed: %w", err)
	}
	if resp.IsError() {
		return config, fmt.Errorf("protocol config non-2xx status %d: %s", resp.StatusCode(), resp.String())
	}

	c.mu.Lock()
	c.configs[key] = config
	c.mu.Unlock()
	return config, nil
}
