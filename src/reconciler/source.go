// Package reconciler merges the two order stores into one cached snapshot
// per account scope and derives fill and status signals from consecutive
// snapshots.
package reconciler

import (
	"context"

	"spotengine/src/connectors"
	"spotengine/src/mapper"
	"spotengine/src/model"
)

// OrderSource produces normalized orders for one account on one chain.
type OrderSource interface {
	Name() string
	GetOrders(ctx context.Context, account string, chainID uint64) ([]model.Order, error)
}

// V1Source reads legacy contract-native orders from the indexer and joins
// each order with the protocol config that carries its fill delay.
type V1Source struct {
	indexer *connectors.IndexerConnector
}

func NewV1Source(indexer *connectors.IndexerConnector) *V1Source {
	return &V1Source{indexer: indexer}
}

func (s *V1Source) Name() string { return "indexer-v1" }

func (s *V1Source) GetOrders(ctx context.Context, account string, chainID uint64) ([]model.Order, error) {
	indexed, err := s.indexer.GetOrders(ctx, account, chainID)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(indexed))
	for _, raw := range indexed {
		config, err := s.indexer.GetProtocolConfig(ctx, raw.ConfigKey)
		if err != nil {
			return nil, err
		}
		orders = append(orders, mapper.MapV1Order(raw, config, chainID))
	}
	return orders, nil
}

// V2Source reads permit-based orders from the orders API, narrowed to one
// exchange adapter when configured.
type V2Source struct {
	api      *connectors.OrdersAPIConnector
	exchange string
}

func NewV2Source(api *connectors.OrdersAPIConnector, exchange string) *V2Source {
	return &V2Source{api: api, exchange: exchange}
}

func (s *V2Source) Name() string { return "orders-api-v2" }

func (s *V2Source) GetOrders(ctx context.Context, account string, chainID uint64) ([]model.Order, error) {
	raw, err := s.api.GetOrders(ctx, account, chainID, s.exchange)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(raw))
	for _, order := range raw {
		orders = append(orders, mapper.MapV2Order(order))
	}
	return orders, nil
}
