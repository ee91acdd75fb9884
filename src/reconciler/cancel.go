package reconciler

import (
	"context"
	"strconv"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/analytics"
	"spotengine/src/connectors"
	"spotengine/src/model"
)

var cancelPollInterval = 1 * time.Second

// Canceler drives order cancellation across both storage schemes. Version 1
// orders need one contract call each; version 2 orders cancel as one batch
// against the repermit contract.
type Canceler struct {
	wallet          connectors.Wallet
	reconciler      *Reconciler
	repermitAddress string
	recorder        *analytics.Recorder
}

func NewCanceler(wallet connectors.Wallet, reconciler *Reconciler, repermitAddress string, recorder *analytics.Recorder) *Canceler {
	return &Canceler{
		wallet:          wallet,
		reconciler:      reconciler,
		repermitAddress: repermitAddress,
		recorder:        recorder,
	}
}

// CancelOrders submits the cancellations and then syncs until every targeted
// order reads canceled. The poll is deliberately unbounded; the
// transactions are already on chain and the only exit besides confirmation
// is the caller's context.
func (c *Canceler) CancelOrders(ctx context.Context, account string, chainID uint64, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	c.recorder.OnRequest(analytics.StageCancel, map[string]interface{}{"orders": ids})

	if err := c.submitCancellations(ctx, orders); err != nil {
		c.recorder.OnFailed(analytics.StageCancel, err.Error())
		return err
	}

	if err := c.waitCanceled(ctx, account, chainID, orders); err != nil {
		c.recorder.OnFailed(analytics.StageCancel, err.Error())
		return err
	}

	c.recorder.OnSuccess(analytics.StageCancel, map[string]interface{}{"orders": ids})
	return nil
}

func (c *Canceler) submitCancellations(ctx context.Context, orders []model.Order) error {
	var v2Hashes []string
	var v1Orders []model.Order
	for _, order := range orders {
		if order.Version == 2 {
			v2Hashes = append(v2Hashes, order.Hash)
		} else {
			v1Orders = append(v1Orders, order)
		}
	}

	errCh := make(chan error, len(v1Orders)+1)
	var wg sync.WaitGroup

	for _, order := range v1Orders {
		wg.Add(1)
		go func(order model.Order) {
			defer wg.Done()
			id, err := strconv.ParseUint(order.ID, 10, 64)
			if err != nil {
				errCh <- err
				return
			}
			txHash, err := c.wallet.CancelOrderV1(ctx, order.TwapAddress, id)
			if err != nil {
				errCh <- err
				return
			}
			logger.WithFields(logger.Fields{
				"orderId": order.ID,
				"txHash":  txHash,
			}).Info("submitted legacy order cancellation")
		}(order)
	}

	if len(v2Hashes) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txHash, err := c.wallet.CancelOrdersV2(ctx, c.repermitAddress, v2Hashes)
			if err != nil {
				errCh <- err
				return
			}
			logger.WithFields(logger.Fields{
				"orders": len(v2Hashes),
				"txHash": txHash,
			}).Info("submitted batched order cancellation")
		}()
	}

	wg.Wait()
	close(errCh)

	// first error wins; the rest were still submitted
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Canceler) waitCanceled(ctx context.Context, account string, chainID uint64, orders []model.Order) error {
	pending := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		pending[order.ID] = struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cancelPollInterval):
		}

		snapshot, err := c.reconciler.Sync(ctx, account, chainID)
		if err != nil {
			logger.WithError(err).Debug("cancel poll sync failed, retrying")
			continue
		}

		for _, order := range snapshot {
			if _, waiting := pending[order.ID]; !waiting {
				continue
			}
			// only a canceled reading releases the wait; an order that
			// completes or expires mid-cancel is not what was asked for
			if order.Status == model.OrderStatusCanceled {
				delete(pending, order.ID)
			}
		}
		if len(pending) == 0 {
			return nil
		}
	}
}
