package controller

import (
	"context"
	"fmt"
	"math/big"
	"time"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/analytics"
	"spotengine/src/connectors"
	"spotengine/src/encoder"
	"spotengine/src/externalmodel"
	"spotengine/src/mapper"
	"spotengine/src/model"
	"spotengine/src/reconciler"
	"spotengine/src/repository"
)

// OrderSubmitter is the slice of the orders API the submission flow needs.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order externalmodel.RePermitOrder, signature string, chainID uint64) (string, error)
}

// OrderController submits conditional orders: build the witness, sign it,
// register it with the order store, then cache it optimistically so the
// next read shows the order before the store has indexed it.
type OrderController struct {
	api        OrderSubmitter
	wallet     connectors.Wallet
	reconciler *reconciler.Reconciler
	recorder   *analytics.Recorder
	excRepo    *repository.ExceptionRepository
	spot       encoder.SpotConfig
	chainID    uint64
}

func NewOrderController(
	api OrderSubmitter,
	wallet connectors.Wallet,
	rec *reconciler.Reconciler,
	recorder *analytics.Recorder,
	excRepo *repository.ExceptionRepository,
	spot encoder.SpotConfig,
	chainID uint64,
) *OrderController {
	return &OrderController{
		api:        api,
		wallet:     wallet,
		reconciler: rec,
		recorder:   recorder,
		excRepo:    excRepo,
		spot:       spot,
		chainID:    chainID,
	}
}

// SubmitOrder runs the whole conditional-order flow and returns the cached
// order keyed by the hash the store assigned.
func (c *OrderController) SubmitOrder(ctx context.Context, params encoder.OrderParams, orderType model.OrderType) (*model.Order, error) {
	params.ChainID = c.chainID
	data, err := encoder.BuildOrderData(params, c.spot, orderType)
	if err != nil {
		return nil, err
	}

	c.recorder.OnRequest(analytics.StageSignature, map[string]interface{}{"type": string(orderType)})
	signature, err := c.wallet.SignTypedData(data.TypedData)
	if err != nil {
		c.recorder.OnFailed(analytics.StageSignature, err.Error())
		if connectors.IsRejectedError(err) {
			return nil, err
		}
		Capture(ctx, c.excRepo, "spotengine", "controller", "SignTypedData", "error", err, map[string]interface{}{
			"chainId": c.chainID,
		})
		return nil, fmt.Errorf("order signing failed: %w", err)
	}
	c.recorder.OnSuccess(analytics.StageSignature, nil)

	hash, err := c.api.SubmitOrder(ctx, data.Order, signature, c.chainID)
	if err != nil {
		Capture(ctx, c.excRepo, "spotengine", "controller", "SubmitOrder", "error", err, map[string]interface{}{
			"chainId": c.chainID,
		})
		return nil, err
	}

	cached := mapper.MapV2Order(externalmodel.HubOrderV2{
		Hash:      hash,
		Timestamp: time.Now().UTC(),
		Order:     data.Order,
		Metadata: externalmodel.OrderMetadata{
			Status:         "pending",
			ExpectedChunks: expectedChunks(params),
		},
	})
	if err := c.reconciler.InsertOptimistic(ctx, cached); err != nil {
		// the order exists on the store either way; the next sync heals the cache
		logger.WithError(err).Warn("optimistic order insert failed")
	}

	logger.WithFields(logger.Fields{
		"hash": hash,
		"type": string(orderType),
	}).Info("conditional order submitted")
	return &cached, nil
}

func expectedChunks(params encoder.OrderParams) int {
	total, okTotal := parseAmount(params.SrcAmount)
	per, okPer := parseAmount(params.SrcAmountPerTrade)
	if !okTotal || !okPer || per.Sign() <= 0 {
		return 1
	}
	chunks := new(big.Int).Div(total, per).Int64()
	if chunks < 1 {
		return 1
	}
	return int(chunks)
}
