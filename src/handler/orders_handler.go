package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/encoder"
	"spotengine/src/mapper"
	"spotengine/src/model"
)

type orderReader interface {
	FindByScope(ctx context.Context, account string, chainID uint64, exchange string) ([]model.Order, error)
}

type orderCanceler interface {
	CancelOrders(ctx context.Context, account string, chainID uint64, orders []model.Order) error
}

// orderView decorates a cached order with the derived per-unit prices:
// the realized average across fills, the worst acceptable per-trade price
// and the trigger price, when the order carries one.
type orderView struct {
	model.Order
	ExecutionRate string `json:"executionRate"`
	LimitRate     string `json:"limitRate,omitempty"`
	TriggerRate   string `json:"triggerRate,omitempty"`
}

// decimalsParam reads a token-decimals query parameter, defaulting to 18.
func decimalsParam(r *http.Request, name string) int32 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 32)
	if err != nil || v < 0 {
		return 18
	}
	return int32(v)
}

// ListOrdersHandler lists the cached orders for a swapper on a chain,
// optionally narrowed to one exchange adapter and status. Rates are
// computed with the srcDecimals/dstDecimals query parameters.
func ListOrdersHandler(repo orderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		swapper := r.URL.Query().Get("swapper")
		if swapper == "" {
			http.Error(w, "missing swapper", http.StatusBadRequest)
			return
		}

		chainParam := r.URL.Query().Get("chainId")
		chainID, err := strconv.ParseUint(chainParam, 10, 64)
		if err != nil || chainID == 0 {
			http.Error(w, "invalid chainId", http.StatusBadRequest)
			return
		}

		exchange := r.URL.Query().Get("exchange")

		orders, err := repo.FindByScope(r.Context(), swapper, chainID, exchange)
		if err != nil {
			logger.WithError(err).Error("failed to list cached orders")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if status := r.URL.Query().Get("status"); status != "" {
			filtered := orders[:0]
			for _, order := range orders {
				if string(order.Status) == status {
					filtered = append(filtered, order)
				}
			}
			orders = filtered
		}

		srcDecimals := decimalsParam(r, "srcDecimals")
		dstDecimals := decimalsParam(r, "dstDecimals")

		views := make([]orderView, 0, len(orders))
		for _, order := range orders {
			view := orderView{
				Order:         order,
				ExecutionRate: mapper.ExecutionRate(&order, srcDecimals, dstDecimals).String(),
			}
			if limit := mapper.LimitRate(&order, srcDecimals, dstDecimals); limit.IsPositive() {
				view.LimitRate = limit.String()
			}
			if trigger := mapper.TriggerRate(&order, srcDecimals, dstDecimals); trigger.IsPositive() {
				view.TriggerRate = trigger.String()
			}
			views = append(views, view)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(views); err != nil {
			logger.WithError(err).Error("failed to encode orders response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, params encoder.OrderParams, orderType model.OrderType) (*model.Order, error)
}

type submitOrderRequest struct {
	Type                 model.OrderType `json:"type"`
	Account              string          `json:"account"`
	SrcToken             string          `json:"srcToken"`
	DstToken             string          `json:"dstToken"`
	SrcAmount            string          `json:"srcAmount"`
	SrcAmountPerTrade    string          `json:"srcAmountPerTrade"`
	MinDstAmountPerTrade string          `json:"minDstAmountPerTrade"`
	TriggerPricePerTrade string          `json:"triggerPricePerTrade"`
	DeadlineMillis       int64           `json:"deadlineMillis"`
	FillDelayMillis      int64           `json:"fillDelayMillis"`
	Slippage             int             `json:"slippage"`
}

// SubmitOrderHandler places a conditional order: the witness is built and
// signed server-side, registered with the order store, and returned in its
// cached form.
func SubmitOrderHandler(submitter orderSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if req.Type == "" || req.Account == "" || req.SrcToken == "" || req.DstToken == "" {
			http.Error(w, "type, account and token pair are required", http.StatusBadRequest)
			return
		}
		if req.SrcAmount == "" || req.SrcAmountPerTrade == "" || req.DeadlineMillis <= 0 {
			http.Error(w, "amounts and deadline are required", http.StatusBadRequest)
			return
		}

		order, err := submitter.SubmitOrder(r.Context(), encoder.OrderParams{
			SrcToken:              req.SrcToken,
			DstToken:              req.DstToken,
			SrcAmount:             req.SrcAmount,
			SrcAmountPerTrade:     req.SrcAmountPerTrade,
			DstMinAmountPerTrade:  req.MinDstAmountPerTrade,
			TriggerAmountPerTrade: req.TriggerPricePerTrade,
			DeadlineMillis:        req.DeadlineMillis,
			FillDelayMillis:       req.FillDelayMillis,
			Slippage:              req.Slippage,
			Account:               req.Account,
		}, req.Type)
		if err != nil {
			logger.WithError(err).Error("order submission failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.WithError(err).Error("failed to encode submitted order")
		}
	}
}

type cancelRequest struct {
	Swapper string   `json:"swapper"`
	ChainID uint64   `json:"chainId"`
	Orders  []string `json:"orders"`
}

// CancelOrdersHandler cancels the named open orders for a swapper. The call
// returns once the cancellations are confirmed by the sources.
func CancelOrdersHandler(repo orderReader, canceler orderCanceler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if req.Swapper == "" || req.ChainID == 0 || len(req.Orders) == 0 {
			http.Error(w, "swapper, chainId and orders are required", http.StatusBadRequest)
			return
		}

		cached, err := repo.FindByScope(r.Context(), req.Swapper, req.ChainID, "")
		if err != nil {
			logger.WithError(err).Error("failed to load orders for cancellation")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		wanted := make(map[string]struct{}, len(req.Orders))
		for _, id := range req.Orders {
			wanted[id] = struct{}{}
		}

		var targets []model.Order
		for _, order := range cached {
			if _, ok := wanted[order.ID]; !ok {
				continue
			}
			if order.Status != model.OrderStatusOpen {
				http.Error(w, "order "+order.ID+" is not open", http.StatusConflict)
				return
			}
			targets = append(targets, order)
		}
		if len(targets) != len(req.Orders) {
			http.Error(w, "unknown order id", http.StatusNotFound)
			return
		}

		if err := canceler.CancelOrders(r.Context(), req.Swapper, req.ChainID, targets); err != nil {
			logger.WithError(err).Error("cancellation failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
