package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"spotengine/src/encoder"
	"spotengine/src/model"
)

type mockOrderReader struct {
	orders  []model.Order
	err     error
	account string
	chainID uint64
}

func (m *mockOrderReader) FindByScope(ctx context.Context, account string, chainID uint64, exchange string) ([]model.Order, error) {
	m.account = account
	m.chainID = chainID
	return m.orders, m.err
}

type mockCanceler struct {
	canceled []model.Order
	err      error
}

func (m *mockCanceler) CancelOrders(ctx context.Context, account string, chainID uint64, orders []model.Order) error {
	m.canceled = orders
	return m.err
}

func TestListOrdersHandler(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{
		{ID: "0xaaa", Status: model.OrderStatusOpen},
		{ID: "0xbbb", Status: model.OrderStatusCompleted},
	}}
	h := ListOrdersHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/orders?swapper=0xmaker&chainId=137", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0xmaker", repo.account)
	assert.Equal(t, uint64(137), repo.chainID)

	var got []model.Order
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Len(t, got, 2)
}

func TestListOrdersHandlerDerivedRates(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{{
		ID:                   "0xaaa",
		Status:               model.OrderStatusOpen,
		SrcAmountFilled:      "1000000",
		DstAmountFilled:      "500000000000000000",
		SrcAmountPerTrade:    "1000000",
		MinDstAmountPerTrade: "400000000000000000",
		TriggerPricePerTrade: "450000000000000000",
	}}}
	h := ListOrdersHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/orders?swapper=0xmaker&chainId=137&srcDecimals=6&dstDecimals=18", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []orderView
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one order, got %d", len(got))
	}
	assert.Equal(t, "0.5", got[0].ExecutionRate)
	assert.Equal(t, "0.4", got[0].LimitRate)
	assert.Equal(t, "0.45", got[0].TriggerRate)
}

func TestListOrdersHandlerFiltersStatus(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{
		{ID: "0xaaa", Status: model.OrderStatusOpen},
		{ID: "0xbbb", Status: model.OrderStatusCompleted},
	}}
	h := ListOrdersHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/orders?swapper=0xmaker&chainId=137&status=open", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var got []model.Order
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "0xaaa" {
		t.Fatalf("expected only the open order, got %+v", got)
	}
}

func TestListOrdersHandlerValidation(t *testing.T) {
	h := ListOrdersHandler(&mockOrderReader{})

	t.Run("missing swapper", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?chainId=137", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad chain id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?swapper=0xmaker&chainId=abc", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

type mockOrderSubmitter struct {
	order     *model.Order
	err       error
	params    encoder.OrderParams
	orderType model.OrderType
}

func (m *mockOrderSubmitter) SubmitOrder(ctx context.Context, params encoder.OrderParams, orderType model.OrderType) (*model.Order, error) {
	m.params = params
	m.orderType = orderType
	return m.order, m.err
}

func TestSubmitOrderHandler(t *testing.T) {
	submitter := &mockOrderSubmitter{order: &model.Order{ID: "0xhash", Status: model.OrderStatusOpen}}
	h := SubmitOrderHandler(submitter)

	body := `{
		"type": "twap-limit",
		"account": "0xmaker",
		"srcToken": "0xin",
		"dstToken": "0xout",
		"srcAmount": "1000000",
		"srcAmountPerTrade": "250000",
		"minDstAmountPerTrade": "120000",
		"deadlineMillis": 1780000000000,
		"fillDelayMillis": 60000,
		"slippage": 50
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders/submit", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, model.OrderTypeTwapLimit, submitter.orderType)
	assert.Equal(t, "1000000", submitter.params.SrcAmount)
	assert.Equal(t, "120000", submitter.params.DstMinAmountPerTrade)
	assert.Equal(t, int64(1780000000000), submitter.params.DeadlineMillis)

	var got model.Order
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "0xhash", got.ID)
}

func TestSubmitOrderHandlerValidation(t *testing.T) {
	h := SubmitOrderHandler(&mockOrderSubmitter{})

	t.Run("missing pair", func(t *testing.T) {
		body := `{"type":"limit","account":"0xmaker","srcAmount":"1000000","srcAmountPerTrade":"250000","deadlineMillis":1780000000000}`
		req := httptest.NewRequest(http.MethodPost, "/orders/submit", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing deadline", func(t *testing.T) {
		body := `{"type":"limit","account":"0xmaker","srcToken":"0xin","dstToken":"0xout","srcAmount":"1000000","srcAmountPerTrade":"250000"}`
		req := httptest.NewRequest(http.MethodPost, "/orders/submit", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSubmitOrderHandlerPropagatesFailure(t *testing.T) {
	h := SubmitOrderHandler(&mockOrderSubmitter{err: errors.New("order submit failed")})

	body := `{"type":"limit","account":"0xmaker","srcToken":"0xin","dstToken":"0xout","srcAmount":"1000000","srcAmountPerTrade":"250000","deadlineMillis":1780000000000}`
	req := httptest.NewRequest(http.MethodPost, "/orders/submit", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCancelOrdersHandler(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{
		{ID: "0xaaa", Status: model.OrderStatusOpen},
		{ID: "0xbbb", Status: model.OrderStatusOpen},
	}}
	canceler := &mockCanceler{}
	h := CancelOrdersHandler(repo, canceler)

	body := `{"swapper":"0xmaker","chainId":137,"orders":["0xaaa"]}`
	req := httptest.NewRequest(http.MethodPost, "/orders/cancel", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	if len(canceler.canceled) != 1 || canceler.canceled[0].ID != "0xaaa" {
		t.Fatalf("expected one cancellation target, got %+v", canceler.canceled)
	}
}

func TestCancelOrdersHandlerRejectsNonOpen(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{
		{ID: "0xaaa", Status: model.OrderStatusCompleted},
	}}
	h := CancelOrdersHandler(repo, &mockCanceler{})

	body := `{"swapper":"0xmaker","chainId":137,"orders":["0xaaa"]}`
	req := httptest.NewRequest(http.MethodPost, "/orders/cancel", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCancelOrdersHandlerUnknownOrder(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{}}
	h := CancelOrdersHandler(repo, &mockCanceler{})

	body := `{"swapper":"0xmaker","chainId":137,"orders":["0xmissing"]}`
	req := httptest.NewRequest(http.MethodPost, "/orders/cancel", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCancelOrdersHandlerPropagatesFailure(t *testing.T) {
	repo := &mockOrderReader{orders: []model.Order{
		{ID: "0xaaa", Status: model.OrderStatusOpen},
	}}
	h := CancelOrdersHandler(repo, &mockCanceler{err: errors.New("boom")})

	body := `{"swapper":"0xmaker","chainId":137,"orders":["0xaaa"]}`
	req := httptest.NewRequest(http.MethodPost, "/orders/cancel", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
