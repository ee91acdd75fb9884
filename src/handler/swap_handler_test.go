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

	"spotengine/src/model"
)

type mockSwapExecutor struct {
	err      error
	status   model.SwapStatus
	executed *model.Quote
}

func (m *mockSwapExecutor) ExecuteSwap(ctx context.Context, quote *model.Quote) error {
	m.executed = quote
	return m.err
}

func (m *mockSwapExecutor) Execution() model.SwapExecution {
	return model.SwapExecution{Status: m.status, TxHash: "0xswaptx"}
}

func TestExecuteSwapHandler(t *testing.T) {
	exec := &mockSwapExecutor{status: model.SwapStatusSuccess}
	h := ExecuteSwapHandler(exec)

	body := `{"inToken":"0xin","outToken":"0xout","inAmount":"1000000","user":"0xmaker"}`
	req := httptest.NewRequest(http.MethodPost, "/swap", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	if exec.executed == nil || exec.executed.InAmount != "1000000" {
		t.Fatalf("expected the posted quote to be executed, got %+v", exec.executed)
	}

	var got model.SwapExecution
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, model.SwapStatusSuccess, got.Status)
	assert.Equal(t, "0xswaptx", got.TxHash)
}

func TestExecuteSwapHandlerValidation(t *testing.T) {
	h := ExecuteSwapHandler(&mockSwapExecutor{})

	body := `{"inToken":"0xin","inAmount":"1000000"}`
	req := httptest.NewRequest(http.MethodPost, "/swap", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExecuteSwapHandlerReportsFailureState(t *testing.T) {
	exec := &mockSwapExecutor{err: errors.New("boom"), status: model.SwapStatusFailed}
	h := ExecuteSwapHandler(exec)

	body := `{"inToken":"0xin","outToken":"0xout","inAmount":"1000000","user":"0xmaker"}`
	req := httptest.NewRequest(http.MethodPost, "/swap", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var got model.SwapExecution
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, model.SwapStatusFailed, got.Status)
}
