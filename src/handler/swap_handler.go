package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/model"
)

type swapExecutor interface {
	ExecuteSwap(ctx context.Context, quote *model.Quote) error
	Execution() model.SwapExecution
}

// ExecuteSwapHandler runs one swap attempt to settlement and returns the
// final execution state. The posted quote is re-validated before signing, so
// a stale quote is re-fetched rather than rejected. A wallet rejection is
// not a failure; it comes back as an unset execution.
func ExecuteSwapHandler(exec swapExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var quote model.Quote
		if err := json.NewDecoder(r.Body).Decode(&quote); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if quote.InToken == "" || quote.OutToken == "" || quote.InAmount == "" || quote.User == "" {
			http.Error(w, "inToken, outToken, inAmount and user are required", http.StatusBadRequest)
			return
		}

		err := exec.ExecuteSwap(r.Context(), &quote)
		execution := exec.Execution()

		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			logger.WithError(err).Error("swap attempt failed")
			w.WriteHeader(http.StatusInternalServerError)
		}
		if encErr := json.NewEncoder(w).Encode(execution); encErr != nil {
			logger.WithError(encErr).Error("failed to encode execution response")
		}
	}
}
