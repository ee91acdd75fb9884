package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/model"
)

type exceptionReader interface {
	FindLatest(ctx context.Context, limit int) ([]model.Exception, error)
}

// ListExceptionsHandler exposes the most recent persisted engine faults,
// newest first, for operational debugging.
func ListExceptionsHandler(repo exceptionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		exceptions, err := repo.FindLatest(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list exceptions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(exceptions); err != nil {
			logger.WithError(err).Error("failed to encode exceptions response")
		}
	}
}
