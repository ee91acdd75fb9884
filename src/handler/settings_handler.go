package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/model"
)

type settingsStore interface {
	Load(ctx context.Context, account string, chainID uint64) (*model.AccountSettings, error)
	Save(ctx context.Context, settings *model.AccountSettings) error
}

// GetSettingsHandler returns the stored preferences for an account, falling
// back to defaults when none were saved yet.
func GetSettingsHandler(repo settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := r.URL.Query().Get("account")
		if account == "" {
			http.Error(w, "missing account", http.StatusBadRequest)
			return
		}
		chainID, err := strconv.ParseUint(r.URL.Query().Get("chainId"), 10, 64)
		if err != nil || chainID == 0 {
			http.Error(w, "invalid chainId", http.StatusBadRequest)
			return
		}

		settings, err := repo.Load(r.Context(), strings.ToLower(account), chainID)
		if err != nil {
			logger.WithError(err).Error("failed to load account settings")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(settings); err != nil {
			logger.WithError(err).Error("failed to encode settings response")
		}
	}
}

// SaveSettingsHandler writes preferences through, inserting on first use.
func SaveSettingsHandler(repo settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings model.AccountSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if settings.Account == "" || settings.ChainID == 0 {
			http.Error(w, "account and chainId are required", http.StatusBadRequest)
			return
		}
		settings.Account = strings.ToLower(settings.Account)

		if err := repo.Save(r.Context(), &settings); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
