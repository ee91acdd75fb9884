package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spotengine/src/database"
	"spotengine/src/model"
)

// defaultSlippagePercent applies when an account has never saved settings.
const defaultSlippagePercent = 0.5

// SettingsRepository persists per-account preferences.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance, used by tests.
func (r *SettingsRepository) WithDB(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load returns the stored settings for an account, falling back to defaults
// when none exist yet.
func (r *SettingsRepository) Load(ctx context.Context, account string, chainID uint64) (*model.AccountSettings, error) {
	var settings model.AccountSettings
	err := r.db.WithContext(ctx).
		Where("account = ? AND chain_id = ?", account, chainID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.AccountSettings{
			Account:         account,
			ChainID:         chainID,
			SlippagePercent: defaultSlippagePercent,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save writes settings through, inserting on first use.
func (r *SettingsRepository) Save(ctx context.Context, settings *model.AccountSettings) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account"}, {Name: "chain_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SettingsRepository",
			"account": settings.Account,
			"chainId": settings.ChainID,
		}).WithError(err).Error("Failed to save account settings")
	}
	return err
}

// Hydrate loads every stored settings row, used once at startup to warm the
// in-process cache.
func (r *SettingsRepository) Hydrate(ctx context.Context) ([]model.AccountSettings, error) {
	var all []model.AccountSettings
	if err := r.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, err
	}
	logger.WithField("count", len(all)).Info("Hydrated account settings")
	return all, nil
}
