package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spotengine/src/database"
	"spotengine/src/model"
)

// OrderCacheRepository persists the merged order snapshot per
// (account, chain, exchange) scope. The cache is replaced wholesale on every
// reconcile so reads never see a half-merged state.
type OrderCacheRepository struct {
	db *gorm.DB
}

func NewOrderCacheRepository() *OrderCacheRepository {
	return &OrderCacheRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance, used by tests.
func (r *OrderCacheRepository) WithDB(db *gorm.DB) *OrderCacheRepository {
	return &OrderCacheRepository{db: db}
}

// FindByScope returns the cached snapshot for one account on one chain,
// newest first, optionally narrowed to one exchange adapter.
func (r *OrderCacheRepository) FindByScope(
	ctx context.Context,
	account string,
	chainID uint64,
	exchange string,
) ([]model.Order, error) {

	query := r.db.WithContext(ctx).
		Preload("Fills").
		Where("account = ? AND chain_id = ?", account, chainID)
	if exchange != "" {
		query = query.Where("exchange = ?", exchange)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "OrderCacheRepository",
			"op":      "FindByScope",
			"account": account,
			"chainId": chainID,
		}).WithError(err).Error("Failed to load cached orders")
		return nil, err
	}
	return orders, nil
}

// Replace swaps the whole snapshot for a scope inside one transaction.
func (r *OrderCacheRepository) Replace(
	ctx context.Context,
	account string,
	chainID uint64,
	exchange string,
	orders []model.Order,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := tx.Where("account = ? AND chain_id = ? AND exchange = ?", account, chainID, exchange)
		var stale []model.Order
		if err := scope.Find(&stale).Error; err != nil {
			return err
		}
		for _, order := range stale {
			if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderFill{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("account = ? AND chain_id = ? AND exchange = ?", account, chainID, exchange).
			Delete(&model.Order{}).Error; err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}
		return tx.Create(&orders).Error
	})
}

// Upsert inserts or refreshes a single order without touching the rest of
// the scope; used for the optimistic insert right after submission.
func (r *OrderCacheRepository) Upsert(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(order).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "OrderCacheRepository",
			"op":      "Upsert",
			"orderId": order.ID,
		}).WithError(err).Error("Failed to upsert cached order")
	}
	return err
}
