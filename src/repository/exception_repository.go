package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"spotengine/src/database"
	"spotengine/src/model"
)

// ExceptionRepository handles persistence of engine faults.
type ExceptionRepository struct {
	db *gorm.DB
}

func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance, used by tests.
func (r *ExceptionRepository) WithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new exception in the database.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"service": exc.Service,
		"module":  exc.Module,
		"method":  exc.Method,
		"level":   exc.Level,
	}).Error("Persisting engine exception")

	return r.db.WithContext(ctx).Create(exc).Error
}

// FindLatest returns the most recent exceptions, newest first.
func (r *ExceptionRepository) FindLatest(ctx context.Context, limit int) ([]model.Exception, error) {
	if limit <= 0 {
		limit = 50
	}
	var exceptions []model.Exception
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&exceptions).Error
	return exceptions, err
}
