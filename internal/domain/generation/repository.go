package generation

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository handles persistence for generation records
type Repository interface {
	// FindExpired returns at most limit records of accounts on plan that still
	// reference an asset and were created before cutoff, oldest first.
	FindExpired(ctx context.Context, cutoff time.Time, plan string, limit int) ([]*Generation, error)
	// ClearAssetURLs nulls asset_url for ids in one statement and returns the
	// number of rows changed.
	ClearAssetURLs(ctx context.Context, ids []string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindExpired(ctx context.Context, cutoff time.Time, plan string, limit int) ([]*Generation, error) {
	var rows []*Generation
	err := r.db.WithContext(ctx).
		Model(&Generation{}).
		Select("generations.*").
		Joins("JOIN profiles ON profiles.id = generations.user_id").
		Where("profiles.plan = ? AND generations.asset_url IS NOT NULL AND generations.created_at < ?", plan, cutoff).
		Order("generations.created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ClearAssetURLs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&Generation{}).
		Where("id IN ? AND asset_url IS NOT NULL", ids).
		Update("asset_url", gorm.Expr("NULL"))
	return result.RowsAffected, result.Error
}
