package cleanup

import (
	"context"
	"time"

	"dropapp/internal/domain/generation"
)

// RecordStore is the part of the generation repository the cleanup needs.
type RecordStore interface {
	FindExpired(ctx context.Context, cutoff time.Time, plan string, limit int) ([]*generation.Generation, error)
	ClearAssetURLs(ctx context.Context, ids []string) (int64, error)
}

// Runner executes one cleanup pass. Implemented by *Service.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}
