package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dropapp/internal/domain/generation"
	"dropapp/internal/storage"
)

const (
	DefaultRetention = 48 * time.Hour
	DefaultBatchSize = 100
)

var (
	ErrInvalidConfig = errors.New("invalid cleanup config")
	ErrScanFailed    = errors.New("failed to fetch expired records")
	ErrUpdateFailed  = errors.New("failed to clear asset urls")
	ErrRunInProgress = errors.New("cleanup run already in progress")
)

// Config holds the retention policy applied by one run.
type Config struct {
	Retention time.Duration // assets older than this are removed (default: 48h)
	Plan      string        // plan tier the policy applies to (default: free)
	BatchSize int           // max records per run (default: 100)
	URLMarker string        // path segment preceding the object key in asset URLs
}

func (c Config) Validate() error {
	if c.Retention <= 0 {
		return fmt.Errorf("%w: retention must be > 0", ErrInvalidConfig)
	}
	if c.Plan == "" {
		return fmt.Errorf("%w: plan must not be empty", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be > 0", ErrInvalidConfig)
	}
	if c.URLMarker == "" {
		return fmt.Errorf("%w: url marker must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Result describes one run. Processed is the number of records selected,
// Cleaned the number of rows whose asset URL was cleared.
type Result struct {
	Success        bool
	Processed      int
	Cleaned        int
	Error          string
	RemovedObjects int
	SkippedURLs    int
	StorageError   string
	Cutoff         time.Time
	Duration       time.Duration
}

// Summary is the JSON body returned to schedulers.
type Summary struct {
	Success   bool   `json:"success"`
	Processed int    `json:"processed"`
	Cleaned   int    `json:"cleaned"`
	Error     string `json:"error,omitempty"`
}

func (r *Result) Summary() Summary {
	return Summary{
		Success:   r.Success,
		Processed: r.Processed,
		Cleaned:   r.Cleaned,
		Error:     r.Error,
	}
}

// Service removes the stored assets of expired records and clears their URLs.
// Storage and database steps are not transactional: if the process dies after
// the storage delete, the next run selects the same rows again.
type Service struct {
	records RecordStore
	remover storage.Remover
	cfg     Config
	logger  logrus.FieldLogger
	now     func() time.Time

	running chan struct{} // one run at a time per process
}

func NewService(records RecordStore, remover storage.Remover, cfg Config, logger logrus.FieldLogger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		records: records,
		remover: remover,
		cfg:     cfg,
		logger:  logger.WithField("component", "image_cleanup"),
		now:     time.Now,
		running: make(chan struct{}, 1),
	}, nil
}

// Run performs a single cleanup pass. The returned Result is never nil; on
// failure its Error field carries the same message as the returned error.
// A call made while another run holds the service waits until ctx is done.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := s.now()
	result := &Result{Cutoff: start.UTC().Add(-s.cfg.Retention)}
	log := s.logger.WithFields(logrus.Fields{
		"cutoff":     result.Cutoff.Format(time.RFC3339),
		"plan":       s.cfg.Plan,
		"batch_size": s.cfg.BatchSize,
	})

	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	case <-ctx.Done():
		return s.fail(log, result, start, fmt.Errorf("%w: %v", ErrRunInProgress, ctx.Err()))
	}

	log.Info("Starting expired asset cleanup")

	records, err := s.records.FindExpired(ctx, result.Cutoff, s.cfg.Plan, s.cfg.BatchSize)
	if err != nil {
		return s.fail(log, result, start, fmt.Errorf("%w: %v", ErrScanFailed, err))
	}
	if len(records) > s.cfg.BatchSize {
		records = records[:s.cfg.BatchSize]
	}
	result.Processed = len(records)
	recordsProcessedTotal.Add(float64(result.Processed))

	if len(records) == 0 {
		log.Info("No expired assets to clean up")
		return s.succeed(log, result, start), nil
	}

	keys, skipped := ObjectKeys(records, s.cfg.URLMarker)
	result.SkippedURLs = skipped
	if skipped > 0 {
		log.WithField("skipped", skipped).Warn("Some asset URLs did not match the bucket marker, no object removed for them")
	}

	if len(keys) > 0 {
		removed, err := s.remover.Remove(ctx, keys)
		result.RemovedObjects = removed
		objectsRemovedTotal.Add(float64(removed))
		if err != nil {
			// Storage failures do not stop the run: rows are still cleared.
			result.StorageError = err.Error()
			storageFailuresTotal.Inc()
			log.WithError(err).WithField("keys", len(keys)).Error("Bulk storage delete failed, continuing with database update")
		} else {
			log.WithFields(logrus.Fields{"keys": len(keys), "removed": removed}).Info("Removed storage objects")
		}
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	cleaned, err := s.records.ClearAssetURLs(ctx, ids)
	if err != nil {
		return s.fail(log, result, start, fmt.Errorf("%w: %v", ErrUpdateFailed, err))
	}
	result.Cleaned = int(cleaned)
	recordsCleanedTotal.Add(float64(cleaned))

	return s.succeed(log, result, start), nil
}

func (s *Service) succeed(log logrus.FieldLogger, result *Result, start time.Time) *Result {
	result.Success = true
	result.Duration = s.now().Sub(start)
	runsTotal.WithLabelValues("success").Inc()
	runDurationSeconds.Observe(result.Duration.Seconds())

	log.WithFields(logrus.Fields{
		"processed": result.Processed,
		"cleaned":   result.Cleaned,
		"removed":   result.RemovedObjects,
		"duration":  result.Duration,
	}).Info("Cleanup completed")
	return result
}

func (s *Service) fail(log logrus.FieldLogger, result *Result, start time.Time, err error) (*Result, error) {
	result.Success = false
	result.Error = err.Error()
	result.Duration = s.now().Sub(start)
	runsTotal.WithLabelValues("failure").Inc()
	runDurationSeconds.Observe(result.Duration.Seconds())

	log.WithError(err).Error("Cleanup failed")
	return result, err
}

// compile-time check
var _ RecordStore = generation.Repository(nil)
