package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dropapp/internal/domain/generation"
)

// Mock record store
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) FindExpired(ctx context.Context, cutoff time.Time, plan string, limit int) ([]*generation.Generation, error) {
	args := m.Called(ctx, cutoff, plan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*generation.Generation), args.Error(1)
}

func (m *MockRecordStore) ClearAssetURLs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// Mock storage remover
type MockRemover struct {
	mock.Mock
}

func (m *MockRemover) Remove(ctx context.Context, keys []string) (int, error) {
	args := m.Called(ctx, keys)
	return args.Int(0), args.Error(1)
}

var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Retention: DefaultRetention,
		Plan:      generation.PlanFree,
		BatchSize: 3,
		URLMarker: testMarker,
	}
}

func newTestService(t *testing.T, store RecordStore, remover *MockRemover) (*Service, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	svc, err := NewService(store, remover, testConfig(), log)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc, hook
}

func record(id, url string) *generation.Generation {
	return &generation.Generation{ID: id, UserID: "user-1", Kind: generation.KindImage, AssetURL: &url}
}

func TestRun_NoExpiredRecords(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return([]*generation.Generation{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Success: true, Processed: 0, Cleaned: 0}, result.Summary())

	remover.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ClearAssetURLs", mock.Anything, mock.Anything)
}

func TestRun_UsesRetentionCutoff(t *testing.T) {
	store := new(MockRecordStore)
	svc, _ := newTestService(t, store, new(MockRemover))

	wantCutoff := fixedNow.Add(-48 * time.Hour)
	store.On("FindExpired", mock.Anything, mock.MatchedBy(func(c time.Time) bool {
		return c.Equal(wantCutoff)
	}), "free", 3).Return([]*generation.Generation{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Cutoff.Equal(wantCutoff))
	store.AssertExpectations(t)
}

func TestRun_RemovesObjectsAndClearsURLs(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	records := []*generation.Generation{
		record("g1", "https://abc.supabase.co"+testMarker+"user-1/a.png"),
		record("g2", "https://replicate.delivery/pbxt/b.png"),
		record("g3", "https://abc.supabase.co"+testMarker+"user-1/c.mp4"),
	}
	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return(records, nil)
	remover.On("Remove", mock.Anything, []string{"user-1/a.png", "user-1/c.mp4"}).Return(2, nil)
	store.On("ClearAssetURLs", mock.Anything, []string{"g1", "g2", "g3"}).Return(int64(3), nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Success: true, Processed: 3, Cleaned: 3}, result.Summary())
	assert.Equal(t, 2, result.RemovedObjects)
	assert.Equal(t, 1, result.SkippedURLs)

	store.AssertExpectations(t)
	remover.AssertExpectations(t)
}

func TestRun_NoDerivableKeysSkipsStorage(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	records := []*generation.Generation{record("g1", "https://elsewhere/a.png")}
	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return(records, nil)
	store.On("ClearAssetURLs", mock.Anything, []string{"g1"}).Return(int64(1), nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cleaned)
	remover.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestRun_StorageFailureStillClearsURLs(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, hook := newTestService(t, store, remover)

	records := []*generation.Generation{record("g1", "https://abc.supabase.co"+testMarker+"a.png")}
	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return(records, nil)
	remover.On("Remove", mock.Anything, []string{"a.png"}).Return(0, errors.New("storage unavailable"))
	store.On("ClearAssetURLs", mock.Anything, []string{"g1"}).Return(int64(1), nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Cleaned)
	assert.Equal(t, "storage unavailable", result.StorageError)
	assert.Empty(t, result.Summary().Error)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data[logrus.ErrorKey] != nil {
			logged = true
		}
	}
	assert.True(t, logged, "storage failure should be logged")
	store.AssertExpectations(t)
}

func TestRun_ScanFailureAborts(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return(nil, errors.New("connection refused"))

	result, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScanFailed)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Summary().Error, "connection refused")

	remover.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ClearAssetURLs", mock.Anything, mock.Anything)
}

func TestRun_UpdateFailureIsFatal(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	records := []*generation.Generation{record("g1", "https://abc.supabase.co"+testMarker+"a.png")}
	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return(records, nil)
	remover.On("Remove", mock.Anything, []string{"a.png"}).Return(1, nil)
	store.On("ClearAssetURLs", mock.Anything, []string{"g1"}).Return(int64(0), errors.New("deadlock detected"))

	result, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Cleaned)
	assert.Contains(t, result.Error, "deadlock detected")
}

func TestRun_TruncatesOversizedBatch(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	records := []*generation.Generation{
		record("g1", "https://elsewhere/1.png"),
		record("g2", "https://elsewhere/2.png"),
		record("g3", "https://elsewhere/3.png"),
		record("g4", "https://elsewhere/4.png"),
	}
	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return(records, nil)
	store.On("ClearAssetURLs", mock.Anything, []string{"g1", "g2", "g3"}).Return(int64(3), nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	store.AssertExpectations(t)
}

func TestRun_OverlappingRunGivesUpOnContext(t *testing.T) {
	store := new(MockRecordStore)
	remover := new(MockRemover)
	svc, _ := newTestService(t, store, remover)

	svc.running <- struct{}{} // another run is in progress
	defer func() { <-svc.running }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := svc.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunInProgress)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "already in progress")
	store.AssertNotCalled(t, "FindExpired", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_WaitsForPreviousRun(t *testing.T) {
	store := new(MockRecordStore)
	svc, _ := newTestService(t, store, new(MockRemover))
	store.On("FindExpired", mock.Anything, mock.Anything, "free", 3).Return([]*generation.Generation{}, nil)

	svc.running <- struct{}{}
	go func() {
		time.Sleep(10 * time.Millisecond)
		<-svc.running
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	store.AssertExpectations(t)
}

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	cases := map[string]func(*Config){
		"retention": func(c *Config) { c.Retention = 0 },
		"plan":      func(c *Config) { c.Plan = "" },
		"batch":     func(c *Config) { c.BatchSize = 0 },
		"marker":    func(c *Config) { c.URLMarker = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			_, err := NewService(new(MockRecordStore), new(MockRemover), cfg, log)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
