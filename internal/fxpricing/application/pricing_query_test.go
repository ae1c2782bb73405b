package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
)

func seedResults(t *testing.T, repo *memoryRepo, n int) {
	t.Helper()
	svc := newCommandService(repo, nil, nil, nil)
	for i := 0; i < n; i++ {
		cmd := eurusdCommand()
		cmd.Quote = 1.20 + float64(i)*0.01
		_, err := svc.PriceOption(context.Background(), cmd)
		require.NoError(t, err)
	}
}

func TestGetLatestResult_CacheMissFillsCache(t *testing.T) {
	repo := &memoryRepo{}
	seedResults(t, repo, 3)
	cache := newMemoryCache()
	q := NewPricingQueryService(repo, cache)

	got, err := q.GetLatestResult(context.Background(), "eurusd")
	require.NoError(t, err)
	assert.Equal(t, uint(3), got.ID)
	assert.Same(t, got, cache.entries["EURUSD"])

	again, err := q.GetLatestResult(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Same(t, got, again)
	assert.Equal(t, 2, cache.gets)
}

func TestGetLatestResult_CacheHitSkipsRepository(t *testing.T) {
	cache := newMemoryCache()
	cached := &domain.PricingResult{ID: 42, Symbol: "GBPUSD"}
	cache.entries["GBPUSD"] = cached

	q := NewPricingQueryService(&memoryRepo{}, cache)
	got, err := q.GetLatestResult(context.Background(), "GBPUSD")
	require.NoError(t, err)
	assert.Same(t, cached, got)
}

func TestGetLatestResult_CacheErrorFallsBack(t *testing.T) {
	repo := &memoryRepo{}
	seedResults(t, repo, 1)
	cache := newMemoryCache()
	cache.getErr = errors.New("redis timeout")

	got, err := NewPricingQueryService(repo, cache).GetLatestResult(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)
}

func TestGetLatestResult_NotFound(t *testing.T) {
	q := NewPricingQueryService(&memoryRepo{}, nil)

	_, err := q.GetLatestResult(context.Background(), "AUDUSD")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = q.GetLatestResult(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetHistory(t *testing.T) {
	repo := &memoryRepo{}
	seedResults(t, repo, 5)
	q := NewPricingQueryService(repo, nil)

	history, err := q.GetHistory(context.Background(), "EURUSD", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint(5), history[0].ID)
	assert.Equal(t, uint(4), history[1].ID)

	all, err := q.GetHistory(context.Background(), "EURUSD", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultHistoryLimit, clampLimit(0))
	assert.Equal(t, defaultHistoryLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, maxHistoryLimit, clampLimit(10_000))
}

func TestPricingService_Facade(t *testing.T) {
	svc := NewPricingService(&memoryRepo{}, newMemoryCache(), &recordingPublisher{}, nil)

	_, err := svc.PriceOption(context.Background(), eurusdCommand())
	require.NoError(t, err)

	latest, err := svc.GetLatestResult(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", latest.Symbol)

	history, err := svc.GetHistory(context.Background(), "EURUSD", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	out, err := svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{BatchID: "b", Contracts: []PriceOptionCommand{eurusdCommand()}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.SuccessCount)
}
