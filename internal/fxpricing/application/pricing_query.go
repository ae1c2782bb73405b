package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/pkg/logger"
)

// PricingQueryService 处理所有定价相关的查询操作（Queries）。
type PricingQueryService struct {
	repo  domain.PricingRepository
	cache domain.PricingCache
}

// NewPricingQueryService 构造函数。cache 可为 nil。
func NewPricingQueryService(repo domain.PricingRepository, cache domain.PricingCache) *PricingQueryService {
	return &PricingQueryService{
		repo:  repo,
		cache: cache,
	}
}

// GetLatestResult 获取最新定价结果，先查缓存，未命中时回源并回填
func (s *PricingQueryService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "pricing cache read failed", "symbol", symbol, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	result, err := s.repo.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, result); err != nil {
			logger.Warn(ctx, "pricing cache fill failed", "symbol", symbol, "error", err)
		}
	}
	return result, nil
}

// GetHistory 按计算时间倒序返回历史定价结果
func (s *PricingQueryService) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	return s.repo.GetHistory(ctx, symbol, clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}
