package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/pkg/logger"
	"github.com/wyfcoding/fxpricing/pkg/metrics"
	"github.com/wyfcoding/fxpricing/pkg/utils"
	"github.com/wyfcoding/pkg/idgen"
)

// PricingCommandService 处理定价相关的命令操作
// 定价结果与领域事件在同一事务内写入（Outbox）
type PricingCommandService struct {
	repo      domain.PricingRepository
	cache     domain.PricingCache
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewPricingCommandService 创建新的 PricingCommandService 实例
// cache、publisher、m 均可为 nil
func NewPricingCommandService(repo domain.PricingRepository, cache domain.PricingCache, publisher domain.EventPublisher, m *metrics.Metrics) *PricingCommandService {
	return &PricingCommandService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// PriceOption 期权定价
func (c *PricingCommandService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*domain.PricingResult, error) {
	start := time.Now()
	symbol := normalizeSymbol(cmd.Symbol)

	result, err := c.priceOption(ctx, symbol, cmd)
	outcome := "success"
	if err != nil {
		outcome = domain.ErrorCode(err)
	}
	c.metrics.RecordPricing(optionLabel(cmd.OptionType), outcome, time.Since(start))

	if err != nil {
		logger.Warn(ctx, "fx option pricing failed", "symbol", symbol, "option_type", cmd.OptionType, "error", err)
		c.publishFailure(ctx, symbol, cmd, err)
		return nil, err
	}

	if c.cache != nil {
		if cacheErr := c.cache.Set(ctx, result); cacheErr != nil {
			logger.Warn(ctx, "failed to cache pricing result", "symbol", symbol, "error", cacheErr)
		}
	}
	logger.Info(ctx, "fx option priced",
		"symbol", symbol,
		"option_type", result.OptionType,
		"price", result.OptionPrice.String(),
		"time_to_expiry", result.TimeToExpiry,
	)
	return result, nil
}

func (c *PricingCommandService) priceOption(ctx context.Context, symbol string, cmd PriceOptionCommand) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	optionType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}

	in := domain.Inputs{
		Type:         optionType,
		Quote:        cmd.Quote,
		StrikePrice:  cmd.StrikePrice,
		ForeignRate:  cmd.ForeignRate,
		DomesticRate: cmd.DomesticRate,
		Volatility:   cmd.Volatility,
		Today:        cmd.Today,
		Settlement:   cmd.Settlement,
		Maturity:     cmd.Maturity,
	}
	valuation, err := domain.PriceInputs(in)
	if err != nil {
		return nil, err
	}

	result := domain.NewPricingResult(symbol, in, valuation, c.now())

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.Save(txCtx, result); err != nil {
			return err
		}
		if c.publisher == nil {
			return nil
		}

		event := domain.FXOptionPricedEvent{
			ResultID:     result.ID,
			Symbol:       symbol,
			OptionType:   optionType,
			Quote:        cmd.Quote,
			StrikePrice:  cmd.StrikePrice,
			ForeignRate:  cmd.ForeignRate,
			DomesticRate: cmd.DomesticRate,
			Volatility:   cmd.Volatility,
			Maturity:     result.Maturity.Format(time.DateOnly),
			TimeToExpiry: valuation.TimeToExpiry,
			OptionPrice:  valuation.Price,
			PricingModel: result.PricingModel,
			CalculatedAt: result.CalculatedAt,
			OccurredOn:   c.now(),
		}
		return c.publisher.PublishInTx(txCtx, utils.GetTx(txCtx), domain.FXOptionPricedEventType, symbol, event)
	})
	if err != nil {
		return nil, fmt.Errorf("persist pricing result: %w", err)
	}
	return result, nil
}

// publishFailure 发布定价失败事件，失败只记录日志
func (c *PricingCommandService) publishFailure(ctx context.Context, symbol string, cmd PriceOptionCommand, cause error) {
	if c.publisher == nil {
		return
	}
	now := c.now()
	event := domain.FXOptionPricingFailedEvent{
		Symbol:     symbol,
		OptionType: domain.OptionType(strings.ToUpper(cmd.OptionType)),
		Error:      cause.Error(),
		ErrorCode:  domain.ErrorCode(cause),
		OccurredAt: now.UnixMilli(),
		OccurredOn: now,
	}
	if err := c.publisher.Publish(ctx, domain.FXOptionPricingFailedEventType, symbol, event); err != nil {
		logger.Error(ctx, "failed to publish pricing failure event", "symbol", symbol, "error", err)
	}
}

// BatchPriceOptions 批量定价，单个合约失败不影响其余合约
func (c *PricingCommandService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	defer logger.LogDuration(ctx, "batch pricing finished", "contracts", len(cmd.Contracts))()

	if cmd.BatchID == "" {
		cmd.BatchID = fmt.Sprintf("FXB%d", idgen.GenID())
	}
	c.metrics.RecordBatch(len(cmd.Contracts))

	out := &BatchPricingResult{
		BatchID: cmd.BatchID,
		Results: make([]*domain.PricingResult, 0, len(cmd.Contracts)),
	}
	totalTime := 0.0

	for i, contract := range cmd.Contracts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		startTime := time.Now()
		result, err := c.PriceOption(ctx, contract)
		totalTime += time.Since(startTime).Seconds()

		if err != nil {
			out.FailureCount++
			out.Errors = append(out.Errors, BatchItemError{
				Index:   i,
				Symbol:  normalizeSymbol(contract.Symbol),
				Code:    domain.ErrorCode(err),
				Message: err.Error(),
			})
			continue
		}
		out.Results = append(out.Results, result)
		out.SuccessCount++
	}

	if len(cmd.Contracts) > 0 {
		out.AverageTime = totalTime / float64(len(cmd.Contracts))
	}

	if c.publisher != nil {
		now := c.now()
		err := c.publisher.Publish(ctx, domain.FXBatchPricingCompletedType, cmd.BatchID, domain.FXBatchPricingCompletedEvent{
			BatchID:        cmd.BatchID,
			Symbols:        extractSymbols(cmd.Contracts),
			TotalContracts: len(cmd.Contracts),
			SuccessCount:   out.SuccessCount,
			FailureCount:   out.FailureCount,
			AverageTime:    out.AverageTime,
			CompletedAt:    now.UnixMilli(),
			OccurredOn:     now,
		})
		if err != nil {
			logger.Error(ctx, "failed to publish batch completed event", "batch_id", cmd.BatchID, "error", err)
		}
	}

	return out, nil
}

// extractSymbols 按出现顺序去重
func extractSymbols(contracts []PriceOptionCommand) []string {
	symbols := make([]string, 0, len(contracts))
	seen := make(map[string]bool)

	for _, contract := range contracts {
		symbol := normalizeSymbol(contract.Symbol)
		if symbol == "" || seen[symbol] {
			continue
		}
		symbols = append(symbols, symbol)
		seen[symbol] = true
	}
	return symbols
}

// optionLabel 指标标签只取合法的期权类型
func optionLabel(s string) string {
	t, err := domain.ParseOptionType(s)
	if err != nil {
		return "UNKNOWN"
	}
	return string(t)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
