package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PricingModelGarmanKohlhagen 定价模型名称
const PricingModelGarmanKohlhagen = "GarmanKohlhagen"

// PricingResult 定价结果实体
type PricingResult struct {
	ID           uint            `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Symbol       string          `json:"symbol"`
	OptionType   OptionType      `json:"option_type"`
	Quote        decimal.Decimal `json:"quote"`
	StrikePrice  decimal.Decimal `json:"strike_price"`
	ForeignRate  decimal.Decimal `json:"foreign_rate"`
	DomesticRate decimal.Decimal `json:"domestic_rate"`
	Volatility   decimal.Decimal `json:"volatility"`
	Today        time.Time       `json:"today"`
	Settlement   time.Time       `json:"settlement"`
	Maturity     time.Time       `json:"maturity"`
	TimeToExpiry float64         `json:"time_to_expiry"`
	OptionPrice  decimal.Decimal `json:"option_price"`
	DayCount     string          `json:"day_count"`
	PricingModel string          `json:"pricing_model"`
	CalculatedAt int64           `json:"calculated_at"`
}

// NewPricingResult 由输入与估值构造定价结果
func NewPricingResult(symbol string, in Inputs, v Valuation, calculatedAt time.Time) *PricingResult {
	optionType := in.Type
	if optionType == "" {
		optionType = OptionTypeCall
	}
	return &PricingResult{
		Symbol:       symbol,
		OptionType:   optionType,
		Quote:        decimal.NewFromFloat(in.Quote),
		StrikePrice:  decimal.NewFromFloat(in.StrikePrice),
		ForeignRate:  decimal.NewFromFloat(in.ForeignRate),
		DomesticRate: decimal.NewFromFloat(in.DomesticRate),
		Volatility:   decimal.NewFromFloat(in.Volatility),
		Today:        CalendarDay(in.Today),
		Settlement:   CalendarDay(in.Settlement),
		Maturity:     CalendarDay(in.Maturity),
		TimeToExpiry: v.TimeToExpiry,
		OptionPrice:  decimal.NewFromFloat(v.Price),
		DayCount:     DayCountActual365Fixed,
		PricingModel: PricingModelGarmanKohlhagen,
		CalculatedAt: calculatedAt.UnixMilli(),
	}
}

// PricingRepository 定价结果仓储接口
type PricingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, result *PricingResult) error
	GetLatest(ctx context.Context, symbol string) (*PricingResult, error)
	GetHistory(ctx context.Context, symbol string, limit int) ([]*PricingResult, error)
}

// PricingCache 最新定价结果缓存
type PricingCache interface {
	Get(ctx context.Context, symbol string) (*PricingResult, error)
	Set(ctx context.Context, result *PricingResult) error
}
