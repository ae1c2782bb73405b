package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
)

// PricingResultModel 定价结果数据库模型
type PricingResultModel struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
	Symbol       string          `gorm:"column:symbol;type:varchar(32);not null;index:idx_symbol_calculated,priority:1"`
	OptionType   string          `gorm:"column:option_type;type:varchar(8);not null"`
	Quote        decimal.Decimal `gorm:"column:quote;type:decimal(32,18);not null"`
	StrikePrice  decimal.Decimal `gorm:"column:strike_price;type:decimal(32,18);not null"`
	ForeignRate  decimal.Decimal `gorm:"column:foreign_rate;type:decimal(32,18);not null"`
	DomesticRate decimal.Decimal `gorm:"column:domestic_rate;type:decimal(32,18);not null"`
	Volatility   decimal.Decimal `gorm:"column:volatility;type:decimal(32,18);not null"`
	Today        time.Time       `gorm:"column:today;type:date;not null"`
	Settlement   *time.Time      `gorm:"column:settlement;type:date"`
	Maturity     time.Time       `gorm:"column:maturity;type:date;not null"`
	TimeToExpiry float64         `gorm:"column:time_to_expiry;not null"`
	OptionPrice  decimal.Decimal `gorm:"column:option_price;type:decimal(32,18);not null"`
	DayCount     string          `gorm:"column:day_count;type:varchar(16)"`
	PricingModel string          `gorm:"column:pricing_model;type:varchar(32)"`
	CalculatedAt int64           `gorm:"column:calculated_at;type:bigint;not null;index:idx_symbol_calculated,priority:2"`
}

func (PricingResultModel) TableName() string { return "fx_option_pricing_results" }

// mapping helpers

func toPricingResultModel(res *domain.PricingResult) *PricingResultModel {
	if res == nil {
		return nil
	}
	m := &PricingResultModel{
		ID:           res.ID,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
		Symbol:       res.Symbol,
		OptionType:   string(res.OptionType),
		Quote:        res.Quote,
		StrikePrice:  res.StrikePrice,
		ForeignRate:  res.ForeignRate,
		DomesticRate: res.DomesticRate,
		Volatility:   res.Volatility,
		Today:        res.Today,
		Maturity:     res.Maturity,
		TimeToExpiry: res.TimeToExpiry,
		OptionPrice:  res.OptionPrice,
		DayCount:     res.DayCount,
		PricingModel: res.PricingModel,
		CalculatedAt: res.CalculatedAt,
	}
	if !res.Settlement.IsZero() {
		settlement := res.Settlement
		m.Settlement = &settlement
	}
	return m
}

func toPricingResult(m *PricingResultModel) *domain.PricingResult {
	if m == nil {
		return nil
	}
	res := &domain.PricingResult{
		ID:           m.ID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Symbol:       m.Symbol,
		OptionType:   domain.OptionType(m.OptionType),
		Quote:        m.Quote,
		StrikePrice:  m.StrikePrice,
		ForeignRate:  m.ForeignRate,
		DomesticRate: m.DomesticRate,
		Volatility:   m.Volatility,
		Today:        domain.CalendarDay(m.Today),
		Maturity:     domain.CalendarDay(m.Maturity),
		TimeToExpiry: m.TimeToExpiry,
		OptionPrice:  m.OptionPrice,
		DayCount:     m.DayCount,
		PricingModel: m.PricingModel,
		CalculatedAt: m.CalculatedAt,
	}
	if m.Settlement != nil {
		res.Settlement = domain.CalendarDay(*m.Settlement)
	}
	return res
}
