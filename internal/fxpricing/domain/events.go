package domain

import "time"

const (
	FXOptionPricedEventType        = "FXOptionPriced"
	FXOptionPricingFailedEventType = "FXOptionPricingFailed"
	FXBatchPricingCompletedType    = "FXBatchPricingCompleted"
)

// FXOptionPricedEvent 期权定价完成事件
type FXOptionPricedEvent struct {
	ResultID     uint       `json:"result_id"`
	Symbol       string     `json:"symbol"`
	OptionType   OptionType `json:"option_type"`
	Quote        float64    `json:"quote"`
	StrikePrice  float64    `json:"strike_price"`
	ForeignRate  float64    `json:"foreign_rate"`
	DomesticRate float64    `json:"domestic_rate"`
	Volatility   float64    `json:"volatility"`
	Maturity     string     `json:"maturity"`
	TimeToExpiry float64    `json:"time_to_expiry"`
	OptionPrice  float64    `json:"option_price"`
	PricingModel string     `json:"pricing_model"`
	CalculatedAt int64      `json:"calculated_at"`
	OccurredOn   time.Time  `json:"occurred_on"`
}

// FXOptionPricingFailedEvent 定价失败事件
type FXOptionPricingFailedEvent struct {
	Symbol     string     `json:"symbol"`
	OptionType OptionType `json:"option_type"`
	Error      string     `json:"error"`
	ErrorCode  string     `json:"error_code"`
	OccurredAt int64      `json:"occurred_at"`
	OccurredOn time.Time  `json:"occurred_on"`
}

// FXBatchPricingCompletedEvent 批量定价完成事件
type FXBatchPricingCompletedEvent struct {
	BatchID        string    `json:"batch_id"`
	Symbols        []string  `json:"symbols"`
	TotalContracts int       `json:"total_contracts"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	AverageTime    float64   `json:"average_time"`
	CompletedAt    int64     `json:"completed_at"`
	OccurredOn     time.Time `json:"occurred_on"`
}
