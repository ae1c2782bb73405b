package application

import (
	"time"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
)

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol       string
	OptionType   string
	Quote        float64
	StrikePrice  float64
	ForeignRate  float64
	DomesticRate float64
	Volatility   float64
	Today        time.Time
	Settlement   time.Time
	Maturity     time.Time
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	Contracts []PriceOptionCommand
	BatchID   string
}

// BatchItemError 批量定价中单个合约的失败原因
type BatchItemError struct {
	Index   int    `json:"index"`
	Symbol  string `json:"symbol"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchPricingResult 批量定价结果
type BatchPricingResult struct {
	BatchID      string
	Results      []*domain.PricingResult
	Errors       []BatchItemError
	SuccessCount int
	FailureCount int
	AverageTime  float64
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)
