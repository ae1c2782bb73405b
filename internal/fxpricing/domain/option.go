// 包 FX 香草期权定价服务的领域模型
package domain

import (
	"fmt"
	"strings"
	"time"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ParseOptionType 解析期权类型，空字符串视为看涨
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(OptionTypeCall):
		return OptionTypeCall, nil
	case string(OptionTypePut):
		return OptionTypePut, nil
	default:
		return "", fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, s)
	}
}

// Inputs 一次定价所需的全部参数（不可变值对象）
// Settlement 可为零值
type Inputs struct {
	Type         OptionType
	Quote        float64
	StrikePrice  float64
	ForeignRate  float64
	DomesticRate float64
	Volatility   float64
	Today        time.Time
	Settlement   time.Time
	Maturity     time.Time
}

// Valuation 定价结果
type Valuation struct {
	Price        float64
	TimeToExpiry float64
}

// PriceInputs 用一个全新的 Pricer 对 Inputs 定价
// 所有字段都经过与 setter 相同的校验
func PriceInputs(in Inputs) (Valuation, error) {
	optionType, err := ParseOptionType(string(in.Type))
	if err != nil {
		return Valuation{}, err
	}

	p := NewPricer()
	setters := []func() error{
		func() error { return p.SetQuote(in.Quote) },
		func() error { return p.SetStrikePrice(in.StrikePrice) },
		func() error { return p.SetForeignRate(in.ForeignRate) },
		func() error { return p.SetDomesticRate(in.DomesticRate) },
		func() error { return p.SetVolatility(in.Volatility) },
		func() error { return p.SetToday(in.Today) },
		func() error { return p.SetMaturity(in.Maturity) },
	}
	if !in.Settlement.IsZero() {
		setters = append(setters, func() error { return p.SetSettlement(in.Settlement) })
	}
	for _, set := range setters {
		if err := set(); err != nil {
			return Valuation{}, err
		}
	}

	t, err := p.TimeToExpiry()
	if err != nil {
		return Valuation{}, err
	}
	price, err := p.PriceOption(optionType)
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{Price: price, TimeToExpiry: t}, nil
}
