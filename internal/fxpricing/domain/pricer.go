package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type field uint8

const (
	fieldQuote field = 1 << iota
	fieldStrikePrice
	fieldForeignRate
	fieldDomesticRate
	fieldVolatility
	fieldToday
	fieldSettlement
	fieldMaturity
)

// requiredFields 定价前必须赋值的字段，settlement 不参与公式
var requiredFields = []struct {
	f    field
	name string
}{
	{fieldQuote, "quote"},
	{fieldStrikePrice, "strike_price"},
	{fieldForeignRate, "foreign_rate"},
	{fieldDomesticRate, "domestic_rate"},
	{fieldVolatility, "volatility"},
	{fieldToday, "today"},
	{fieldMaturity, "maturity"},
}

// Pricer FX 香草期权定价器（Garman-Kohlhagen）
// 对外只接受基础类型与 time.Time，日期在内部转换为 civil.Date。
// Pricer 不做内部同步，同一实例不能被多个 goroutine 并发修改。
type Pricer struct {
	quote        float64
	strikePrice  float64
	foreignRate  float64
	domesticRate float64
	volatility   float64
	today        civil.Date
	settlement   civil.Date
	maturity     civil.Date
	set          field
}

// NewPricer 创建一个空的定价器
func NewPricer() *Pricer {
	return &Pricer{}
}

// SetQuote 设置即期汇率，必须为正
func (p *Pricer) SetQuote(v float64) error {
	if err := requirePositive("quote", v); err != nil {
		return err
	}
	p.quote = v
	p.set |= fieldQuote
	return nil
}

// SetStrikePrice 设置行权价，必须为正
func (p *Pricer) SetStrikePrice(v float64) error {
	if err := requirePositive("strike_price", v); err != nil {
		return err
	}
	p.strikePrice = v
	p.set |= fieldStrikePrice
	return nil
}

// SetForeignRate 设置外币无风险利率（连续复利），允许为负
func (p *Pricer) SetForeignRate(v float64) error {
	if err := requireFinite("foreign_rate", v); err != nil {
		return err
	}
	p.foreignRate = v
	p.set |= fieldForeignRate
	return nil
}

// SetDomesticRate 设置本币无风险利率（连续复利），允许为负
func (p *Pricer) SetDomesticRate(v float64) error {
	if err := requireFinite("domestic_rate", v); err != nil {
		return err
	}
	p.domesticRate = v
	p.set |= fieldDomesticRate
	return nil
}

// SetVolatility 设置年化波动率，必须为正
func (p *Pricer) SetVolatility(v float64) error {
	if err := requirePositive("volatility", v); err != nil {
		return err
	}
	p.volatility = v
	p.set |= fieldVolatility
	return nil
}

// SetToday 设置估值日
func (p *Pricer) SetToday(t time.Time) error {
	d, err := toDate("today", t)
	if err != nil {
		return err
	}
	p.today = d
	p.set |= fieldToday
	return nil
}

// SetSettlement 设置交割日
func (p *Pricer) SetSettlement(t time.Time) error {
	d, err := toDate("settlement", t)
	if err != nil {
		return err
	}
	p.settlement = d
	p.set |= fieldSettlement
	return nil
}

// SetMaturity 设置到期日，已设置估值日时不得早于估值日
func (p *Pricer) SetMaturity(t time.Time) error {
	d, err := toDate("maturity", t)
	if err != nil {
		return err
	}
	if p.has(fieldToday) && d.DaysSince(p.today) < 0 {
		return fmt.Errorf("%w: maturity %s precedes today %s", ErrInvalidInput, d, p.today)
	}
	p.maturity = d
	p.set |= fieldMaturity
	return nil
}

func (p *Pricer) Quote() float64        { return p.quote }
func (p *Pricer) StrikePrice() float64  { return p.strikePrice }
func (p *Pricer) ForeignRate() float64  { return p.foreignRate }
func (p *Pricer) DomesticRate() float64 { return p.domesticRate }
func (p *Pricer) Volatility() float64   { return p.volatility }

// Today 返回估值日（UTC 零点），未设置时为零值
func (p *Pricer) Today() time.Time { return p.dateOf(fieldToday, p.today) }

// Settlement 返回交割日（UTC 零点），未设置时为零值
func (p *Pricer) Settlement() time.Time { return p.dateOf(fieldSettlement, p.settlement) }

// Maturity 返回到期日（UTC 零点），未设置时为零值
func (p *Pricer) Maturity() time.Time { return p.dateOf(fieldMaturity, p.maturity) }

// TimeToExpiry 按 ACT/365F 计算估值日到到期日的年化期限
func (p *Pricer) TimeToExpiry() (float64, error) {
	if !p.has(fieldToday) || !p.has(fieldMaturity) {
		return 0, fmt.Errorf("%w: today and maturity must be set", ErrInvalidState)
	}
	t, err := yearFraction(p.today, p.maturity)
	if err != nil {
		return 0, fmt.Errorf("%w: maturity %s precedes today %s", ErrInvalidState, p.maturity, p.today)
	}
	return t, nil
}

// Price 计算看涨期权的现值
func (p *Pricer) Price() (float64, error) {
	return p.PriceOption(OptionTypeCall)
}

// PriceOption 按指定期权方向计算现值
// 纯读取当前状态，不修改定价器
func (p *Pricer) PriceOption(optionType OptionType) (float64, error) {
	if optionType != OptionTypeCall && optionType != OptionTypePut {
		return 0, fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, optionType)
	}
	if missing := p.missing(); len(missing) > 0 {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidState, strings.Join(missing, ", "))
	}

	t, err := p.TimeToExpiry()
	if err != nil {
		return 0, err
	}

	s, k, v := p.quote, p.strikePrice, p.volatility
	if s <= 0 || k <= 0 || v <= 0 || t < 0 {
		return 0, fmt.Errorf("%w: quote=%v strike=%v volatility=%v t=%v", ErrNumericDomain, s, k, v, t)
	}

	// 到期日当天直接返回内在价值，避免公式分母为零
	if t == 0 {
		if optionType == OptionTypePut {
			return math.Max(k-s, 0), nil
		}
		return math.Max(s-k, 0), nil
	}

	price := garmanKohlhagen(optionType, s, k, p.domesticRate, p.foreignRate, v, t)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: non-finite price", ErrNumericDomain)
	}
	// 深度虚值时两项相减可能得到极小的负数
	return math.Max(price, 0), nil
}

// garmanKohlhagen Garman-Kohlhagen 闭式解
func garmanKohlhagen(optionType OptionType, s, k, rd, rf, v, t float64) float64 {
	volSqrtT := v * math.Sqrt(t)
	d1 := (math.Log(s/k) + (rd-rf+v*v/2)*t) / volSqrtT
	d2 := d1 - volSqrtT

	foreignDF := math.Exp(-rf * t)
	domesticDF := math.Exp(-rd * t)

	if optionType == OptionTypePut {
		return k*domesticDF*NormCDF(-d2) - s*foreignDF*NormCDF(-d1)
	}
	return s*foreignDF*NormCDF(d1) - k*domesticDF*NormCDF(d2)
}

func (p *Pricer) has(f field) bool {
	return p.set&f != 0
}

func (p *Pricer) missing() []string {
	var names []string
	for _, r := range requiredFields {
		if !p.has(r.f) {
			names = append(names, r.name)
		}
	}
	return names
}

func (p *Pricer) dateOf(f field, d civil.Date) time.Time {
	if !p.has(f) {
		return time.Time{}
	}
	return d.In(time.UTC)
}

func requireFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidInput, name, v)
	}
	return nil
}

func requirePositive(name string, v float64) error {
	if err := requireFinite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidInput, name, v)
	}
	return nil
}

func toDate(name string, t time.Time) (civil.Date, error) {
	if t.IsZero() {
		return civil.Date{}, fmt.Errorf("%w: %s date is required", ErrInvalidInput, name)
	}
	return civil.DateOf(t), nil
}
