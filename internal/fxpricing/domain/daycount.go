package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DayCountActual365Fixed 唯一支持的计息基准
const DayCountActual365Fixed = "ACT/365F"

const daysPerYear = 365.0

// YearFraction 按 ACT/365F 计算两个日期之间的年化期限
// 只比较日历日，忽略时分秒与时区；end 早于 start 时返回 ErrInvalidInput
func YearFraction(start, end time.Time) (float64, error) {
	return yearFraction(civil.DateOf(start), civil.DateOf(end))
}

func yearFraction(start, end civil.Date) (float64, error) {
	days := end.DaysSince(start)
	if days < 0 {
		return 0, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidInput, end, start)
	}
	return float64(days) / daysPerYear, nil
}

// CalendarDay 把时间截断为所在日历日的 UTC 零点，零值保持不变
func CalendarDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return civil.DateOf(t).In(time.UTC)
}
