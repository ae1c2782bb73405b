package domain

import "errors"

var (
	// ErrInvalidInput 赋值时参数不满足约束（非正的即期/行权价/波动率、到期日早于估值日等）
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState 定价时状态不完整，或到期日早于估值日
	ErrInvalidState = errors.New("invalid state")
	// ErrNumericDomain 公式输入会产生无定义的结果
	ErrNumericDomain = errors.New("numeric domain error")
	// ErrNotFound 没有该货币对的定价结果
	ErrNotFound = errors.New("pricing result not found")
)

// ErrorCode 将领域错误映射为稳定的错误码，用于事件与接口层
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrNumericDomain):
		return "NUMERIC_DOMAIN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}
