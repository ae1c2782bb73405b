package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/application"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler gRPC 处理器
// 负责处理与 FX 期权定价相关的 gRPC 请求
type Handler struct {
	app *application.PricingService
}

var _ FXOptionPricingServer = (*Handler)(nil)

// NewHandler 创建 gRPC 处理器实例
func NewHandler(app *application.PricingService) *Handler {
	return &Handler{app: app}
}

// PriceOption 单笔定价
func (h *Handler) PriceOption(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cmd, err := CommandFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.app.PriceOption(ctx, cmd)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return ResultToStruct(result)
}

// GetLatestResult 查询最新定价结果，请求格式 {"symbol": "EURUSD"}
func (h *Handler) GetLatestResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	symbol, err := stringField(req, "symbol")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.app.GetLatestResult(ctx, symbol)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return ResultToStruct(result)
}

// CommandFromStruct 解析定价请求，日期格式 YYYY-MM-DD
func CommandFromStruct(req *structpb.Struct) (application.PriceOptionCommand, error) {
	var cmd application.PriceOptionCommand
	var err error

	if cmd.Symbol, err = stringField(req, "symbol"); err != nil {
		return cmd, err
	}
	if cmd.OptionType, err = stringField(req, "option_type"); err != nil {
		return cmd, err
	}

	numbers := []struct {
		name string
		dst  *float64
	}{
		{"quote", &cmd.Quote},
		{"strike_price", &cmd.StrikePrice},
		{"foreign_rate", &cmd.ForeignRate},
		{"domestic_rate", &cmd.DomesticRate},
		{"volatility", &cmd.Volatility},
	}
	for _, n := range numbers {
		if *n.dst, err = numberField(req, n.name); err != nil {
			return cmd, err
		}
	}

	dates := []struct {
		name     string
		dst      *time.Time
		required bool
	}{
		{"today", &cmd.Today, true},
		{"settlement", &cmd.Settlement, false},
		{"maturity", &cmd.Maturity, true},
	}
	for _, d := range dates {
		raw, err := stringField(req, d.name)
		if err != nil {
			return cmd, err
		}
		if raw == "" {
			if d.required {
				return cmd, fmt.Errorf("%s is required", d.name)
			}
			continue
		}
		date, err := civil.ParseDate(raw)
		if err != nil {
			return cmd, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", d.name, raw)
		}
		*d.dst = date.In(time.UTC)
	}
	return cmd, nil
}

// ResultToStruct 将定价结果编码为 Struct
func ResultToStruct(r *domain.PricingResult) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":             float64(r.ID),
		"symbol":         r.Symbol,
		"option_type":    string(r.OptionType),
		"quote":          r.Quote.String(),
		"strike_price":   r.StrikePrice.String(),
		"foreign_rate":   r.ForeignRate.String(),
		"domestic_rate":  r.DomesticRate.String(),
		"volatility":     r.Volatility.String(),
		"today":          civil.DateOf(r.Today).String(),
		"maturity":       civil.DateOf(r.Maturity).String(),
		"time_to_expiry": r.TimeToExpiry,
		"price":          r.OptionPrice.InexactFloat64(),
		"option_price":   r.OptionPrice.String(),
		"day_count":      r.DayCount,
		"pricing_model":  r.PricingModel,
		"calculated_at":  time.UnixMilli(r.CalculatedAt).UTC().Format(time.RFC3339Nano),
	}
	if !r.Settlement.IsZero() {
		fields["settlement"] = civil.DateOf(r.Settlement).String()
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

// CodeFor 将领域错误映射为 gRPC 状态码
func CodeFor(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrInvalidState):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrNumericDomain):
		return codes.OutOfRange
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func toStatus(ctx context.Context, err error) error {
	code := CodeFor(err)
	if code == codes.Internal {
		logger.Error(ctx, "fx pricing rpc failed", "error", err)
	}
	return status.Error(code, err.Error())
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	default:
		return "", fmt.Errorf("%s must be a string", name)
	}
}

// numberField 读取必填数值字段，缺失或为 null 时报错而不是取 0
func numberField(s *structpb.Struct, name string) (float64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	case *structpb.Value_NumberValue:
		return kind.NumberValue, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, name)
	}
}
