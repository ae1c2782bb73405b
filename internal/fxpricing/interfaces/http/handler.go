// 包 FX 期权定价的 HTTP 接口
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/application"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

// PricingHandler HTTP 处理器
// 负责处理与 FX 期权定价相关的 HTTP 请求
type PricingHandler struct {
	app *application.PricingService
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(app *application.PricingService) *PricingHandler {
	return &PricingHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/fx-options")
	{
		api.POST("/price", h.PriceOption)
		api.POST("/price/batch", h.BatchPriceOptions)
		api.GET("/results/:symbol/latest", h.GetLatestResult)
		api.GET("/results/:symbol/history", h.GetHistory)
	}
}

// PriceOptionRequest 定价请求，日期格式 YYYY-MM-DD
// 数值字段必须显式给出，缺失不按 0 处理
type PriceOptionRequest struct {
	Symbol       string   `json:"symbol" binding:"required"`
	OptionType   string   `json:"option_type"`
	Quote        *float64 `json:"quote"`
	StrikePrice  *float64 `json:"strike_price"`
	ForeignRate  *float64 `json:"foreign_rate"`
	DomesticRate *float64 `json:"domestic_rate"`
	Volatility   *float64 `json:"volatility"`
	Today        string   `json:"today" binding:"required"`
	Settlement   string   `json:"settlement"`
	Maturity     string   `json:"maturity" binding:"required"`
}

// BatchPriceOptionsRequest 批量定价请求
type BatchPriceOptionsRequest struct {
	BatchID   string               `json:"batch_id"`
	Contracts []PriceOptionRequest `json:"contracts" binding:"required,min=1,dive"`
}

// PriceOption 单笔定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req PriceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.app.PriceOption(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// BatchPriceOptions 批量定价，单笔失败不影响其它合约
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var req BatchPriceOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.BatchPriceOptionsCommand{BatchID: req.BatchID}
	for i, item := range req.Contracts {
		contract, err := item.toCommand()
		if err != nil {
			writeError(c, fmt.Errorf("contracts[%d]: %w", i, err))
			return
		}
		cmd.Contracts = append(cmd.Contracts, contract)
	}

	result, err := h.app.BatchPriceOptions(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"batch_id":      result.BatchID,
		"results":       result.Results,
		"errors":        result.Errors,
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
		"average_time":  result.AverageTime,
	})
}

// GetLatestResult 查询某货币对的最新定价结果
func (h *PricingHandler) GetLatestResult(c *gin.Context) {
	result, err := h.app.GetLatestResult(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// GetHistory 查询历史定价结果
func (h *PricingHandler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "limit must be an integer", "")
			return
		}
		limit = n
	}

	results, err := h.app.GetHistory(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"symbol":  c.Param("symbol"),
		"results": results,
		"count":   len(results),
	})
}

func (r PriceOptionRequest) toCommand() (application.PriceOptionCommand, error) {
	cmd := application.PriceOptionCommand{Symbol: r.Symbol, OptionType: r.OptionType}
	numbers := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"quote", r.Quote, &cmd.Quote},
		{"strike_price", r.StrikePrice, &cmd.StrikePrice},
		{"foreign_rate", r.ForeignRate, &cmd.ForeignRate},
		{"domestic_rate", r.DomesticRate, &cmd.DomesticRate},
		{"volatility", r.Volatility, &cmd.Volatility},
	}
	for _, n := range numbers {
		if n.src == nil {
			return cmd, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, n.name)
		}
		*n.dst = *n.src
	}

	today, err := parseDate("today", r.Today)
	if err != nil {
		return application.PriceOptionCommand{}, err
	}
	maturity, err := parseDate("maturity", r.Maturity)
	if err != nil {
		return application.PriceOptionCommand{}, err
	}
	var settlement time.Time
	if r.Settlement != "" {
		if settlement, err = parseDate("settlement", r.Settlement); err != nil {
			return application.PriceOptionCommand{}, err
		}
	}

	cmd.Today, cmd.Settlement, cmd.Maturity = today, settlement, maturity
	return cmd, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := civil.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: expected YYYY-MM-DD, got %q", domain.ErrInvalidInput, field, value)
	}
	return d.In(time.UTC), nil
}

// StatusFor 将领域错误映射为 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrNumericDomain):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "fx pricing request failed", "path", c.FullPath(), "error", err)
	}
	response.ErrorWithStatus(c, status, err.Error(), domain.ErrorCode(err))
}
