package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/wyfcoding/fxpricing/pkg/config"
	"github.com/wyfcoding/fxpricing/pkg/logger"
	"github.com/wyfcoding/fxpricing/pkg/metrics"
	"github.com/wyfcoding/fxpricing/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ ratelimit.Limit) (*ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return &ratelimit.Result{Allowed: s.allowed, RetryAfter: 1500 * time.Millisecond}, nil
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGinLoggingMiddleware_PropagatesIDs(t *testing.T) {
	r := gin.New()
	r.Use(GinLoggingMiddleware())

	var traceID, requestID string
	r.GET("/ping", func(c *gin.Context) {
		traceID = logger.TraceID(c.Request.Context())
		requestID = logger.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/ping", http.Header{TraceIDHeader: {"trace-123"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", traceID)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, w.Header().Get(RequestIDHeader))
}

func TestGinRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(GinLoggingMiddleware(), GinRecoveryMiddleware())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestGinMetricsMiddleware(t *testing.T) {
	m := metrics.New("test")
	r := gin.New()
	r.Use(GinMetricsMiddleware(m))
	r.GET("/results/:symbol", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/results/EURUSD", nil)
	serve(r, http.MethodGet, "/results/GBPUSD", nil)
	serve(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/results/:symbol", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestGinCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(GinCORSMiddleware())
	r.POST("/price", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/price", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, QPS: 1, Burst: 1}
	newRouter := func(l ratelimit.RateLimiter, cfg config.RateLimitConfig) *gin.Engine {
		r := gin.New()
		r.Use(RateLimitMiddleware(l, cfg))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	denied := &stubLimiter{allowed: false}
	w := serve(newRouter(denied, cfg), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	require.Len(t, denied.keys, 1)
	assert.Contains(t, denied.keys[0], "ratelimit:http:")

	broken := &stubLimiter{err: errors.New("redis down")}
	w = serve(newRouter(broken, cfg), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	disabled := &stubLimiter{allowed: false}
	w = serve(newRouter(disabled, config.RateLimitConfig{}), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, disabled.keys)
}

func TestRateLimitMiddleware_LocalLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(ratelimit.NewLocalRateLimiter(time.Minute), config.RateLimitConfig{Enabled: true, QPS: 1, Burst: 2}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", nil).Code)
}

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/fxpricing.v1.FXOptionPricingService/PriceOption"}

func TestGRPCLoggingInterceptor_ReadsTraceMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-trace-id", "trace-abc"))

	var seen string
	_, err := GRPCLoggingInterceptor()(ctx, nil, testInfo, func(ctx context.Context, _ any) (any, error) {
		seen = logger.TraceID(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "trace-abc", seen)
}

func TestGRPCRecoveryInterceptor(t *testing.T) {
	resp, err := GRPCRecoveryInterceptor()(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestGRPCMetricsInterceptor(t *testing.T) {
	m := metrics.New("test")
	interceptor := GRPCMetricsInterceptor(m)

	_, _ = interceptor(context.Background(), nil, testInfo, func(context.Context, any) (any, error) { return "ok", nil })
	_, _ = interceptor(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues(testInfo.FullMethod, "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues(testInfo.FullMethod, "InvalidArgument")))
}

func TestGRPCRateLimitInterceptor(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, QPS: 1, Burst: 1}
	_, err := GRPCRateLimitInterceptor(&stubLimiter{allowed: false}, cfg)(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	resp, err := GRPCRateLimitInterceptor(&stubLimiter{allowed: true}, cfg)(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
