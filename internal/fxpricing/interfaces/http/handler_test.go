package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/application"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/infrastructure/persistence/mysql"
	"github.com/wyfcoding/fxpricing/pkg/db"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := db.Init(db.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, mysql.AutoMigrate(database.DB))

	app := application.NewPricingService(mysql.NewPricingRepository(database.DB), nil, nil, nil)
	router := gin.New()
	NewPricingHandler(app).RegisterRoutes(&router.RouterGroup)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const eurusdRequest = `{
	"symbol": "eurusd",
	"quote": 1.3,
	"strike_price": 1.3,
	"foreign_rate": 0.02,
	"domestic_rate": 0.03,
	"volatility": 0.1,
	"today": "2024-01-01",
	"maturity": "2025-01-01"
}`

func TestPriceOption(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/fx-options/price", eurusdRequest)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"symbol":"EURUSD"`)
	assert.Contains(t, w.Body.String(), `"option_type":"CALL"`)
	assert.Contains(t, w.Body.String(), `"pricing_model":"GarmanKohlhagen"`)

	w = do(t, router, http.MethodGet, "/api/v1/fx-options/results/EURUSD/latest", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"symbol":"EURUSD"`)
}

func TestPriceOption_ErrorStatuses(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"missing symbol", `{"today":"2024-01-01","maturity":"2025-01-01"}`, http.StatusBadRequest},
		{"bad date", strings.Replace(eurusdRequest, "2024-01-01", "01/01/2024", 1), http.StatusBadRequest},
		{"negative volatility", strings.Replace(eurusdRequest, `"volatility": 0.1`, `"volatility": -0.1`, 1), http.StatusBadRequest},
		{"unknown type", strings.Replace(eurusdRequest, `"symbol"`, `"option_type": "straddle", "symbol"`, 1), http.StatusBadRequest},
		{"maturity before today", strings.Replace(eurusdRequest, "2025-01-01", "2023-06-01", 1), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/v1/fx-options/price", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestPriceOption_MissingRatesAreRejected(t *testing.T) {
	router := newTestRouter(t)

	for _, field := range []string{"foreign_rate", "domestic_rate", "quote"} {
		t.Run(field, func(t *testing.T) {
			body := withoutField(eurusdRequest, field)
			require.NotContains(t, body, field)

			w := do(t, router, http.MethodPost, "/api/v1/fx-options/price", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"detail":"INVALID_INPUT"`)
			assert.Contains(t, w.Body.String(), field+" is required")
		})
	}

	w := do(t, router, http.MethodGet, "/api/v1/fx-options/results/EURUSD/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPriceOption_ExplicitZeroRates(t *testing.T) {
	router := newTestRouter(t)
	body := strings.NewReplacer(`"foreign_rate": 0.02`, `"foreign_rate": 0`, `"domestic_rate": 0.03`, `"domestic_rate": 0`).Replace(eurusdRequest)

	w := do(t, router, http.MethodPost, "/api/v1/fx-options/price", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"foreign_rate":"0"`)
}

func TestBatchPriceOptions_MissingRate(t *testing.T) {
	router := newTestRouter(t)
	body := fmt.Sprintf(`{"contracts":[%s,%s]}`, eurusdRequest, withoutField(eurusdRequest, "domestic_rate"))

	w := do(t, router, http.MethodPost, "/api/v1/fx-options/price/batch", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "contracts[1]: ")
	assert.Contains(t, w.Body.String(), `"detail":"INVALID_INPUT"`)
}

// withoutField 删除请求体中的某一行字段
func withoutField(body, field string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, `"`+field+`"`) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func TestBatchPriceOptions(t *testing.T) {
	router := newTestRouter(t)
	bad := strings.Replace(eurusdRequest, `"quote": 1.3`, `"quote": 0`, 1)
	body := fmt.Sprintf(`{"batch_id":"B-1","contracts":[%s,%s]}`, eurusdRequest, bad)

	w := do(t, router, http.MethodPost, "/api/v1/fx-options/price/batch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"batch_id":"B-1"`)
	assert.Contains(t, w.Body.String(), `"success_count":1`)
	assert.Contains(t, w.Body.String(), `"failure_count":1`)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_INPUT"`)

	w = do(t, router, http.MethodPost, "/api/v1/fx-options/price/batch", `{"contracts":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLatestResult_NotFound(t *testing.T) {
	router := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/v1/fx-options/results/GBPUSD/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory(t *testing.T) {
	router := newTestRouter(t)
	for range 3 {
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/fx-options/price", eurusdRequest).Code)
	}

	w := do(t, router, http.MethodGet, "/api/v1/fx-options/results/EURUSD/history?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = do(t, router, http.MethodGet, "/api/v1/fx-options/results/EURUSD/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("ctx: %w", err) }

	assert.Equal(t, http.StatusBadRequest, StatusFor(wrap(domain.ErrInvalidInput)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(wrap(domain.ErrInvalidState)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(wrap(domain.ErrNumericDomain)))
	assert.Equal(t, http.StatusNotFound, StatusFor(wrap(domain.ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(context.Canceled))
}
