package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incentive_hub/config"
	"incentive_hub/internal/api/router"
	"incentive_hub/internal/common"
	"incentive_hub/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(&logger.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	os.Exit(m.Run())
}

func testRoutes(v1 fiber.Router, _ *router.Router) error {
	v1.Get("/biz", func(c fiber.Ctx) error {
		return common.NewStateError("Chiến dịch đã kết thúc", nil)
	})
	v1.Get("/boom", func(c fiber.Ctx) error {
		panic("boom")
	})
	v1.Get("/gone", func(c fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	v1.Get("/plain", func(c fiber.Ctx) error {
		return errors.New("database down")
	})
	return nil
}

func call(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func TestInitFiberApp(t *testing.T) {
	cfg := &config.Configuration{CORS_Origins: "https://admin.example.com", RateLimit_Enabled: false}
	app, err := InitFiberApp(cfg, testRoutes)
	require.NoError(t, err)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{path: "/api/v1/biz", status: common.StatusBadRequest, code: "BIZ_001"},
		{path: "/api/v1/boom", status: fiber.StatusInternalServerError, code: "SYS_001"},
		{path: "/api/v1/gone", status: fiber.StatusNotFound, code: "DB_002"},
		{path: "/api/v1/plain", status: fiber.StatusInternalServerError, code: "SYS_001"},
		{path: "/api/v1/missing", status: fiber.StatusNotFound, code: "DB_002"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := call(t, app, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestCORSPreflightAllowsOrganizationHeader(t *testing.T) {
	cfg := &config.Configuration{CORS_Origins: "https://admin.example.com"}
	app, err := InitFiberApp(cfg, testRoutes)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/biz", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "X-Active-Organization-ID")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://admin.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Active-Organization-ID")
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	cfg := &config.Configuration{CORS_Origins: "https://admin.example.com", RateLimit_Enabled: true, RateLimit_Max: 1, RateLimit_Window: 60}
	app, err := InitFiberApp(cfg, testRoutes)
	require.NoError(t, err)

	resp, _ := call(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/biz", nil))
	assert.Equal(t, common.StatusBadRequest, resp.StatusCode)

	resp, body := call(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/biz", nil))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, common.ErrCodeBusinessOperation.Code, body["code"])
	assert.Equal(t, common.MsgTooManyRequests, body["message"])
}

func TestOrgCode(t *testing.T) {
	assert.Equal(t, "ACME_SALES", orgCode("  Acme   sales "))
	assert.Equal(t, "", orgCode(""))
}
