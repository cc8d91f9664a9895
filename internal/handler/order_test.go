package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hugsndnugs/Sentinel-Shop/internal/limiter"
	"github.com/hugsndnugs/Sentinel-Shop/internal/middleware"
	"github.com/hugsndnugs/Sentinel-Shop/internal/model"
	"github.com/hugsndnugs/Sentinel-Shop/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(webhookURL string) (*fiber.App, *OrderHandler) {
	lim := limiter.New(limiter.Config{Enabled: false})
	svc := service.NewWebhookService(webhookURL, false, lim, nil)

	app := fiber.New()
	h := NewOrderHandler(svc)
	app.Post("/api/v1/orders", h.Submit)
	app.Post("/api/v1/orders/validate", h.Validate)

	healthH := NewHealthHandler(svc)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	adminH := NewAdminHandler(h, lim)
	app.Get("/api/v1/admin/stats", middleware.AdminKey("test-admin-key"), adminH.Stats)

	return app, h
}

func validOrderBody() []byte {
	body, _ := json.Marshal(model.OrderRequest{
		CustomerName:        "Ann",
		CustomerEmail:       "a@b.co",
		DiscordToken:        strings.Repeat("x", 60),
		DiscordClientID:     "123456789012345678",
		DiscordClientSecret: strings.Repeat("s", 40),
		DiscordRedirectURI:  "https://example.com/cb",
	})
	return body
}

func postJSON(t *testing.T, app *fiber.App, path string, body []byte) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func TestSubmitOrderDeliversToWebhook(t *testing.T) {
	received := make(chan []byte, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		received <- raw
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	app, _ := newTestApp(webhook.URL)
	resp, body := postJSON(t, app, "/api/v1/orders", validOrderBody())

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["reference"])

	payload := <-received
	assert.Contains(t, string(payload), "DISCORD_CLIENT_ID=123456789012345678")
	assert.Contains(t, string(payload), strings.Repeat("x", 60))
}

func TestSubmitOrderValidationFailure(t *testing.T) {
	webhookCalled := false
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalled = true
	}))
	defer webhook.Close()

	app, _ := newTestApp(webhook.URL)
	body, _ := json.Marshal(model.OrderRequest{CustomerEmail: "a@b.co"})
	resp, decoded := postJSON(t, app, "/api/v1/orders", body)

	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, false, decoded["ok"])
	assert.Equal(t, string(model.FailValidation), decoded["failure_kind"])
	fieldErrors, ok := decoded["field_errors"].([]any)
	require.True(t, ok)
	assert.Contains(t, fieldErrors, string(model.FieldCustomerName))
	assert.False(t, webhookCalled, "invalid orders must not reach the webhook")
}

func TestSubmitOrderShortTokenMessage(t *testing.T) {
	app, _ := newTestApp("https://unused.example.com")
	body, _ := json.Marshal(model.OrderRequest{
		CustomerName:        "Ann",
		CustomerEmail:       "a@b.co",
		DiscordToken:        "too-short",
		DiscordClientID:     "123456789012345678",
		DiscordClientSecret: "secret",
		DiscordRedirectURI:  "https://example.com/cb",
	})
	resp, decoded := postJSON(t, app, "/api/v1/orders", body)

	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, decoded["message"], "Discord token appears to be invalid")
}

func TestSubmitOrderUnconfiguredWebhook(t *testing.T) {
	app, _ := newTestApp("")
	resp, decoded := postJSON(t, app, "/api/v1/orders", validOrderBody())

	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, string(model.FailUnconfigured), decoded["failure_kind"])
	assert.Contains(t, decoded["message"], "Webhook URL is not configured")
}

func TestSubmitOrderUpstreamNotFound(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer webhook.Close()

	app, _ := newTestApp(webhook.URL)
	resp, decoded := postJSON(t, app, "/api/v1/orders", validOrderBody())

	assert.Equal(t, 502, resp.StatusCode)
	assert.Contains(t, decoded["message"], "endpoint not found")
}

func TestSubmitOrderInvalidBody(t *testing.T) {
	app, _ := newTestApp("https://unused.example.com")
	resp, decoded := postJSON(t, app, "/api/v1/orders", []byte("{not json"))

	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "invalid body", decoded["error"])
}

func TestValidateDryRun(t *testing.T) {
	app, _ := newTestApp("")

	resp, decoded := postJSON(t, app, "/api/v1/orders/validate", validOrderBody())
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, decoded["valid"])

	body, _ := json.Marshal(model.OrderRequest{
		CustomerName:        "Ann",
		CustomerEmail:       "a@b.co",
		DiscordToken:        strings.Repeat("x", 60),
		DiscordClientID:     "not-numeric",
		DiscordClientSecret: "secret",
		DiscordRedirectURI:  "https://example.com/cb",
	})
	resp, decoded = postJSON(t, app, "/api/v1/orders/validate", body)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, false, decoded["valid"])
	assert.Contains(t, decoded["message"], "Client ID should be numeric")
}

func TestHealthAndReady(t *testing.T) {
	app, _ := newTestApp("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode, "not ready without a webhook URL")

	appConfigured, _ := newTestApp("https://discord.com/api/webhooks/123/abc")
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	resp, err = appConfigured.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAdminStats(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	app, _ := newTestApp(webhook.URL)
	postJSON(t, app, "/api/v1/orders", validOrderBody())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode, "stats require the admin key")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Admin-Key", "test-admin-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, float64(1), stats["orders_accepted"])
}
