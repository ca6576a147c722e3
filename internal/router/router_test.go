package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/internal/config"
	"github.com/noah-isme/edudefi-go-api/internal/handler"
	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/router"
	"github.com/noah-isme/edudefi-go-api/internal/service"
)

type stubSessions struct{}

func (stubSessions) Session(_ context.Context, address string) (service.SessionSnapshot, error) {
	return service.SessionSnapshot{Address: address}, nil
}

func (stubSessions) Refresh(_ context.Context, address string) (service.SessionSnapshot, error) {
	return service.SessionSnapshot{Address: address}, nil
}

func (stubSessions) Invalidate(context.Context, ...string) {}

func (stubSessions) Start(context.Context) {}

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Config{
		AppName:            "EduDeFi API",
		AppEnv:             "test",
		ActiveNetwork:      config.NetworkTestnet,
		Networks:           map[string]config.NetworkConfig{config.NetworkTestnet: {Name: config.NetworkTestnet, PackageID: "0xa11ce", RegistryID: "0xbeef"}},
		RateLimitPerMinute: 1,
	}
	logger := zerolog.Nop()

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProfileHandler: handler.NewProfileHandler(stubSessions{}, logger),
		JWTMiddleware:  middleware.JWTProtected("secret"),
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHealthReportsNetwork(t *testing.T) {
	resp := send(t, testApp(t), http.MethodGet, "/api/v2/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "EduDeFi API", resp.Header.Get("X-Application"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"network":"testnet"`)
	require.Contains(t, string(body), `"package_id":"0xa11ce"`)
}

func TestMetricsEndpointExposesAPICounters(t *testing.T) {
	app := testApp(t)
	send(t, app, http.MethodGet, "/api/v2/profiles/0xabc", "")

	resp := send(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "api_requests_total"))
}

func TestProfileRefreshRequiresOwnerToken(t *testing.T) {
	app := testApp(t)

	resp := send(t, app, http.MethodPost, "/api/v2/profiles/0xabc/refresh", "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "0xabc",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	resp = send(t, app, http.MethodPost, "/api/v2/profiles/0xabc/refresh", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/api/v2/profiles/0xabc/refresh", token)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
