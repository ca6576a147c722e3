package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/internal/handler"
	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/internal/service"
)

type mockSessions struct {
	sessionCalls []string
	refreshCalls []string
}

func (m *mockSessions) Session(_ context.Context, address string) (service.SessionSnapshot, error) {
	m.sessionCalls = append(m.sessionCalls, address)
	return service.SessionSnapshot{
		Address:   address,
		Profile:   models.StudentProfile(models.Student{ID: "0x51", Name: "Ada", Surname: "Lovelace"}),
		Contracts: []models.Contract{},
		View:      service.SessionView{DisplayName: "Ada Lovelace", Initials: "AL", IsStudent: true, HasProfile: true, IsAuthenticated: true},
	}, nil
}

func (m *mockSessions) Refresh(ctx context.Context, address string) (service.SessionSnapshot, error) {
	m.refreshCalls = append(m.refreshCalls, address)
	return m.Session(ctx, address)
}

func (m *mockSessions) Invalidate(context.Context, ...string) {}

func (m *mockSessions) Start(context.Context) {}

func TestProfileHandler_Session(t *testing.T) {
	svc := &mockSessions{}
	app := fiber.New()
	handler.NewProfileHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/profiles"))

	resp := doJSON(t, app, http.MethodGet, "/api/v2/profiles/0xABC", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{testWallet}, svc.sessionCalls)

	body, _ := readEnvelope(t, resp)
	var snapshot service.SessionSnapshot
	require.NoError(t, json.Unmarshal(body.Data, &snapshot))
	require.Equal(t, models.ProfileStudent, snapshot.Profile.Kind)
	require.Equal(t, "AL", snapshot.View.Initials)

	resp = doJSON(t, app, http.MethodGet, "/api/v2/profiles/nobody", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProfileHandler_RefreshIsOwnerOnly(t *testing.T) {
	svc := &mockSessions{}
	profiles := handler.NewProfileHandler(svc, zerolog.Nop())
	app, group := walletApp("/api/v2/profiles")
	group.Post("/:address/refresh", middleware.WithWallet(profiles.Refresh, middleware.WalletOptions{MatchParam: "address"}))

	resp := doJSON(t, app, http.MethodPost, "/api/v2/profiles/0xdef/refresh", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.refreshCalls)

	resp = doJSON(t, app, http.MethodPost, "/api/v2/profiles/"+testWallet+"/refresh", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{testWallet}, svc.refreshCalls)
}
