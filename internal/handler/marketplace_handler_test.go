package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/internal/handler"
	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/internal/service"
)

type mockMarketplace struct {
	students    []models.Student
	contracts   []models.Contract
	lastAddress string
	err         error
}

func (m *mockMarketplace) ListStudents(context.Context) ([]models.Student, error) {
	return m.students, m.err
}

func (m *mockMarketplace) ListInvestors(context.Context) ([]models.Investor, error) {
	return []models.Investor{}, m.err
}

func (m *mockMarketplace) GetStudent(_ context.Context, id string) (models.Student, error) {
	if m.err != nil {
		return models.Student{}, m.err
	}
	for _, student := range m.students {
		if student.ID == id {
			return student, nil
		}
	}
	return models.Student{}, fmt.Errorf("%w: %s", service.ErrEntityNotFound, id)
}

func (m *mockMarketplace) GetInvestor(_ context.Context, id string) (models.Investor, error) {
	return models.Investor{}, fmt.Errorf("%w: %s", service.ErrEntityNotFound, id)
}

func (m *mockMarketplace) GetContract(_ context.Context, id string) (models.Contract, error) {
	return models.Contract{}, fmt.Errorf("%w: %s", service.ErrEntityNotFound, id)
}

func (m *mockMarketplace) ContractsFor(_ context.Context, address string) ([]models.Contract, error) {
	m.lastAddress = address
	return m.contracts, m.err
}

func marketplaceApp(svc service.MarketplaceService) *fiber.App {
	app := fiber.New()
	handler.NewMarketplaceHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/marketplace"))
	return app
}

func TestMarketplaceHandler_ListStudents(t *testing.T) {
	svc := &mockMarketplace{students: []models.Student{{ID: "0x51", Name: "Ada", FundingRequested: 50000}}}

	resp := doJSON(t, marketplaceApp(svc), http.MethodGet, "/api/v2/marketplace/students", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := readEnvelope(t, resp)
	require.True(t, body.Success)

	var students []models.Student
	require.NoError(t, json.Unmarshal(body.Data, &students))
	require.Len(t, students, 1)
	require.Equal(t, "Ada", students[0].Name)
}

func TestMarketplaceHandler_GetStudentErrors(t *testing.T) {
	app := marketplaceApp(&mockMarketplace{})

	resp := doJSON(t, app, http.MethodGet, "/api/v2/marketplace/students/not-an-id", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body, _ := readEnvelope(t, resp)
	require.Equal(t, "invalid_id", body.Code)

	resp = doJSON(t, app, http.MethodGet, "/api/v2/marketplace/students/0x99", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body, _ = readEnvelope(t, resp)
	require.False(t, body.Success)
	require.Equal(t, "not_found", body.Code)
}

func TestMarketplaceHandler_ContractsForAddress(t *testing.T) {
	svc := &mockMarketplace{contracts: []models.Contract{{ID: "0xc1", StudentAddress: "0x51"}}}
	app := marketplaceApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/api/v2/marketplace/contracts?address=0x51", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "0x51", svc.lastAddress)

	resp = doJSON(t, app, http.MethodGet, "/api/v2/marketplace/contracts", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMarketplaceHandler_UnexpectedErrorIsHidden(t *testing.T) {
	svc := &mockMarketplace{err: fmt.Errorf("rpc exploded")}

	resp := doJSON(t, marketplaceApp(svc), http.MethodGet, "/api/v2/marketplace/students", nil)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, _ := readEnvelope(t, resp)
	require.Equal(t, "internal_error", body.Code)
	require.NotContains(t, body.Message, "exploded")
}

func TestMarketplaceHandler_UndecodableStudentNamesField(t *testing.T) {
	svc := &mockMarketplace{err: fmt.Errorf("materialize 0x51: %w", &service.FieldError{
		Kind:   models.EntityStudent,
		Field:  "equity_percentage",
		Value:  "abc",
		Reason: "not a number",
	})}

	resp := doJSON(t, marketplaceApp(svc), http.MethodGet, "/api/v2/marketplace/students/0x51", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body, _ := readEnvelope(t, resp)
	require.False(t, body.Success)
	require.Equal(t, "invalid_object", body.Code)
	require.Contains(t, body.Message, "equity_percentage")
}
