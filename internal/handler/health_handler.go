package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edudefi-go-api/internal/config"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Network     string    `json:"network"`
	PackageID   string    `json:"package_id"`
}

// HealthCheck reports liveness and the ledger network the service is bound to.
func HealthCheck(cfg config.Config) fiber.Handler {
	network := cfg.Network()
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Network:     network.Name,
			PackageID:   network.PackageID,
		})
	}
}
