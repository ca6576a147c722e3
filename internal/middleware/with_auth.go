package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edudefi-go-api/internal/utils"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// WalletOptions configures WithWallet.
type WalletOptions struct {
	// MatchParam names a route parameter that must equal the authenticated wallet.
	MatchParam string
}

// WithWallet wraps handler so it only runs for an authenticated wallet, optionally acting on
// its own address only.
func WithWallet(handler fiber.Handler, opts WalletOptions) fiber.Handler {
	param := strings.TrimSpace(opts.MatchParam)

	return func(c *fiber.Ctx) error {
		wallet := WalletFromContext(c)
		if wallet == "" {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "wallet authentication required")
		}

		if param != "" {
			target := strings.TrimSpace(c.Params(param))
			if !sui.IsValidAddress(target) || sui.NormalizeAddress(target) != wallet {
				return utils.SendErrorCode(c, fiber.StatusForbidden, "forbidden", "wallet may only act on its own address")
			}
		}

		return handler(c)
	}
}
