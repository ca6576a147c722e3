package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/edudefi-go-api/internal/utils"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// LocalWallet is the fiber Locals key holding the authenticated wallet address.
const LocalWallet = "wallet_address"

// JWTProtected returns a middleware that validates JWT bearer tokens whose subject is a wallet
// address.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid token claims")
		}

		wallet := walletFromClaims(claims)
		if wallet == "" {
			return utils.SendErrorCode(c, fiber.StatusUnauthorized, "unauthorized", "token subject is not a wallet address")
		}
		c.Locals(LocalWallet, wallet)

		return c.Next()
	}
}

// WalletFromContext returns the authenticated wallet, or "" for anonymous requests.
func WalletFromContext(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocalWallet).(string); ok {
		return v
	}
	return ""
}

func walletFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "wallet", "address"} {
		value, ok := claims[key].(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if sui.IsValidAddress(value) {
			return sui.NormalizeAddress(value)
		}
	}
	return ""
}
