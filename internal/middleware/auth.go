package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vr-campus-tours/internal/model"
	"github.com/iliyamo/vr-campus-tours/internal/utils"
)

// SessionSource resolves a token hash to the owning user of a live
// session. repository.SessionRepo satisfies it.
type SessionSource interface {
	Validate(ctx context.Context, tokenHash string) (uint64, error)
}

// UserSource loads a user by id. repository.UserRepo satisfies it.
type UserSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Auth returns an Echo middleware that validates a Bearer access token end
// to end: signature and expiry on the JWT itself, then the backing session
// row, then a fresh user load. The fresh load is what makes logout and
// role changes take effect immediately — a token whose session row is gone
// fails with 401, and a token carrying a stale role claim is rejected the
// moment the stored role differs. Handlers access the authenticated
// identity via c.Get("user_id") (uint64) and c.Get("role") (string, always
// the stored role).
func Auth(secret string, sessions SessionSource, users UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse the token using the HS256 signing method and our secret.
			// The callback supplies the signing key and rejects tokens signed
			// with a different algorithm.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil {
				// Expired tokens get their own message so clients can
				// distinguish re-login from a malformed credential.
				if errors.Is(err, jwt.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			claimRole, _ := claims["role"].(string)

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// The session row is the revocation channel: logout revokes it,
			// deleting the user cascades it away.
			hash := utils.HashToken(raw)
			sessUserID, err := sessions.Validate(ctx, hash)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired or revoked"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
			}
			if sessUserID != uint64(sub) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			u, err := users.GetByID(ctx, sessUserID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account no longer exists"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user lookup failed"})
			}
			// A role change since issuance invalidates the token; the client
			// must sign in again to pick up the new role.
			if claimRole != u.Role {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "role changed since token was issued"})
			}

			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			c.Set("token_hash", hash)
			return next(c)
		}
	}
}
