package middleware

import (
	"strings"

	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// JWTAuthMiddleware checks for a valid bearer JWT and stores the caller as the request's Actor.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return errors.Unauthorized("Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return errors.Unauthorized("Invalid Authorization header format")
			}

			claims, err := ParseToken(parts[1], secret)
			if err != nil {
				return err
			}

			c.Set(actorKey, models.Actor{UserID: claims.UserID, Username: claims.Username})
			return next(c)
		}
	}
}

// ParseToken verifies an HS256 token signed with secret and returns its claims.
func ParseToken(tokenString, secret string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errors.Unauthorized("Token expired")
		}
		return nil, errors.Unauthorized("Invalid token")
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.Unauthorized("Invalid token")
	}
	return claims, nil
}

// ActorFrom returns the authenticated caller stored by JWTAuthMiddleware.
func ActorFrom(c echo.Context) (models.Actor, bool) {
	actor, ok := c.Get(actorKey).(models.Actor)
	return actor, ok
}
