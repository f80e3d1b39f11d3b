package middleware

import (
	"strings"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID"    // Key for storing UserID in fiber.Ctx locals
	RequesterKey        = "requester" // Key for storing the domain.Requester in fiber.Ctx locals
)

// bearerToken extracts the token of an "Authorization: Bearer <jwt>" header.
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(AuthorizationHeader)
	if len(authHeader) < len(BearerSchema) || !strings.EqualFold(authHeader[:len(BearerSchema)], BearerSchema) {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len(BearerSchema):])
	return token, token != ""
}

func setRequester(c *fiber.Ctx, claims *dto.AuthClaims) {
	c.Locals(UserIDKey, claims.UserID)
	c.Locals(RequesterKey, domain.Requester{
		UserID:      claims.UserID,
		IsStaff:     claims.IsStaff,
		IsSuperuser: claims.IsSuperuser,
	})
}

// Protected is a middleware function that protects routes by requiring a valid JWT.
// It validates the token using the provided AuthService and sets the requester in the context.
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(AuthorizationHeader) == "" {
			return domain.NewUnauthorizedError("Authentication credentials were not provided.")
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			return domain.NewUnauthorizedError("Authorization header must be 'Bearer <token>'.")
		}

		claims, err := authService.ValidateJWT(c.UserContext(), tokenString)
		if err != nil {
			return domain.NewError(domain.ErrUnauthorized, "Given token not valid for any token type.", err)
		}

		if claims.TokenType != dto.TokenTypeAccess {
			return domain.NewUnauthorizedError("Token is not an access token.")
		}

		setRequester(c, claims)
		return c.Next()
	}
}

// OptionalAuth is a middleware function that optionally authenticates a user.
// If a valid access token is provided, it sets the requester in the context.
// Otherwise, it proceeds without one, allowing for anonymous access.
func OptionalAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}

		claims, err := authService.ValidateJWT(c.UserContext(), tokenString)
		if err != nil {
			logger.Get().Debug("OptionalAuth: JWT validation failed, proceeding as anonymous.", zap.Error(err))
			return c.Next()
		}

		if claims.TokenType != dto.TokenTypeAccess {
			logger.Get().Debug("OptionalAuth: Invalid token type, proceeding as anonymous.", zap.String("tokenType", claims.TokenType))
			return c.Next()
		}

		setRequester(c, claims)
		return c.Next()
	}
}

// RequesterFrom returns the identity set by Protected or OptionalAuth. It is
// anonymous when neither authenticated the request.
func RequesterFrom(c *fiber.Ctx) domain.Requester {
	if requester, ok := c.Locals(RequesterKey).(domain.Requester); ok {
		return requester
	}
	return domain.Requester{}
}
