package handler_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_RefreshToken(t *testing.T) {
	auth := &MockAuthService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (string, string, error) {
			if refreshToken == "good-refresh" {
				return "new-access", "new-refresh", nil
			}
			return "", "", domain.NewError(domain.ErrUnauthorized, "Token is invalid or expired.", service.ErrInvalidJWTToken)
		},
	}
	app := newTestApp(testServices{auth: auth})

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"Success", `{"refresh_token":"good-refresh"}`, fiber.StatusOK},
		{"InvalidToken", `{"refresh_token":"bad"}`, fiber.StatusUnauthorized},
		{"MissingToken", `{}`, fiber.StatusBadRequest},
		{"MalformedBody", `not json`, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/refresh", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == fiber.StatusOK {
				var out dto.TokenResponse
				decodeJSON(t, resp.Body, &out)
				assert.Equal(t, dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh"}, out)
			}
		})
	}
}
