package handler

import (
	"strings"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RefreshToken refreshes an access token using a refresh token.
// @Summary Refresh Access Token
// @Description Provides a new access and refresh token pair if the refresh token is valid.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "Refresh token missing"
// @Failure 401 {object} dto.ErrorResponse "Invalid or expired refresh token"
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "Invalid request body.", err)
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		return domain.NewInvalidInputError("refresh_token is required.")
	}

	accessToken, refreshToken, err := h.authService.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		logger.Get().Info("Token refresh rejected", zap.Error(err))
		return err
	}

	return c.JSON(dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
