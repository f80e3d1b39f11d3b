package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cpa-academy/internal/config"
	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrInvalidJWTToken = errors.New("invalid jwt token")

// AuthService defines the interface for bearer token operations.
type AuthService interface {
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error)
	IssueTokenPair(ctx context.Context, user *domain.User) (accessToken string, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, newRefreshToken string, err error)
}

type authServiceImpl struct {
	userRepo domain.UserRepository
	jwtCfg   config.JWTConfig
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo domain.UserRepository, jwtCfg config.JWTConfig) (AuthService, error) {
	if len(jwtCfg.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}
	if jwtCfg.AccessTokenTTL <= 0 || jwtCfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("jwt token TTLs must be positive")
	}
	return &authServiceImpl{userRepo: userRepo, jwtCfg: jwtCfg}, nil
}

func (s *authServiceImpl) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		UserID:      user.ID,
		TokenType:   tokenType,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
			ID:        util.NewULID(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}

func (s *authServiceImpl) IssueTokenPair(ctx context.Context, user *domain.User) (string, string, error) {
	accessToken, err := s.CreateJWT(ctx, user, s.jwtCfg.AccessTokenTTL, dto.TokenTypeAccess)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := s.CreateJWT(ctx, user, s.jwtCfg.RefreshTokenTTL, dto.TokenTypeRefresh)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func tokenSnippet(tokenString string) string {
	return tokenString[:min(len(tokenString), 20)] + "..."
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtCfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("JWT token expired", zap.String("token_snippet", tokenSnippet(tokenString)))
		} else {
			logger.Get().Warn("JWT validation failed",
				zap.Error(err),
				zap.String("token_snippet", tokenSnippet(tokenString)))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	claims, ok := token.Claims.(*dto.AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidJWTToken
	}
	return claims, nil
}

func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return "", "", domain.NewError(domain.ErrUnauthorized, "Invalid or expired refresh token.", err)
	}
	if claims.TokenType != dto.TokenTypeRefresh {
		return "", "", domain.NewUnauthorizedError("Not a refresh token.")
	}

	// Flags are re-read so a revoked staff role does not survive a refresh.
	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", "", domain.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		logger.Get().Warn("User not found for refresh token", zap.String("userID", claims.UserID))
		return "", "", domain.NewUnauthorizedError("User not found.")
	}

	accessToken, refreshToken, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return "", "", domain.NewInternalError("Failed to issue tokens", err)
	}

	logger.Get().Info("JWT token refreshed", zap.String("userID", user.ID))
	return accessToken, refreshToken, nil
}
