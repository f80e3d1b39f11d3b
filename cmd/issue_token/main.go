// Command issue_token prints an access/refresh token pair for an existing
// user. Login itself happens outside this service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"cpa-academy/internal/config"
	"cpa-academy/internal/database"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/repository"
	"cpa-academy/internal/service"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the user to issue tokens for")
	flag.Parse()
	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: issue_token -email user@example.com")
		os.Exit(2)
	}

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	db, err := database.NewSQLXDB(ctx, cfg.DB, cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepository := repository.NewSQLXUserRepository(db)
	authService, err := service.NewAuthService(userRepository, cfg.JWT)
	if err != nil {
		log.Fatal("Failed to create AuthService", zap.Error(err))
	}

	user, err := userRepository.GetUserByEmail(ctx, *email)
	if err != nil {
		log.Fatal("Failed to look up user", zap.String("email", *email), zap.Error(err))
	}
	if user == nil {
		log.Fatal("User not found", zap.String("email", *email))
	}

	accessToken, refreshToken, err := authService.IssueTokenPair(ctx, user)
	if err != nil {
		log.Fatal("Failed to issue tokens", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		log.Fatal("Failed to write tokens", zap.Error(err))
	}
}
