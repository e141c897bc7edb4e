package main

import (
	"fmt"
	"log"
	"os"

	"go-receipts-api/internal/config"
	"go-receipts-api/internal/model"
	"go-receipts-api/internal/repository"
	"go-receipts-api/internal/service"
	"go-receipts-api/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: reset-password <username> <new-password>")
		os.Exit(2)
	}
	username, newPassword := os.Args[1], os.Args[2]

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.Load()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.DSN(), cfg.Database.LogLevel)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	if err := resetPassword(repository.NewUserRepo(db), username, newPassword); err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("✅ Password for %s has been reset, existing sessions were signed out", username)
}

func resetPassword(users repository.UserRepository, username, newPassword string) error {
	if n := len(newPassword); n < service.MinPasswordLength || n > service.MaxPasswordLength {
		return fmt.Errorf("password length must be between %d and %d characters", service.MinPasswordLength, service.MaxPasswordLength)
	}

	user, err := users.FindByUsername(username)
	if err != nil {
		return fmt.Errorf("user %s not found: %w", username, err)
	}

	hashed := &model.User{}
	if err := hashed.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := users.UpdatePassword(user.ID, hashed.Password); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Rotating the version invalidates every token issued before the reset
	if err := users.UpdateTokenVersion(user.ID, uuid.New().String()); err != nil {
		return fmt.Errorf("rotate token version: %w", err)
	}
	return nil
}
