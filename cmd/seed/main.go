// seed inserts a confirmed demo user into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/auth-starter/internal/usecase"
	"github.com/joho/godotenv"
)

const (
	seedEmail    = "demo@test.local"
	seedPassword = "Password123!"
	seedName     = "Demo User"
	seedCost     = 10
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	email := domain.NormalizeEmail(seedEmail)

	user, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		fmt.Println("Seed user already exists")
	case errors.Is(err, domain.ErrUserNotFound):
		hash, err := usecase.NewBcryptHasher(seedCost).Hash(seedPassword)
		if err != nil {
			pool.Close()
			log.Fatalf("hash password: %v", err)
		}
		name := seedName
		user, err = users.Create(ctx, &domain.User{
			Email:          email,
			PasswordHash:   hash,
			Name:           &name,
			EmailConfirmed: true,
		})
		if err != nil {
			pool.Close()
			log.Fatalf("create user: %v", err)
		}
		fmt.Println("Seed complete")
	default:
		pool.Close()
		log.Fatalf("find user: %v", err)
	}

	fmt.Println()
	fmt.Printf("  Email:    %s\n", seedEmail)
	fmt.Printf("  Password: %s\n", seedPassword)
	fmt.Printf("  User ID:  %s\n", user.ID)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: sign in (stores cookies in jar.txt):")
	fmt.Println()
	fmt.Printf("    curl -s -c jar.txt -X POST http://localhost:8080/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", seedEmail, seedPassword)
	fmt.Println()
	fmt.Println("  Step 2: call an authenticated endpoint:")
	fmt.Println()
	fmt.Println("    curl -s -b jar.txt http://localhost:8080/auth/me")
	fmt.Println()
	fmt.Println("  Step 3: rotate the refresh token:")
	fmt.Println()
	fmt.Println("    curl -s -b jar.txt -c jar.txt -X POST http://localhost:8080/auth/refresh")
}
