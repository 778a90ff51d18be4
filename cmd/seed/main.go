package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/communify/communify-backend/config"
	"github.com/communify/communify-backend/pkg/helpers"
)

// Seeds the first administrator account. Safe to run repeatedly: an
// existing account with the same email is promoted, not duplicated,
// and its password is left untouched.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	if name == "" {
		name = "Administrator"
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hasher := helpers.NewPasswordHasher(0)
	hash, err := hasher.Hash(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, name, password_hash, role, is_active, status)
		VALUES ($1, $2, $3, 'admin', true, 'active')
		ON CONFLICT (email) DO UPDATE
		SET role = 'admin', is_active = true, status = 'active', updated_at = now()
		RETURNING id
	`, email, name, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("admin ready: id=%s email=%s\n", id, email)
}
