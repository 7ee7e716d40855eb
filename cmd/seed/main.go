// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	appctx "stockward/internal/core/context"
	"stockward/internal/core/id"
	"stockward/internal/infrastructure/storage/postgres"
	"stockward/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	// Seed admin user
	if err := seedUser(ctx, pool, log, getEnv("ADMIN_EMAIL", "admin@stockward.local"), getEnv("ADMIN_PASSWORD", "Admin123!"), appctx.RoleAdmin); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedUser(ctx, pool, log, "clerk@stockward.local", "Clerk123!", appctx.RoleClerk); err != nil {
			log.Warnw("failed to seed clerk user", "error", err)
		}
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger, email, password, role string) error {
	// Check if the user already exists
	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		email,
	).Scan(&existingID)
	if err == nil {
		log.Infow("user already exists", "email", email, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check user exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now().UTC()

	_, err = pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			role, is_active, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'System', $4, $5, true, $6, $6, 1)
	`, userID, email, string(passwordHash), roleDisplayName(role), role, now)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	log.Infow("user created", "email", email, "role", role, "user_id", userID)
	return nil
}

func roleDisplayName(role string) string {
	if role == appctx.RoleAdmin {
		return "Admin"
	}
	return "Clerk"
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Seed Warehouses
	warehouses := []struct {
		code      string
		name      string
		address   string
		isDefault bool
	}{
		{"WH-001", "Main Warehouse", "12 Dock Street", true},
		{"WH-002", "Retail Store", "5 Market Square", false},
		{"WH-003", "Returns Area", "12 Dock Street, Bay C", false},
	}

	for _, w := range warehouses {
		_, err := pool.Exec(ctx, `
			INSERT INTO cat_warehouses (id, code, name, address, is_active, is_default, deletion_mark, version)
			VALUES ($1, $2, $3, $4, true, $5, false, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), w.code, w.name, w.address, w.isDefault)
		if err != nil {
			log.Warnw("failed to seed warehouse", "code", w.code, "error", err)
		}
	}

	// 2. Seed Products
	products := []struct {
		sku      string
		name     string
		unit     string
		price    string
		minStock int64
	}{
		{"PAP-A4", "Office paper A4 (500 sheets)", "pack", "6.90", 50},
		{"PEN-BLU", "Ballpoint pen, blue", "pcs", "0.85", 200},
		{"STP-001", "Desktop stapler", "pcs", "12.50", 10},
		{"CLP-028", "Paper clips 28mm (100 pcs)", "pack", "1.20", 30},
		{"FOL-REG", "Lever arch folder", "pcs", "3.40", 25},
		{"BOX-STD", "Shipping box, standard", "pcs", "0.60", 0},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO cat_products (id, code, name, sku, unit, price, min_stock, deletion_mark, version)
			VALUES ($1, $2, $3, $2, $4, $5, $6, false, 1)
			ON CONFLICT (sku) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), p.sku, p.name, p.unit, p.price, p.minStock)
		if err != nil {
			log.Warnw("failed to seed product", "sku", p.sku, "error", err)
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
