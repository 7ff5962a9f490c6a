// Command seed loads demo catalog data and resets the admin password.
//
//	go run ./cmd/seed              # demo data + admin
//	go run ./cmd/seed -reset-admin # only reset the admin password
package main

import (
	"context"
	"errors"
	"flag"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/logger"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type demoProduct struct {
	name  string
	price string
	stock int
}

var demoCatalog = map[string][]demoProduct{
	"Electronics": {
		{"Laptop", "1000.00", 10},
		{"Wireless Mouse", "25.50", 120},
	},
	"Office Supplies": {
		{"A4 Paper (500 sheets)", "4.99", 300},
		{"Ballpoint Pen", "0.35", 1000},
	},
}

func main() {
	resetOnly := flag.Bool("reset-admin", false, "only reset the admin password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Database unavailable", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepo(db)
	auth := service.NewAuthService(userRepo, jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpirationHours, cfg.JWT.Issuer), log)

	if _, err := auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName); err != nil {
		log.Fatal("Failed to seed admin user", zap.Error(err))
	}
	if err := auth.ResetPassword(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal("Failed to reset admin password", zap.Error(err))
	}
	log.Info("Admin password reset", zap.String("email", cfg.Admin.Email))

	if *resetOnly {
		return
	}

	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	ledger := service.NewLedgerService(db, productRepo, categoryRepo, repository.NewTransactionRepo(db), log)
	catalog := service.NewCatalogService(db, categoryRepo, productRepo, ledger, nil, log)

	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		log.Fatal("Failed to list categories", zap.Error(err))
	}
	if len(existing) > 0 {
		log.Info("Catalog already seeded", zap.Int("categories", len(existing)))
		return
	}

	for categoryName, products := range demoCatalog {
		category, err := catalog.CreateCategory(ctx, service.CategoryRequest{Name: categoryName}, "seed")
		if err != nil {
			log.Fatal("Failed to create category", zap.String("category", categoryName), zap.Error(err))
		}
		for _, p := range products {
			unitPrice := decimal.RequireFromString(p.price)
			product, err := catalog.CreateProduct(ctx, service.CreateProductRequest{
				Name:          p.name,
				CategoryID:    category.ID,
				UnitPrice:     &unitPrice,
				StockQuantity: p.stock,
			}, "seed")
			var invalid *service.ValidationError
			if errors.As(err, &invalid) {
				log.Fatal("Invalid demo product", zap.String("product", p.name), zap.Any("errors", invalid.Fields))
			}
			if err != nil {
				log.Fatal("Failed to create product", zap.String("product", p.name), zap.Error(err))
			}
			log.Info("Product seeded", zap.String("product", product.Name), zap.Int("stock", product.StockQuantity))
		}
	}
}
