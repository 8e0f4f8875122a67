package main

import (
	"context"
	"fmt"
	"os"

	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/pkg/config"
	"github.com/feastlyapp/feastly-backend/pkg/db"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/migrate"
	"github.com/feastlyapp/feastly-backend/pkg/security"
)

// Seeds a local database with demo accounts, a small menu, and one launch
// offer. Intended for dev environments only; every insert is idempotent on
// the natural key so reruns are safe.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed a production database")
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()

	if err := seedUsers(gdb, cfg.Password); err != nil {
		logg.Error(ctx, "failed to seed users", err)
		os.Exit(1)
	}
	if err := seedMenu(gdb); err != nil {
		logg.Error(ctx, "failed to seed menu", err)
		os.Exit(1)
	}
	if err := seedOffers(gdb); err != nil {
		logg.Error(ctx, "failed to seed offers", err)
		os.Exit(1)
	}

	logg.Info(ctx, "seed complete")
}

func seedUsers(gdb *gorm.DB, pwCfg config.PasswordConfig) error {
	accounts := []struct {
		email    string
		name     string
		password string
		role     enums.UserRole
	}{
		{"admin@feastly.dev", "Feastly Admin", "admin-dev-password", enums.UserRoleAdmin},
		{"diner@feastly.dev", "Demo Diner", "diner-dev-password", enums.UserRoleCustomer},
	}

	for _, account := range accounts {
		hash, err := security.HashPassword(account.password, pwCfg)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", account.email, err)
		}
		var existing models.User
		err = gdb.Where("lower(email) = ?", strings.ToLower(account.email)).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup user %s: %w", account.email, err)
		}
		user := models.User{
			ID:           uuid.New(),
			Email:        account.email,
			Name:         account.name,
			PasswordHash: hash,
			Role:         account.role,
		}
		if err := gdb.Create(&user).Error; err != nil {
			return fmt.Errorf("create user %s: %w", account.email, err)
		}
	}
	return nil
}

func seedMenu(gdb *gorm.DB) error {
	items := []models.MenuItem{
		{
			Name:        "Crispy Halloumi Bites",
			Description: "Fried halloumi with hot honey and sesame",
			PriceCents:  850,
			Category:    enums.MenuCategoryAppetizer,
			Tags:        pq.StringArray{"vegetarian", "spicy"},
			Popular:     true,
			PrepMinutes: 10,
			Available:   true,
		},
		{
			Name:        "Smash Burger",
			Description: "Double patty, pickles, house sauce, potato bun",
			PriceCents:  1450,
			Category:    enums.MenuCategoryMain,
			Tags:        pq.StringArray{"beef"},
			Popular:     true,
			PrepMinutes: 15,
			Available:   true,
		},
		{
			Name:        "Charred Broccolini",
			Description: "Lemon, chili flakes, toasted almonds",
			PriceCents:  700,
			Category:    enums.MenuCategorySide,
			Tags:        pq.StringArray{"vegan", "gluten-free"},
			PrepMinutes: 8,
			Available:   true,
		},
		{
			Name:        "Basque Cheesecake",
			Description: "Burnt top, soft center",
			PriceCents:  900,
			Category:    enums.MenuCategoryDessert,
			Tags:        pq.StringArray{"vegetarian"},
			PrepMinutes: 5,
			Available:   true,
		},
		{
			Name:        "Yuzu Lemonade",
			Description: "Sparkling, lightly sweetened",
			PriceCents:  500,
			Category:    enums.MenuCategoryDrink,
			Tags:        pq.StringArray{"vegan"},
			PrepMinutes: 2,
			Available:   true,
		},
	}

	for i := range items {
		var existing models.MenuItem
		err := gdb.Where("name = ?", items[i].Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup menu item %s: %w", items[i].Name, err)
		}
		items[i].ID = uuid.New()
		if err := gdb.Create(&items[i]).Error; err != nil {
			return fmt.Errorf("create menu item %s: %w", items[i].Name, err)
		}
	}
	return nil
}

func seedOffers(gdb *gorm.DB) error {
	offer := models.Offer{
		ID:               uuid.New(),
		Code:             "WELCOME10",
		Title:            "Welcome offer",
		Description:      "10% off your first order over $20",
		Type:             enums.OfferTypePercent,
		Value:            10,
		MinSubtotalCents: 2000,
		Active:           true,
	}
	var existing models.Offer
	err := gdb.Where("upper(code) = ?", strings.ToUpper(offer.Code)).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup offer %s: %w", offer.Code, err)
	}
	if err := gdb.Create(&offer).Error; err != nil {
		return fmt.Errorf("create offer %s: %w", offer.Code, err)
	}
	return nil
}
