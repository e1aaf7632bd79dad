package db

import (
	"fmt"
	"log/slog"

	"boardapi/internal/config"
	"boardapi/internal/models"
	"boardapi/internal/observability"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the postgres connection and, when enabled, migrates and seeds the shared tables.
func Init(cfg *config.Config) (*gorm.DB, error) {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: observability.NewGormLogger(observability.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Database connection established")

	if !cfg.AutoMigrate {
		return DB, nil
	}

	err = DB.AutoMigrate(
		&models.Board{},
		&models.SiteConfig{},
		&models.Member{},
		&models.PopularKeyword{},
		&models.BoardGood{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Database migration completed")

	if err := seed(DB, cfg); err != nil {
		return nil, err
	}
	return DB, nil
}

// MigrateWriteTable creates or updates the physical table of one board.
func MigrateWriteTable(db *gorm.DB, table string) error {
	return db.Table(table).AutoMigrate(&models.Write{})
}

func seed(db *gorm.DB, cfg *config.Config) error {
	var count int64
	db.Model(&models.SiteConfig{}).Count(&count)
	if count == 0 {
		site := models.SiteConfig{
			Title:      "Board",
			Admin:      "admin",
			DelaySec:   30,
			SearchPart: 10000,
			PageRows:   15,
		}
		if err := db.Create(&site).Error; err != nil {
			return fmt.Errorf("failed to seed site config: %w", err)
		}
		slog.Info("Initial site config created")
	}

	if err := seedAdmin(db, cfg); err != nil {
		return err
	}

	db.Model(&models.Board{}).Count(&count)
	if count > 0 {
		slog.Info("Boards already seeded, skipping")
	} else {
		boards := []models.Board{
			{Table: "free", Subject: "Free board", ReplyOrder: true, PageRows: 15},
			{Table: "notice", Subject: "Notice", ReplyOrder: true, PageRows: 15},
			{Table: "qa", Subject: "Q&A", ReplyOrder: true, PageRows: 15, UseCategory: true, CategoryList: "general|bug|feature"},
		}
		for _, board := range boards {
			if err := db.Create(&board).Error; err != nil {
				slog.Warn("Failed to create board", "bo_table", board.Table, "error", err)
			}
		}
		slog.Info("Initial boards created successfully")
	}

	var boards []models.Board
	if err := db.Find(&boards).Error; err != nil {
		return err
	}
	for _, board := range boards {
		if err := MigrateWriteTable(db, cfg.WriteTable(board.Table)); err != nil {
			return fmt.Errorf("failed to migrate board %s: %w", board.Table, err)
		}
	}
	return nil
}

// seedAdmin creates the super admin member when ADMIN_PASSWORD is set.
func seedAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	var site models.SiteConfig
	if err := db.Order("id").Take(&site).Error; err != nil {
		return fmt.Errorf("failed to load site config: %w", err)
	}

	var count int64
	db.Model(&models.Member{}).Where("mb_id = ?", site.Admin).Count(&count)
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.Member{ID: site.Admin, Name: "Administrator", Nick: "admin", Password: string(hash), Level: 10}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin member: %w", err)
	}
	slog.Info("Admin member created", "mb_id", site.Admin)
	return nil
}
