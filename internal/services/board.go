package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"boardapi/internal/models"
	"boardapi/internal/utils"

	"gorm.io/gorm"
)

var boardTablePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,20}$`)

// BoardService loads board descriptors, caching them for a short while.
type BoardService struct {
	db    *gorm.DB
	cache *utils.TTLCache[models.Board]
	ttl   time.Duration
}

func NewBoardService(db *gorm.DB, ttl time.Duration) *BoardService {
	return &BoardService{
		db:    db,
		cache: utils.NewTTLCache[models.Board](200),
		ttl:   ttl,
	}
}

// Get returns the board named boTable. The name is validated before it can
// reach a table name.
func (s *BoardService) Get(ctx context.Context, boTable string) (*models.Board, error) {
	if !boardTablePattern.MatchString(boTable) {
		return nil, ErrInvalidBoard
	}
	if board, ok := s.cache.Get(boTable); ok {
		return &board, nil
	}

	var board models.Board
	err := s.db.WithContext(ctx).Where("bo_table = ?", boTable).Take(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch board %s: %w", boTable, err)
	}

	s.cache.Set(boTable, board, s.ttl)
	return &board, nil
}

func (s *BoardService) List(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	err := s.db.WithContext(ctx).Order("bo_table").Find(&boards).Error
	return boards, err
}

// ConfigService loads the site configuration row.
type ConfigService struct {
	db    *gorm.DB
	cache *utils.TTLCache[models.SiteConfig]
	ttl   time.Duration
}

func NewConfigService(db *gorm.DB, ttl time.Duration) *ConfigService {
	return &ConfigService{
		db:    db,
		cache: utils.NewTTLCache[models.SiteConfig](1),
		ttl:   ttl,
	}
}

const siteConfigKey = "site"

func (s *ConfigService) Get(ctx context.Context) (*models.SiteConfig, error) {
	if cfg, ok := s.cache.Get(siteConfigKey); ok {
		return &cfg, nil
	}

	var cfg models.SiteConfig
	if err := s.db.WithContext(ctx).Order("id").Take(&cfg).Error; err != nil {
		return nil, fmt.Errorf("fetch site config: %w", err)
	}
	s.cache.Set(siteConfigKey, cfg, s.ttl)
	return &cfg, nil
}
