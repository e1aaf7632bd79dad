package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"boardapi/internal/models"
	"boardapi/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxKeywordLen  = 50
	keywordBatch   = 50
	keywordFlushAt = 500 * time.Millisecond
)

type clientIPKey struct{}

// WithClientIP stores the requesting ip for the keyword tracker.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the ip stored by WithClientIP.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// KeywordCount is one row of the popular keyword ranking.
type KeywordCount struct {
	Word string `json:"pp_word"`
	Hits int64  `json:"hits"`
}

// PopularService 异步记录搜索关键词，按 (词, 日期, ip) 去重
type PopularService struct {
	db      *gorm.DB
	queue   chan models.PopularKeyword
	pending map[string]bool
	mu      sync.Mutex
	now     func() time.Time
}

func NewPopularService(db *gorm.DB, queueSize int) *PopularService {
	return &PopularService{
		db:      db,
		queue:   make(chan models.PopularKeyword, queueSize),
		pending: make(map[string]bool),
		now:     time.Now,
	}
}

func pendingKey(k models.PopularKeyword) string {
	return k.Word + "|" + k.Date.Format("2006-01-02") + "|" + k.IP
}

// Record queues term without blocking. It returns ErrTrackerFull when the
// queue has no room.
func (s *PopularService) Record(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	if utf8.RuneCountInString(term) > maxKeywordLen {
		term = string([]rune(term)[:maxKeywordLen])
	}

	now := s.now()
	item := models.PopularKeyword{
		Word: term,
		Date: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		IP:   ClientIP(ctx),
	}
	key := pendingKey(item)

	s.mu.Lock()
	if s.pending[key] {
		s.mu.Unlock()
		return nil
	}
	s.pending[key] = true
	s.mu.Unlock()

	select {
	case s.queue <- item:
		return nil
	default:
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		return ErrTrackerFull
	}
}

// Start runs the batch writer until ctx is done, flushing what is left.
func (s *PopularService) Start(ctx context.Context) {
	go s.worker(ctx)
}

func (s *PopularService) worker(ctx context.Context) {
	batch := make([]models.PopularKeyword, 0, keywordBatch)
	ticker := time.NewTicker(keywordFlushAt)
	defer ticker.Stop()

	for {
		select {
		case item := <-s.queue:
			batch = append(batch, item)
			if len(batch) >= keywordBatch {
				s.flush(context.Background(), batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(context.Background(), batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			if len(batch) > 0 {
				s.flush(context.Background(), batch)
			}
			return
		}
	}
}

// flush stores a batch; rows already counted for the day are ignored.
func (s *PopularService) flush(ctx context.Context, batch []models.PopularKeyword) {
	rows := make([]models.PopularKeyword, len(batch))
	copy(rows, batch)

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		observability.KeywordDrops.Add(float64(len(rows)))
		slog.Error("Failed to store popular keywords", "count", len(rows), "error", err)
	}

	s.mu.Lock()
	for _, row := range batch {
		delete(s.pending, pendingKey(row))
	}
	s.mu.Unlock()
}

// Top returns the most searched words since the given day.
func (s *PopularService) Top(ctx context.Context, since time.Time, limit int) ([]KeywordCount, error) {
	var out []KeywordCount
	err := s.db.WithContext(ctx).
		Model(&models.PopularKeyword{}).
		Select("pp_word AS word, COUNT(*) AS hits").
		Where("pp_date >= ?", since).
		Group("pp_word").
		Order("hits DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
