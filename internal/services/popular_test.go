package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"boardapi/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopularService_RecordDeduplicates(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := NewPopularService(db, 10)
	svc.now = func() time.Time { return fixedNow }
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	require.NoError(t, svc.Record(ctx, "golang"))
	require.NoError(t, svc.Record(ctx, " golang "))
	require.NoError(t, svc.Record(ctx, "   "))
	require.NoError(t, svc.Record(WithClientIP(context.Background(), "10.0.0.2"), "golang"))

	assert.Len(t, svc.queue, 2)
	item := <-svc.queue
	assert.Equal(t, "golang", item.Word)
	assert.Equal(t, "10.0.0.1", item.IP)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), item.Date)
}

func TestPopularService_RecordTruncatesLongTerms(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := NewPopularService(db, 1)

	require.NoError(t, svc.Record(context.Background(), strings.Repeat("가", 80)))
	item := <-svc.queue
	assert.Equal(t, maxKeywordLen, len([]rune(item.Word)))
}

func TestPopularService_QueueFull(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := NewPopularService(db, 1)

	require.NoError(t, svc.Record(context.Background(), "one"))
	assert.ErrorIs(t, svc.Record(context.Background(), "two"), ErrTrackerFull)
	assert.Len(t, svc.pending, 1)
}

func TestPopularService_FlushIgnoresDuplicates(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewPopularService(db, 10)
	svc.now = func() time.Time { return fixedNow }
	require.NoError(t, svc.Record(context.Background(), "golang"))
	batch := []models.PopularKeyword{<-svc.queue}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "g5_popular" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"pp_id"}).AddRow(1))
	mock.ExpectCommit()

	svc.flush(context.Background(), batch)
	assert.Empty(t, svc.pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "", ClientIP(context.Background()))
	assert.Equal(t, "1.2.3.4", ClientIP(WithClientIP(context.Background(), "1.2.3.4")))
}
