package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardService_Get(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewBoardService(db, time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "g5_board" WHERE bo_table = $1 LIMIT $2`)).
		WithArgs("free", 1).
		WillReturnRows(sqlmock.NewRows([]string{"bo_table", "bo_subject", "bo_reply_order"}).AddRow("free", "Free board", true))

	board, err := svc.Get(context.Background(), "free")
	require.NoError(t, err)
	assert.Equal(t, "Free board", board.Subject)
	assert.True(t, board.ReplyOrder)

	// served from cache
	board, err = svc.Get(context.Background(), "free")
	require.NoError(t, err)
	assert.Equal(t, "free", board.Table)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardService_GetRejectsBadNames(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewBoardService(db, time.Minute)

	for _, name := range []string{"", "free; drop", "../x", "averyveryverylongboardname"} {
		_, err := svc.Get(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidBoard, name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardService_GetNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewBoardService(db, time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "g5_board" WHERE bo_table = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"bo_table"}))

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBoardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigService_GetCaches(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewConfigService(db, time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "g5_config" ORDER BY id LIMIT $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cf_admin", "cf_delay_sec"}).AddRow(1, "admin", 30))

	for i := 0; i < 2; i++ {
		cfg, err := svc.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "admin", cfg.Admin)
		assert.Equal(t, 30, cfg.DelaySec)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
