package services

import (
	"context"
	"regexp"
	"testing"

	"boardapi/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voteInsert = `INSERT INTO "g5_board_good" ("bo_table","wr_id","mb_id","bg_flag","bg_datetime") VALUES ($1,$2,$3,$4,$5) ON CONFLICT DO NOTHING RETURNING "bg_id"`

func TestVote_RecordsAndIncrements(t *testing.T) {
	svc, mock, _ := newTestService(t, models.Board{})
	write := &models.Write{ID: 7, MemberID: "author"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(voteInsert)).
		WithArgs("free", 7, "voter", "good", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"bg_id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "g5_write_free" SET "wr_good"\s*=\s*wr_good \+ 1 WHERE wr_id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Vote(context.Background(), write, &models.Member{ID: "voter"}, "good"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVote_SecondVoteIsRejected(t *testing.T) {
	svc, mock, _ := newTestService(t, models.Board{})
	write := &models.Write{ID: 7}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(voteInsert)).
		WillReturnRows(sqlmock.NewRows([]string{"bg_id"}))
	mock.ExpectRollback()

	err := svc.Vote(context.Background(), write, &models.Member{ID: "voter"}, "nogood")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVote_Rejections(t *testing.T) {
	svc, mock, _ := newTestService(t, models.Board{})
	write := &models.Write{ID: 7, MemberID: "author"}

	assert.ErrorIs(t, svc.Vote(context.Background(), write, &models.Member{ID: "voter"}, "meh"), ErrInvalidGoodType)
	assert.ErrorIs(t, svc.Vote(context.Background(), write, &models.Member{ID: "author"}, "good"), ErrOwnWrite)
	assert.NoError(t, mock.ExpectationsWereMet())
}
