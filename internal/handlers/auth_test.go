package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-with-at-least-32-chars!"

func authRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	h := NewAuthHandler(db, testJWTSecret)
	r := gin.New()
	r.Use(sessions.Sessions("board_session", cookie.NewStore([]byte("session-secret"))))
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	return r, mock
}

func login(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r, mock := authRouter(t)
	hash, err := hashPassword("pw1234")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "g5_member" WHERE mb_id = $1 LIMIT $2`)).
		WithArgs("kim", 1).
		WillReturnRows(sqlmock.NewRows([]string{"mb_no", "mb_id", "mb_password", "mb_nick"}).AddRow(1, "kim", hash, "Kim"))

	w := login(r, `{"mb_id":"kim","mb_password":"pw1234"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))

	var resp struct {
		AccessToken string                 `json:"access_token"`
		Member      map[string]interface{} `json:"member"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "kim", resp.Member["mb_id"])
	assert.NotContains(t, resp.Member, "mb_password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	r, mock := authRouter(t)
	hash, err := hashPassword("pw1234")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "g5_member" WHERE mb_id = $1 LIMIT $2`)).
		WithArgs("kim", 1).
		WillReturnRows(sqlmock.NewRows([]string{"mb_no", "mb_id", "mb_password"}).AddRow(1, "kim", hash))

	w := login(r, `{"mb_id":"kim","mb_password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownMember(t *testing.T) {
	r, mock := authRouter(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "g5_member" WHERE mb_id = $1 LIMIT $2`)).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"mb_no", "mb_id"}))

	w := login(r, `{"mb_id":"ghost","mb_password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	r, _ := authRouter(t)
	w := login(r, `{"mb_id":"kim"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
