package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boardapi/internal/config"
	"boardapi/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{SessionSecret: "session-secret", JWTSecret: "jwt-secret", TablePrefix: "g5_write_"}
	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:       db,
		Config:   cfg,
		Boards:   services.NewBoardService(db, time.Minute),
		Site:     services.NewConfigService(db, time.Minute),
		Popular:  services.NewPopularService(db, 8),
		Throttle: services.NewThrottleService(nil, false),
	})
	return r
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupEngine(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRoutesRegistered(t *testing.T) {
	r := setupEngine(t)

	routes := make(map[string]bool)
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/boards/:bo_table/writes",
		"POST /api/v1/boards/:bo_table/writes",
		"POST /api/v1/boards/:bo_table/writes/:wr_id/replies",
		"POST /api/v1/boards/:bo_table/writes/:wr_id/votes/:good_type",
		"DELETE /api/v1/boards/:bo_table/writes/:wr_id/comments/:comment_id",
		"GET /api/v1/search/popular",
		"POST /api/v1/auth/login",
	} {
		assert.True(t, routes[want], want)
	}
}
