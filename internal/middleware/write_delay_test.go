package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boardapi/internal/models"
	"boardapi/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupThrottle(t *testing.T) (*services.ThrottleService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return services.NewThrottleService(rdb, true), mr
}

// writeRouter serves POST /writes answering status, with the site config and
// an optional member preset.
func writeRouter(throttle services.Throttler, member *models.Member, status *int) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(SiteConfigKey, &models.SiteConfig{Admin: "admin", DelaySec: 30})
		if member != nil {
			c.Set(CheckMemberKey, member)
		}
		c.Next()
	})
	r.POST("/writes", WriteDelay(throttle, "write"), func(c *gin.Context) {
		c.JSON(*status, gin.H{})
	})
	return r
}

func post(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/writes", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWriteDelay_MissingToken(t *testing.T) {
	throttle, _ := setupThrottle(t)
	status := http.StatusCreated

	w := post(writeRouter(throttle, nil, &status), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header not found")
}

func TestWriteDelay_SecondWriteInsideWindow(t *testing.T) {
	throttle, mr := setupThrottle(t)
	status := http.StatusCreated
	r := writeRouter(throttle, nil, &status)

	assert.Equal(t, http.StatusCreated, post(r, "tok").Code)
	ttl := mr.TTL(services.ThrottleKey("write", services.HashToken("tok")))
	assert.Equal(t, 30*time.Second, ttl)

	w := post(r, "tok")
	assert.Equal(t, http.StatusConflict, w.Code)

	// a different token is not affected
	assert.Equal(t, http.StatusCreated, post(r, "other").Code)

	mr.FastForward(31 * time.Second)
	assert.Equal(t, http.StatusCreated, post(r, "tok").Code)
}

func TestWriteDelay_FailedWriteDoesNotStartWindow(t *testing.T) {
	throttle, mr := setupThrottle(t)
	status := http.StatusBadRequest
	r := writeRouter(throttle, nil, &status)

	assert.Equal(t, http.StatusBadRequest, post(r, "tok").Code)
	assert.False(t, mr.Exists(services.ThrottleKey("write", services.HashToken("tok"))))

	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, post(r, "tok").Code)
}

func TestWriteDelay_SuperAdminBypasses(t *testing.T) {
	throttle, mr := setupThrottle(t)
	status := http.StatusCreated
	r := writeRouter(throttle, &models.Member{ID: "admin"}, &status)

	assert.Equal(t, http.StatusCreated, post(r, "").Code)
	assert.Equal(t, http.StatusCreated, post(r, "tok").Code)
	assert.Equal(t, http.StatusCreated, post(r, "tok").Code)
	assert.Empty(t, mr.Keys())
}

func TestWriteDelay_Disabled(t *testing.T) {
	status := http.StatusCreated
	r := writeRouter(services.NewThrottleService(nil, false), nil, &status)

	assert.Equal(t, http.StatusCreated, post(r, "").Code)
}

type brokenThrottle struct{}

func (brokenThrottle) Enabled() bool { return true }
func (brokenThrottle) IsThrottled(context.Context, string, string) (bool, error) {
	return false, errors.New("connection refused")
}
func (brokenThrottle) RecordSuccess(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func TestWriteDelay_StoreOutageLetsWriteThrough(t *testing.T) {
	status := http.StatusCreated
	r := writeRouter(brokenThrottle{}, nil, &status)

	assert.Equal(t, http.StatusCreated, post(r, "tok").Code)
}

func TestWriteDelay_UsesSessionToken(t *testing.T) {
	throttle, mr := setupThrottle(t)
	r := gin.New()
	r.POST("/writes", func(c *gin.Context) {
		c.Set(SiteConfigKey, &models.SiteConfig{DelaySec: 10})
		c.Set(TokenKey, "session-token")
		c.Next()
	}, WriteDelay(throttle, "comment"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, post(r, "").Code)
	assert.True(t, mr.Exists(services.ThrottleKey("comment", services.HashToken("session-token"))))
	assert.Equal(t, http.StatusConflict, post(r, "").Code)
}
