package router

import (
	"net/http"

	"boardapi/internal/config"
	"boardapi/internal/handlers"
	"boardapi/internal/middleware"
	"boardapi/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps are the long-lived services shared by every request.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Boards   *services.BoardService
	Site     *services.ConfigService
	Popular  *services.PopularService
	Throttle services.Throttler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(d.DB, d.Config.JWTSecret)
	boardHandler := handlers.NewBoardHandler(d.Boards, d.Popular)
	writeHandler := handlers.NewWriteHandler(d.DB, d.Config, d.Boards, d.Popular)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   d.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	api := r.Group("/api/v1")
	api.Use(
		sessions.Sessions("board_session", store),
		middleware.ParseJSONBody(),
		middleware.InjectConfig(d.Site),
		middleware.LoadMember(d.DB, d.Config.JWTSecret),
	)

	writeDelay := middleware.WriteDelay(d.Throttle, "write")
	commentDelay := middleware.WriteDelay(d.Throttle, "comment")

	// 登录 / 退出
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	api.GET("/boards", boardHandler.ListBoards)
	api.GET("/search/popular", boardHandler.PopularKeywords)

	board := api.Group("/boards/:bo_table")
	{
		board.GET("", boardHandler.GetBoard)

		// 帖子列表 / 搜索, 详情带上一篇/下一篇
		board.GET("/writes", writeHandler.List)
		board.GET("/writes/:wr_id", writeHandler.Get)
		board.POST("/writes", writeDelay, writeHandler.Create)
		board.POST("/writes/:wr_id/replies", writeDelay, writeHandler.Reply)
		board.PUT("/writes/:wr_id", writeHandler.Update)
		board.DELETE("/writes/:wr_id", writeHandler.Delete)

		board.POST("/writes/:wr_id/votes/:good_type", middleware.MemberRequired(), writeHandler.Vote)

		board.GET("/writes/:wr_id/comments", writeHandler.ListComments)
		board.POST("/writes/:wr_id/comments", commentDelay, writeHandler.CreateComment)
		board.PUT("/writes/:wr_id/comments/:comment_id", writeHandler.UpdateComment)
		board.DELETE("/writes/:wr_id/comments/:comment_id", writeHandler.DeleteComment)
	}
}
