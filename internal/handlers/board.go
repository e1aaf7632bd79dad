package handlers

import (
	"net/http"
	"time"

	"boardapi/internal/services"
	"boardapi/internal/utils"

	"github.com/gin-gonic/gin"
)

// BoardHandler lists boards and the popular search keywords.
type BoardHandler struct {
	boards  *services.BoardService
	popular *services.PopularService
}

func NewBoardHandler(boards *services.BoardService, popular *services.PopularService) *BoardHandler {
	return &BoardHandler{boards: boards, popular: popular}
}

// ListBoards 展示所有版块
func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.boards.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, err := h.boards.Get(c.Request.Context(), c.Param("bo_table"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"board":      board,
		"categories": board.Categories(),
	})
}

// PopularKeywords returns the most searched terms of the last `days` days.
func (h *BoardHandler) PopularKeywords(c *gin.Context) {
	days := min(utils.PositiveInt(c.Query("days"), 7), 365)
	limit := min(utils.PositiveInt(c.Query("limit"), 10), 100)

	since := time.Now().AddDate(0, 0, -days)
	keywords, err := h.popular.Top(c.Request.Context(), since, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if keywords == nil {
		keywords = []services.KeywordCount{}
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}
