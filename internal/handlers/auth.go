package handlers

import (
	"errors"
	"net/http"
	"time"

	"boardapi/internal/middleware"
	"boardapi/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthHandler(db *gorm.DB, jwtSecret string) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret}
}

type LoginRequest struct {
	MemberID string `json:"mb_id" binding:"required,max=20"`
	Password string `json:"mb_password" binding:"required"`
}

// Login 登录：校验密码，写入 session 并签发 token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var member models.Member
	err := h.db.WithContext(c.Request.Context()).Where("mb_id = ?", req.MemberID).Take(&member).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respondServiceError(c, err)
		return
	}
	if err != nil || !checkPassword(member.Password, req.Password) {
		RespondError(c, http.StatusUnauthorized, "Invalid member id or password")
		return
	}

	token, err := middleware.IssueMemberToken(h.jwtSecret, member.ID, tokenTTL)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := middleware.SetSessionMember(c, member.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(tokenTTL.Seconds()),
		"member":       member,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.SetSessionMember(c, ""); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the current member, or null for guests.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"member": middleware.CurrentMember(c)})
}
