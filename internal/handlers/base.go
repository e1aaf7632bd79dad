package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"boardapi/internal/middleware"
	"boardapi/internal/models"
	"boardapi/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RespondError writes {"error": message} and aborts the chain.
func RespondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// respondServiceError maps service errors onto http statuses. Anything
// unknown is logged and hidden behind a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWriteNotFound):
		RespondError(c, http.StatusNotFound, "Write not found")
	case errors.Is(err, services.ErrBoardNotFound), errors.Is(err, services.ErrInvalidBoard):
		RespondError(c, http.StatusNotFound, "Board not found")
	case errors.Is(err, services.ErrInvalidGoodType):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrOwnWrite):
		RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyVoted):
		RespondError(c, http.StatusConflict, err.Error())
	case services.IsRejected(err):
		RespondError(c, http.StatusForbidden, err.Error())
	default:
		_ = c.Error(err)
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// canModify: super admin, the owning member, or the guest password.
func canModify(c *gin.Context, w *models.Write, password string) bool {
	if middleware.IsSuperAdmin(c) {
		return true
	}
	if w.MemberID != "" {
		member := middleware.CurrentMember(c)
		return member != nil && member.ID == w.MemberID
	}
	return checkPassword(w.Password, password)
}

// bodyPassword reads wr_password from the parsed JSON body. Deletes may
// come without a body.
func bodyPassword(c *gin.Context) string {
	password, _ := middleware.ParsedBody(c)["wr_password"].(string)
	return password
}

func checkPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isAuthor reports whether the logged in member wrote w.
func isAuthor(c *gin.Context, w *models.Write) bool {
	member := middleware.CurrentMember(c)
	return member != nil && w.MemberID != "" && member.ID == w.MemberID
}
