package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"boardapi/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const CheckMemberKey = "member"
const TokenKey = "api_token"

const (
	sessionMemberKey = "mb_id"
	sessionTokenKey  = "api_token"
)

var errInvalidToken = errors.New("invalid token")

// IssueMemberToken signs an HS256 token whose subject is mbID. An empty
// mbID issues a guest token.
func IssueMemberToken(secret, mbID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   mbID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseMemberToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// BearerToken strips the "Bearer" scheme from an Authorization header.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "Bearer"))
}

// LoadMember resolves the caller from a bearer token, falling back to the
// session cookie. Guests continue without a member.
func LoadMember(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c.GetHeader("Authorization")); token != "" {
			mbID, err := parseMemberToken(token, jwtSecret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			if mbID != "" && !setMember(c, db, mbID) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Member not found"})
				return
			}
			c.Set(TokenKey, token)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if mbID, ok := session.Get(sessionMemberKey).(string); ok && mbID != "" {
			setMember(c, db, mbID)
		}

		// a session token only counts once the client sends it back
		if token, ok := session.Get(sessionTokenKey).(string); ok && token != "" {
			c.Set(TokenKey, token)
		} else {
			session.Set(sessionTokenKey, newSessionToken())
			if err := session.Save(); err != nil {
				slog.Warn("Failed to save session token", "error", err)
			}
		}
		c.Next()
	}
}

func setMember(c *gin.Context, db *gorm.DB, mbID string) bool {
	var member models.Member
	if err := db.WithContext(c.Request.Context()).Where("mb_id = ?", mbID).Take(&member).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Error("Failed to load member", "mb_id", mbID, "error", err)
		}
		return false
	}
	c.Set(CheckMemberKey, &member)
	return true
}

func newSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to generate session token", "error", err)
	}
	return hex.EncodeToString(b)
}

// SetSessionMember logs mbID into the session cookie. An empty mbID logs out.
func SetSessionMember(c *gin.Context, mbID string) error {
	session := sessions.Default(c)
	if mbID == "" {
		session.Delete(sessionMemberKey)
	} else {
		session.Set(sessionMemberKey, mbID)
	}
	return session.Save()
}

// CurrentMember returns the member loaded by LoadMember, or nil for guests.
func CurrentMember(c *gin.Context) *models.Member {
	if v, ok := c.Get(CheckMemberKey); ok {
		if member, ok := v.(*models.Member); ok {
			return member
		}
	}
	return nil
}

// MemberRequired rejects guests.
func MemberRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentMember(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		c.Next()
	}
}
