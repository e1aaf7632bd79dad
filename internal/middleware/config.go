package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"boardapi/internal/models"

	"github.com/gin-gonic/gin"
)

const SiteConfigKey = "config"

type SiteConfigLoader interface {
	Get(ctx context.Context) (*models.SiteConfig, error)
}

// InjectConfig loads the site configuration for every request.
func InjectConfig(loader SiteConfigLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := loader.Get(c.Request.Context())
		if err != nil {
			slog.Error("Failed to load site config", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Site configuration unavailable"})
			return
		}
		c.Set(SiteConfigKey, cfg)
		c.Next()
	}
}

func CurrentConfig(c *gin.Context) *models.SiteConfig {
	if v, ok := c.Get(SiteConfigKey); ok {
		if cfg, ok := v.(*models.SiteConfig); ok {
			return cfg
		}
	}
	return nil
}

// IsSuperAdmin reports whether the current member is the configured super admin.
func IsSuperAdmin(c *gin.Context) bool {
	member := CurrentMember(c)
	return member != nil && CurrentConfig(c).IsSuperAdmin(member.ID)
}
