package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "g5_write_", cfg.TablePrefix)
	assert.True(t, cfg.UseThrottle)
	assert.Equal(t, "g5_write_free", cfg.WriteTable("free"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "development with defaults",
			cfg:  Config{Env: "development", Port: "8080", DatabaseURL: "dsn", TablePrefix: "g5_write_", JWTSecret: defaultJWTSecret},
		},
		{
			name:    "missing port",
			cfg:     Config{DatabaseURL: "dsn", TablePrefix: "g5_write_"},
			wantErr: true,
		},
		{
			name:    "missing prefix",
			cfg:     Config{Port: "8080", DatabaseURL: "dsn"},
			wantErr: true,
		},
		{
			name:    "production default secret",
			cfg:     Config{Env: "production", Port: "8080", DatabaseURL: "dsn", TablePrefix: "g5_write_", JWTSecret: defaultJWTSecret},
			wantErr: true,
		},
		{
			name: "production strong secrets",
			cfg: Config{
				Env: "production", Port: "8080", DatabaseURL: "dsn", TablePrefix: "g5_write_",
				JWTSecret:     "0123456789abcdef0123456789abcdef",
				SessionSecret: "another-secret",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
