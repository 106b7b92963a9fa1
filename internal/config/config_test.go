package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFromYAML(t *testing.T) {
	p := writeConfig(t, `
app:
  port: 9000
jwt:
  secret: abc
storage:
  variant: S3
  assets_root: /tmp/assets
aws:
  region: eu-west-1
  bucket: clips
s3:
  presign_ttl_seconds: 120
limits:
  thumbnail_types: [image/png]
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "s3", cfg.Storage.Variant)
	assert.Equal(t, "/tmp/assets", cfg.Storage.AssetsRoot)
	assert.Equal(t, "http://localhost:9000", cfg.App.PublicBaseURL)
	assert.Equal(t, 2*time.Minute, cfg.PresignTTL)
	assert.Equal(t, time.Minute, cfg.SignedURLTTL)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"image/png"}, cfg.Limits.ThumbnailTypes)
	assert.Equal(t, []string{"video/mp4"}, cfg.Limits.VideoTypes)
	assert.Equal(t, int64(10<<20), cfg.Limits.ThumbnailMaxBytes)
	assert.Equal(t, "memory", cfg.Records.Driver)
}

func TestLoadEnvOverrides(t *testing.T) {
	p := writeConfig(t, "jwt:\n  secret: from-file\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORAGE_VARIANT", "embedded")
	t.Setenv("APP_PORT", "7000")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "embedded", cfg.Storage.Variant)
	assert.Equal(t, 7000, cfg.App.Port)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8091, cfg.App.Port)
	assert.Equal(t, "memory", cfg.Storage.Variant)
	assert.Equal(t, "assets", cfg.Storage.AssetsRoot)
	assert.Equal(t, 10*time.Minute, cfg.PresignTTL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", "storage:\n  variant: memory\n"},
		{"unknown variant", "jwt:\n  secret: x\nstorage:\n  variant: ftp\n"},
		{"s3 without bucket", "jwt:\n  secret: x\nstorage:\n  variant: s3\n"},
		{"mongo without uri", "jwt:\n  secret: x\nrecords:\n  driver: mongo\n"},
		{"unknown driver", "jwt:\n  secret: x\nrecords:\n  driver: postgres\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config/config.yaml", Path())
	t.Setenv("CONFIG_PATH", "/etc/assets.yaml")
	assert.Equal(t, "/etc/assets.yaml", Path())
}
