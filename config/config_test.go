package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGODB_CONNECTION_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DBNAME", "test")
	t.Setenv("CORS_ORIGINS", " http://a.vn , ,http://b.vn")
	t.Setenv("SESSION_TTL_HOURS", "0")
	t.Setenv("CAMPAIGN_WORKER_INTERVAL", "5s")

	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("JWT_SECRET=from-file\nSMTP_HOST=smtp.local\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JwtSecret, "biến môi trường có sẵn không bị file ghi đè")
	assert.Equal(t, "smtp.local", cfg.SMTPHost)
	assert.False(t, cfg.MailEnabled(), "thiếu SMTP_FROM")
	assert.Equal(t, []string{"http://a.vn", "http://b.vn"}, cfg.CORSOrigins())
	assert.Equal(t, time.Hour, cfg.SessionTTL())
	assert.Equal(t, 5*time.Second, cfg.CampaignWorkerInterval)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, ":8080", cfg.Address)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGODB_CONNECTION_URI", "")
	t.Setenv("MONGODB_DBNAME", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("MONGODB_CONNECTION_URI")
	os.Unsetenv("MONGODB_DBNAME")

	dir := t.TempDir()
	file := filepath.Join(dir, "empty.env")
	require.NoError(t, os.WriteFile(file, []byte("ADDRESS=:9000\n"), 0o600))

	_, err := Load(file)
	assert.Error(t, err)
}

func TestCORSOriginsDefault(t *testing.T) {
	cfg := &Configuration{CORS_Origins: " "}
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins())
	assert.Equal(t, 48*time.Hour, (&Configuration{SessionTTLHours: 48}).SessionTTL())
}
