package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
)

// TestDefault 测试默认配置是否正确
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultSupabaseURL, cfg.Supabase.URL)
	assert.Equal(t, "stocks", cfg.Supabase.UniverseTable)
	assert.Equal(t, "eastmoney", cfg.Provider.Name)
	assert.True(t, cfg.Provider.Enabled)
	assert.Equal(t, "akshare", cfg.Provider.Source)
	assert.Equal(t, 60, cfg.Scheduler.Interval)
	assert.Equal(t, time.Minute, cfg.Interval())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Server.Enabled)
	assert.False(t, cfg.Mirrors.Redis.Enabled)
}

// TestValidate 测试配置验证功能
func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingServiceKey, "缺少密钥时应该拒绝运行")
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))

	cfg.Supabase.ServiceRoleKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Supabase.ServiceRoleKey = "secret"
	cfg.Scheduler.Interval = 0
	assert.Error(t, cfg.Validate())

	cfg.Scheduler.Schedule = "@every 30s"
	assert.NoError(t, cfg.Validate(), "提供 cron 表达式时 interval 可以为 0")

	cfg = Default()
	cfg.Supabase.ServiceRoleKey = "secret"
	cfg.Provider.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Supabase.ServiceRoleKey = "secret"
	cfg.Collector.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Supabase.ServiceRoleKey = "secret"
	cfg.Mirrors.Postgres.Enabled = true
	assert.Error(t, cfg.Validate())
}

// TestValidate_MissingKeyReportedLast 缺少密钥时仍然检查其余配置
func TestValidate_MissingKeyReportedLast(t *testing.T) {
	cfg := Default()
	cfg.Provider.PageSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingServiceKey)
	assert.Contains(t, err.Error(), "page_size")

	cfg = Default()
	cfg.Collector.Timezone = "Mars/Olympus"
	assert.NotErrorIs(t, cfg.Validate(), ErrMissingServiceKey)

	cfg = Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingServiceKey)
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SUPABASE_URL", "http://localhost:54321")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("COLLECT_INTERVAL", "15")
	t.Setenv("COLLECTOR_PROVIDER_PAGE_SIZE", "100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:54321", cfg.Supabase.URL)
	assert.Equal(t, "service-key", cfg.Supabase.ServiceRoleKey)
	assert.Equal(t, 15*time.Second, cfg.Interval())
	assert.Equal(t, 100, cfg.Provider.PageSize)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "collector.yaml")
	yaml := `
supabase:
  service_role_key: from-file
  timeout: 5s
provider:
  enabled: false
scheduler:
  schedule: "*/30 * 9-15 * * MON-FRI"
  trading_hours_only: true
mirrors:
  redis:
    enabled: true
    ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Supabase.ServiceRoleKey, "环境变量优先于配置文件")
	assert.Equal(t, 5*time.Second, cfg.Supabase.Timeout)
	assert.False(t, cfg.Provider.Enabled)
	assert.Equal(t, "*/30 * 9-15 * * MON-FRI", cfg.Scheduler.Schedule)
	assert.True(t, cfg.Scheduler.TradingHoursOnly)
	assert.True(t, cfg.Mirrors.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Mirrors.Redis.TTL)
	assert.Equal(t, "latest:", cfg.Mirrors.Redis.KeyPrefix)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var be *apperr.BaseError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, apperr.CodeConfig, be.Code)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "Asia/Shanghai", cfg.Location().String())

	cfg.Collector.Timezone = "invalid/zone"
	assert.Equal(t, time.Local, cfg.Location())
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
