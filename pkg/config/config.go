package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
)

// DefaultSupabaseURL 未设置 SUPABASE_URL 时使用的默认地址
const DefaultSupabaseURL = "https://hldkorxgqjmlmebxczvy.supabase.co"

// ErrMissingServiceKey 缺少 SUPABASE_SERVICE_ROLE_KEY
var ErrMissingServiceKey = apperr.New(apperr.CodeConfig, "未设置 SUPABASE_SERVICE_ROLE_KEY 环境变量")

// Config 主配置结构
type Config struct {
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Collector CollectorConfig `mapstructure:"collector"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    logger.Config   `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Mirrors   MirrorsConfig   `mapstructure:"mirrors"`
}

// SupabaseConfig 远端存储（PostgREST）配置
type SupabaseConfig struct {
	URL            string        `mapstructure:"url"`
	ServiceRoleKey string        `mapstructure:"service_role_key"`
	Timeout        time.Duration `mapstructure:"timeout"`        // 单次请求超时
	UniverseTable  string        `mapstructure:"universe_table"` // 股票列表所在的表
}

// ProviderConfig 行情数据源配置
type ProviderConfig struct {
	Name      string        `mapstructure:"name"`
	Enabled   bool          `mapstructure:"enabled"`    // 关闭后各采集阶段直接跳过
	BaseURL   string        `mapstructure:"base_url"`   // push2 行情服务地址
	Timeout   time.Duration `mapstructure:"timeout"`    // 单次请求超时
	UserAgent string        `mapstructure:"user_agent"` // 请求头 User-Agent
	PageSize  int           `mapstructure:"page_size"`  // 全表分页大小
	Source    string        `mapstructure:"source"`     // 写入记录的 source 字段
}

// BreakerConfig 数据源熔断器配置
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口
	Timeout     time.Duration `mapstructure:"timeout"`       // 打开后多久进入半开
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 连续失败阈值
}

// CollectorConfig 采集周期配置
type CollectorConfig struct {
	Timezone               string `mapstructure:"timezone"`                 // 周期时间戳所用时区
	InterruptBetweenStages bool   `mapstructure:"interrupt_between_stages"` // 收到退出信号时在阶段之间中止
}

// SchedulerConfig 调度配置
type SchedulerConfig struct {
	Interval         int    `mapstructure:"interval"`           // 采集间隔(秒)
	Schedule         string `mapstructure:"schedule"`           // 可选 cron 表达式，优先于 interval
	TradingHoursOnly bool   `mapstructure:"trading_hours_only"` // 仅在交易时段采集
}

// ServerConfig 状态服务配置
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Mode    string `mapstructure:"mode"` // gin 模式: debug, release, test
}

// MirrorsConfig 镜像写入目标
type MirrorsConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	InfluxDB InfluxDBConfig `mapstructure:"influxdb"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig 最新快照镜像
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// InfluxDBConfig 时序镜像
type InfluxDBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

// PostgresConfig 直连数据库镜像
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Schema   string `mapstructure:"schema"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Supabase: SupabaseConfig{
			URL:           DefaultSupabaseURL,
			Timeout:       15 * time.Second,
			UniverseTable: "stocks",
		},
		Provider: ProviderConfig{
			Name:      "eastmoney",
			Enabled:   true,
			BaseURL:   "https://push2.eastmoney.com",
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			PageSize:  100,
			Source:    "akshare",
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxRequests: 1,
			Interval:    0,
			Timeout:     5 * time.Minute,
			ReadyToTrip: 3,
		},
		Collector: CollectorConfig{
			Timezone: "Asia/Shanghai",
		},
		Scheduler: SchedulerConfig{
			Interval: 60,
		},
		Logger: logger.Config{
			Level:      "info",
			Format:     "text",
			Output:     "console",
			Filename:   "collector.log",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    ":8080",
			Mode:    "release",
		},
		Mirrors: MirrorsConfig{
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "latest:",
				TTL:       time.Hour,
			},
			InfluxDB: InfluxDBConfig{
				URL:    "http://localhost:8086",
				Org:    "stock",
				Bucket: "market",
			},
			Postgres: PostgresConfig{
				Schema:   "public",
				MaxConns: 4,
			},
		},
	}
}

// Load 从默认值、可选配置文件与环境变量加载配置。
// path 为空时在 ./config 与当前目录查找 collector.yaml，找不到不算错误。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	// 兼容原有部署的环境变量
	_ = v.BindEnv("supabase.url", "SUPABASE_URL", "COLLECTOR_SUPABASE_URL")
	_ = v.BindEnv("supabase.service_role_key", "SUPABASE_SERVICE_ROLE_KEY", "COLLECTOR_SUPABASE_SERVICE_ROLE_KEY")
	_ = v.BindEnv("scheduler.interval", "COLLECT_INTERVAL", "COLLECTOR_SCHEDULER_INTERVAL")
	_ = v.BindEnv("logger.level", "COLLECTOR_LOGGER_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("logger.format", "COLLECTOR_LOGGER_FORMAT", "LOG_FORMAT")

	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.Wrap(apperr.CodeConfig, "读取配置文件失败", err)
		}
	} else {
		v.SetConfigName("collector")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, apperr.Wrap(apperr.CodeConfig, "读取配置文件失败", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperr.Wrap(apperr.CodeConfig, "解析配置失败", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("supabase.url", d.Supabase.URL)
	v.SetDefault("supabase.service_role_key", "")
	v.SetDefault("supabase.timeout", d.Supabase.Timeout)
	v.SetDefault("supabase.universe_table", d.Supabase.UniverseTable)

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.enabled", d.Provider.Enabled)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.user_agent", d.Provider.UserAgent)
	v.SetDefault("provider.page_size", d.Provider.PageSize)
	v.SetDefault("provider.source", d.Provider.Source)

	v.SetDefault("breaker.enabled", d.Breaker.Enabled)
	v.SetDefault("breaker.max_requests", d.Breaker.MaxRequests)
	v.SetDefault("breaker.interval", d.Breaker.Interval)
	v.SetDefault("breaker.timeout", d.Breaker.Timeout)
	v.SetDefault("breaker.ready_to_trip", d.Breaker.ReadyToTrip)

	v.SetDefault("collector.timezone", d.Collector.Timezone)
	v.SetDefault("collector.interrupt_between_stages", d.Collector.InterruptBetweenStages)

	v.SetDefault("scheduler.interval", d.Scheduler.Interval)
	v.SetDefault("scheduler.schedule", d.Scheduler.Schedule)
	v.SetDefault("scheduler.trading_hours_only", d.Scheduler.TradingHoursOnly)

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.output", d.Logger.Output)
	v.SetDefault("logger.filename", d.Logger.Filename)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)

	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.mode", d.Server.Mode)

	v.SetDefault("mirrors.redis.enabled", d.Mirrors.Redis.Enabled)
	v.SetDefault("mirrors.redis.addr", d.Mirrors.Redis.Addr)
	v.SetDefault("mirrors.redis.password", d.Mirrors.Redis.Password)
	v.SetDefault("mirrors.redis.db", d.Mirrors.Redis.DB)
	v.SetDefault("mirrors.redis.key_prefix", d.Mirrors.Redis.KeyPrefix)
	v.SetDefault("mirrors.redis.ttl", d.Mirrors.Redis.TTL)

	v.SetDefault("mirrors.influxdb.enabled", d.Mirrors.InfluxDB.Enabled)
	v.SetDefault("mirrors.influxdb.url", d.Mirrors.InfluxDB.URL)
	v.SetDefault("mirrors.influxdb.token", d.Mirrors.InfluxDB.Token)
	v.SetDefault("mirrors.influxdb.org", d.Mirrors.InfluxDB.Org)
	v.SetDefault("mirrors.influxdb.bucket", d.Mirrors.InfluxDB.Bucket)

	v.SetDefault("mirrors.postgres.enabled", d.Mirrors.Postgres.Enabled)
	v.SetDefault("mirrors.postgres.url", d.Mirrors.Postgres.URL)
	v.SetDefault("mirrors.postgres.schema", d.Mirrors.Postgres.Schema)
	v.SetDefault("mirrors.postgres.max_conns", d.Mirrors.Postgres.MaxConns)
}

// Validate 验证配置。缺少 service key 最后检查，其余错误优先返回。
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Supabase.URL); err != nil {
		return apperr.Wrap(apperr.CodeConfig, "supabase url 无效", err)
	}

	if c.Supabase.Timeout <= 0 || c.Provider.Timeout <= 0 {
		return apperr.New(apperr.CodeConfig, "timeout must be positive")
	}

	if c.Provider.PageSize <= 0 {
		return apperr.New(apperr.CodeConfig, "provider page_size must be positive")
	}

	if c.Provider.Source == "" {
		return apperr.New(apperr.CodeConfig, "provider source cannot be empty")
	}

	if c.Scheduler.Interval <= 0 && c.Scheduler.Schedule == "" {
		return apperr.New(apperr.CodeConfig, "scheduler interval must be positive")
	}

	if _, err := time.LoadLocation(c.Collector.Timezone); err != nil {
		return apperr.Wrap(apperr.CodeConfig, fmt.Sprintf("无效的时区 %q", c.Collector.Timezone), err)
	}

	if c.Mirrors.InfluxDB.Enabled && c.Mirrors.InfluxDB.Token == "" {
		return apperr.New(apperr.CodeConfig, "influxdb mirror requires a token")
	}

	if c.Mirrors.Postgres.Enabled && c.Mirrors.Postgres.URL == "" {
		return apperr.New(apperr.CodeConfig, "postgres mirror requires a url")
	}

	if c.Supabase.ServiceRoleKey == "" {
		return ErrMissingServiceKey
	}

	return nil
}

// Interval 返回采集间隔
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.Interval) * time.Second
}

// Location 返回周期时间戳所用时区，无效时退回本地时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Collector.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
