package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Entry = logrus.Entry

var (
	// Logger 全局日志实例
	Logger *logrus.Logger
)

// Config 日志配置
type Config struct {
	Level      string `json:"level" mapstructure:"level"`             // debug, info, warn, error
	Format     string `json:"format" mapstructure:"format"`           // text, json
	Output     string `json:"output" mapstructure:"output"`           // console, file, both
	Filename   string `json:"filename" mapstructure:"filename"`       // 日志文件名
	MaxSize    int    `json:"max_size" mapstructure:"max_size"`       // 最大文件大小(MB)
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `json:"max_age" mapstructure:"max_age"`         // 最大保存天数
}

// Init 初始化日志器
func Init(config Config) {
	Logger = New(config)
}

// New 按配置创建一个独立的日志器
func New(config Config) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if config.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FullTimestamp:   true,
			ForceColors:     config.Output != "file",
		})
	}

	l.SetOutput(output(config))
	return l
}

// output 根据配置选择输出目标，文件输出按大小滚动
func output(config Config) io.Writer {
	if config.Output != "file" && config.Output != "both" {
		return os.Stdout
	}

	filename := config.Filename
	if filename == "" {
		filename = "collector.log"
	}
	rotating := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   true,
	}
	if config.Output == "both" {
		return io.MultiWriter(os.Stdout, rotating)
	}
	return rotating
}

// InitFromEnv 从环境变量初始化日志器
func InitFromEnv() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		if os.Getenv("DEBUG") == "1" {
			level = "debug"
		} else {
			level = "info"
		}
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "text"
	}

	Init(Config{
		Level:  level,
		Format: format,
		Output: "console",
	})
}

// GetLogger 获取日志器实例
func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitFromEnv()
	}
	return Logger
}

// WithComponent 创建带组件名的日志器
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}
