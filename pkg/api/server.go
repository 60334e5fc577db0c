// Package api 提供采集进程的状态服务：健康检查、调度统计与最近一次周期报告。
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
	"github.com/guge88888888/a-stock-data-collector/pkg/scheduler"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

// StatusSource 调度统计来源
type StatusSource interface {
	Snapshot() scheduler.Stats
}

// BreakerStatus 熔断器状态来源
type BreakerStatus interface {
	GetStatus() map[string]interface{}
}

// Deps 状态服务依赖，Breaker 与 Mirrors 可为空
type Deps struct {
	Jobs     StatusSource
	Provider provider.Provider
	Breaker  BreakerStatus
	Mirrors  *storage.Fanout
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Server 状态服务
type Server struct {
	cfg     config.ServerConfig
	deps    Deps
	router  *gin.Engine
	server  *http.Server
	started time.Time
	log     *logrus.Entry
}

// New 创建状态服务
func New(cfg config.ServerConfig, deps Deps) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		started: time.Now(),
		log:     logger.WithComponent("StatusServer"),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.accessLog())
	router.Use(corsMiddleware())

	router.GET("/health", s.healthCheck)
	router.GET("/status", s.status)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/reports/latest", s.latestReport)
	}

	s.router = router
	return s
}

// Handler 返回路由，用于测试
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 监听地址并在后台提供服务；监听失败时同步返回错误
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.WithField("addr", ln.Addr().String()).Info("状态服务已启动")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("状态服务异常退出")
		}
	}()
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck 数据源可用且最近一个周期未失败时为 ok，否则 degraded
func (s *Server) healthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"services":  map[string]string{},
	}
	services := health["services"].(map[string]string)

	if s.deps.Provider != nil {
		if s.deps.Provider.IsHealthy() {
			services[s.deps.Provider.Name()] = "ok"
		} else {
			services[s.deps.Provider.Name()] = "unavailable"
			health["status"] = "degraded"
		}
	}

	if s.deps.Jobs != nil {
		if report := s.deps.Jobs.Snapshot().LastReport; report != nil && report.Failed() {
			services["last_cycle"] = "failed"
			health["status"] = "degraded"
		}
	}

	if health["status"] == "ok" {
		c.JSON(http.StatusOK, health)
	} else {
		c.JSON(http.StatusServiceUnavailable, health)
	}
}

func (s *Server) status(c *gin.Context) {
	resp := gin.H{
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.deps.Jobs != nil {
		resp["scheduler"] = s.deps.Jobs.Snapshot()
	}
	if s.deps.Provider != nil {
		resp["provider"] = gin.H{"name": s.deps.Provider.Name(), "healthy": s.deps.Provider.IsHealthy()}
	}
	if s.deps.Breaker != nil {
		resp["breaker"] = s.deps.Breaker.GetStatus()
	}
	if s.deps.Mirrors != nil {
		resp["mirror_failures"] = s.deps.Mirrors.Failures()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) latestReport(c *gin.Context) {
	if s.deps.Jobs == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "no cycle has run yet"})
		return
	}
	report := s.deps.Jobs.Snapshot().LastReport
	if report == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "no cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}
