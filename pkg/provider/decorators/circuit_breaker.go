package decorators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
)

// CircuitBreakerProvider 熔断器装饰器
// 使用 sony/gobreaker 提供熔断功能，熔断打开时 Provider 报告为不可用
type CircuitBreakerProvider struct {
	*BaseDecorator

	cb     *gobreaker.CircuitBreaker
	config config.BreakerConfig

	mu    sync.RWMutex
	stats CircuitBreakerStats
}

// CircuitBreakerStats 熔断器统计信息
type CircuitBreakerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	RejectedRequests   int64     `json:"rejected_requests"`
	LastFailure        time.Time `json:"last_failure"`
}

// NewCircuitBreakerProvider 创建熔断器装饰器
func NewCircuitBreakerProvider(base provider.MarketProvider, cfg config.BreakerConfig) *CircuitBreakerProvider {
	log := logger.WithComponent("CircuitBreaker")

	threshold := cfg.ReadyToTrip
	if threshold == 0 {
		threshold = 1
	}

	settings := gobreaker.Settings{
		Name:        base.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// 调用方取消不计入失败
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("provider", name).Warnf("熔断器状态从 %s 变更为 %s", from, to)
		},
	}

	return &CircuitBreakerProvider{
		BaseDecorator: NewBaseDecorator(base),
		cb:            gobreaker.NewCircuitBreaker(settings),
		config:        cfg,
	}
}

// Name 返回装饰器名称
func (c *CircuitBreakerProvider) Name() string {
	return fmt.Sprintf("CircuitBreaker(%s)", c.MarketProvider.Name())
}

// IsHealthy 熔断器打开状态视为不健康
func (c *CircuitBreakerProvider) IsHealthy() bool {
	if !c.config.Enabled {
		return c.MarketProvider.IsHealthy()
	}
	return c.cb.State() != gobreaker.StateOpen && c.MarketProvider.IsHealthy()
}

// FetchQuotes 通过熔断器获取实时行情
func (c *CircuitBreakerProvider) FetchQuotes(ctx context.Context, symbols []string, ts time.Time) (provider.Batch[model.Quote], error) {
	return execute(c, func() (provider.Batch[model.Quote], error) {
		return c.MarketProvider.FetchQuotes(ctx, symbols, ts)
	})
}

// FetchIndices 通过熔断器获取指数行情
func (c *CircuitBreakerProvider) FetchIndices(ctx context.Context, ts time.Time) (provider.Batch[model.Index], error) {
	return execute(c, func() (provider.Batch[model.Index], error) {
		return c.MarketProvider.FetchIndices(ctx, ts)
	})
}

// FetchFundFlows 通过熔断器获取资金流向
func (c *CircuitBreakerProvider) FetchFundFlows(ctx context.Context, symbols []string, ts time.Time) (provider.Batch[model.FundFlow], error) {
	return execute(c, func() (provider.Batch[model.FundFlow], error) {
		return c.MarketProvider.FetchFundFlows(ctx, symbols, ts)
	})
}

func execute[T model.Record](c *CircuitBreakerProvider, fetch func() (provider.Batch[T], error)) (provider.Batch[T], error) {
	if !c.config.Enabled {
		return fetch()
	}

	c.mu.Lock()
	c.stats.TotalRequests++
	c.mu.Unlock()

	result, err := c.cb.Execute(func() (interface{}, error) {
		batch, err := fetch()
		if err != nil {
			return nil, err
		}
		return batch, nil
	})

	c.handleResult(err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return provider.Batch[T]{}, apperr.Wrap(apperr.CodeUnavailable, "数据源已熔断", err)
		}
		return provider.Batch[T]{}, err
	}

	batch, ok := result.(provider.Batch[T])
	if !ok {
		return provider.Batch[T]{}, apperr.New(apperr.CodeUnexpected, "熔断器返回数据类型错误")
	}
	return batch, nil
}

// handleResult 更新统计信息
func (c *CircuitBreakerProvider) handleResult(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case err == nil:
		c.stats.SuccessfulRequests++
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.stats.RejectedRequests++
	default:
		c.stats.FailedRequests++
		c.stats.LastFailure = time.Now()
	}
}

// State 获取熔断器当前状态
func (c *CircuitBreakerProvider) State() gobreaker.State {
	return c.cb.State()
}

// Stats 返回统计信息副本
func (c *CircuitBreakerProvider) Stats() CircuitBreakerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// GetStatus 获取熔断器状态信息，供状态接口展示
func (c *CircuitBreakerProvider) GetStatus() map[string]interface{} {
	counts := c.cb.Counts()
	stats := c.Stats()

	return map[string]interface{}{
		"decorator_type": "CircuitBreaker",
		"base_provider":  c.MarketProvider.Name(),
		"enabled":        c.config.Enabled,
		"state":          c.cb.State().String(),
		"counts": map[string]interface{}{
			"requests":             counts.Requests,
			"total_failures":       counts.TotalFailures,
			"consecutive_failures": counts.ConsecutiveFailures,
		},
		"stats": stats,
	}
}
