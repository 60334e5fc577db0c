// Package scheduler 按固定间隔或 cron 表达式循环执行采集周期。
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/collector"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/timing"
)

// 支持可选的秒字段与 @every 等描述符
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// SpecFor 返回调度表达式：配置了 schedule 时使用它，否则为 @every {interval}s
func SpecFor(cfg config.SchedulerConfig) string {
	if cfg.Schedule != "" {
		return cfg.Schedule
	}
	return fmt.Sprintf("@every %ds", cfg.Interval)
}

// ParseSchedule 解析调度表达式
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeConfig, fmt.Sprintf("无效的调度表达式 '%s'", spec), err)
	}
	return schedule, nil
}

// Scheduler 单任务调度器。周期串行执行，上一个周期结束后才计算下一次运行时间。
type Scheduler struct {
	runner   Runner
	schedule cron.Schedule
	market   *timing.MarketTime
	now      func() time.Time
	log      *logrus.Entry

	mu    sync.RWMutex
	stats Stats
}

// Option 调度器可选项
type Option func(*Scheduler)

// WithMarketTime 仅在交易时段执行周期
func WithMarketTime(mt *timing.MarketTime) Option {
	return func(s *Scheduler) { s.market = mt }
}

// WithSchedule 直接指定调度，覆盖配置中的表达式
func WithSchedule(schedule cron.Schedule) Option {
	return func(s *Scheduler) { s.schedule = schedule }
}

// WithClock 替换时钟，用于测试
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New 创建调度器
func New(runner Runner, cfg config.SchedulerConfig, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		runner: runner,
		now:    time.Now,
		log:    logger.WithComponent("Scheduler"),
		stats:  Stats{Schedule: SpecFor(cfg), Status: JobStatusPending},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.schedule == nil {
		schedule, err := ParseSchedule(s.stats.Schedule)
		if err != nil {
			return nil, err
		}
		s.schedule = schedule
	}
	return s, nil
}

// Run 立即执行第一个周期，之后按调度循环，直到 ctx 取消。
// 退出信号只在两个周期之间的等待中响应。
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Infof("调度器已启动 (调度: %s)", s.stats.Schedule)

	for {
		if ctx.Err() != nil {
			break
		}

		s.tick(ctx)

		next := s.schedule.Next(s.now())
		s.setNextRun(next)
		s.log.Debugf("下次运行时间: %s", next.Format("2006-01-02 15:04:05"))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	s.setStatus(JobStatusStopped)
	s.log.Info("调度器已停止")
	return nil
}

// tick 交易时段检查通过后执行一个周期
func (s *Scheduler) tick(ctx context.Context) {
	if s.market != nil && !s.market.IsTradingTime() {
		s.mu.Lock()
		s.stats.SkipCount++
		s.mu.Unlock()
		s.log.Info(s.skipMessage())
		return
	}
	s.RunOnce(ctx)
}

func (s *Scheduler) skipMessage() string {
	next := s.market.NextSessionStart().Format("2006-01-02 15:04:05")
	if now := s.market.Now(); s.market.IsTradingDay(now) {
		if end := s.market.TradingEnd(); !now.Before(end) {
			return fmt.Sprintf("今日已于 %s 收盘，跳过本次采集；下一交易时段开始于 %s", end.Format("15:04:05"), next)
		}
	}
	return fmt.Sprintf("非交易时段，跳过本次采集；下一交易时段开始于 %s", next)
}

// RunOnce 执行一个周期并更新统计；周期内的 panic 被恢复并计为错误
func (s *Scheduler) RunOnce(ctx context.Context) *collector.CycleReport {
	s.mu.Lock()
	started := s.now()
	s.stats.Status = JobStatusRunning
	s.stats.LastRun = &started
	s.stats.RunCount++
	s.mu.Unlock()

	report, err := s.execute(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Status = JobStatusPending
	if report != nil {
		s.stats.LastReport = report
	}
	if err != nil {
		s.stats.ErrorCount++
		s.stats.LastError = err.Error()
	}
	return report
}

func (s *Scheduler) execute(ctx context.Context) (report *collector.CycleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Newf(apperr.CodeUnexpected, "采集周期 panic: %v", r)
			s.log.WithField("stack", string(debug.Stack())).Errorf("采集周期 panic: %v", r)
		}
	}()

	report = s.runner.Collect(ctx)
	if report != nil && report.Failed() {
		err = firstFailure(report)
	}
	return report, err
}

// firstFailure 以第一个失败阶段作为周期错误
func firstFailure(report *collector.CycleReport) error {
	for _, st := range report.Stages {
		if st.Status == collector.StatusFailed {
			return fmt.Errorf("%s: %s", st.Stage, st.Error)
		}
	}
	return nil
}

func (s *Scheduler) setNextRun(next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.NextRun = &next
}

func (s *Scheduler) setStatus(status JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Status = status
}

// Snapshot 返回统计信息副本，可并发调用
func (s *Scheduler) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
