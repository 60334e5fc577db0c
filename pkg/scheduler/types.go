package scheduler

import (
	"context"
	"time"

	"github.com/guge88888888/a-stock-data-collector/pkg/collector"
)

// Runner 执行一个采集周期
type Runner interface {
	Collect(ctx context.Context) *collector.CycleReport
}

// RunnerFunc 将函数适配为 Runner
type RunnerFunc func(ctx context.Context) *collector.CycleReport

func (f RunnerFunc) Collect(ctx context.Context) *collector.CycleReport {
	return f(ctx)
}

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusStopped JobStatus = "stopped"
)

// Stats 任务统计信息，Snapshot 返回副本
type Stats struct {
	Schedule   string                 `json:"schedule"`
	Status     JobStatus              `json:"status"`
	RunCount   int64                  `json:"run_count"`
	ErrorCount int64                  `json:"error_count"`
	SkipCount  int64                  `json:"skip_count"` // 非交易时段跳过的次数
	LastRun    *time.Time             `json:"last_run,omitempty"`
	NextRun    *time.Time             `json:"next_run,omitempty"`
	LastError  string                 `json:"last_error,omitempty"`
	LastReport *collector.CycleReport `json:"last_report,omitempty"`
}
