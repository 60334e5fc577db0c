package collector

import (
	"fmt"
	"strings"
	"time"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
)

// Stage 采集阶段
type Stage string

const (
	StageUniverse  Stage = "universe"
	StageQuotes    Stage = "quotes"
	StageIndices   Stage = "indices"
	StageFundFlows Stage = "fund_flows"
)

// Status 阶段结果
type Status string

const (
	StatusOK          Status = "ok"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"     // 股票列表为空或读取失败，提前结束
	StatusUnavailable Status = "unavailable" // 数据源禁用或熔断
	StatusCancelled   Status = "cancelled"   // 收到退出信号，在阶段之间中止
)

// StageReport 单个阶段的结果
type StageReport struct {
	Stage          Stage           `json:"stage"`
	Table          string          `json:"table,omitempty"`
	Status         Status          `json:"status"`
	Fetched        int             `json:"fetched"`
	Skipped        int             `json:"skipped"`
	Persisted      int             `json:"persisted"`
	MirrorFailures int             `json:"mirror_failures,omitempty"`
	Skips          []provider.Skip `json:"skips,omitempty"`
	Error          string          `json:"error,omitempty"`
	Kind           apperr.Kind     `json:"kind,omitempty"`
	Duration       time.Duration   `json:"duration"`
}

func (s *StageReport) fail(err error) {
	s.Status = StatusFailed
	s.Error = err.Error()
	s.Kind = apperr.KindOf(err)
}

// CycleReport 一个采集周期的结果
type CycleReport struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"` // 本周期所有记录共享的 ts
	Universe   int           `json:"universe"`
	EarlyExit  bool          `json:"early_exit"`
	Stages     []StageReport `json:"stages"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Failed 任一阶段失败即视为周期失败
func (r *CycleReport) Failed() bool {
	for _, s := range r.Stages {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Stage 返回指定阶段的结果
func (r *CycleReport) Stage(stage Stage) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageReport{}, false
}

// Duration 周期耗时
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary 单行摘要，例如
// cycle=1f0c… universe=2 quotes=ok(2/2) indices=failed fund_flows=ok(2/2) took=1.2s
func (r *CycleReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle=%s universe=%d", shortID(r.ID), r.Universe)
	for _, s := range r.Stages {
		if s.Stage == StageUniverse {
			continue
		}
		b.WriteString(" ")
		b.WriteString(string(s.Stage))
		b.WriteString("=")
		b.WriteString(string(s.Status))
		if s.Status == StatusOK {
			fmt.Fprintf(&b, "(%d/%d)", s.Persisted, s.Fetched+s.Skipped)
		}
	}
	fmt.Fprintf(&b, " took=%s", r.Duration().Round(time.Millisecond))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
