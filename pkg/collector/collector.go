// Package collector 编排一个采集周期：读取股票列表，依次采集行情、指数与资金流向并持久化。
package collector

//go:generate mockgen -destination=mock_storage_test.go -package=collector github.com/guge88888888/a-stock-data-collector/pkg/storage Sink,UniverseSource
//go:generate mockgen -destination=mock_provider_test.go -package=collector github.com/guge88888888/a-stock-data-collector/pkg/provider MarketProvider

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

const banner = "============================================================"

// Collector 采集周期编排器。同一时刻只运行一个周期。
type Collector struct {
	universe storage.UniverseSource
	provider provider.MarketProvider
	store    storage.Sink
	mirrors  *storage.Fanout
	cfg      config.CollectorConfig
	loc      *time.Location
	now      func() time.Time
	log      *logrus.Entry
}

// Option 编排器可选项
type Option func(*Collector)

// WithMirrors 主存储写入后再写入镜像
func WithMirrors(mirrors *storage.Fanout) Option {
	return func(c *Collector) { c.mirrors = mirrors }
}

// WithLocation 周期时间戳所用时区
func WithLocation(loc *time.Location) Option {
	return func(c *Collector) { c.loc = loc }
}

// WithClock 替换时钟，用于测试
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New 创建编排器
func New(universe storage.UniverseSource, p provider.MarketProvider, store storage.Sink, cfg config.CollectorConfig, opts ...Option) *Collector {
	c := &Collector{
		universe: universe,
		provider: p,
		store:    store,
		cfg:      cfg,
		loc:      time.Local,
		now:      time.Now,
		log:      logger.WithComponent("Collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.mirrors == nil {
		c.mirrors = storage.NewFanout()
	}
	return c
}

// Collect 执行一个完整周期：FetchUniverse → FetchQuotes → FetchIndices → FetchFlows。
// 默认已开始的周期不响应取消；开启 interrupt_between_stages 后在阶段之间检查 ctx。
func (c *Collector) Collect(ctx context.Context) *CycleReport {
	if !c.cfg.InterruptBetweenStages {
		ctx = context.WithoutCancel(ctx)
	}

	started := c.now()
	report := &CycleReport{
		ID:        uuid.New().String(),
		Timestamp: started.In(c.loc),
		StartedAt: started,
	}
	log := c.log.WithField("cycle_id", report.ID)

	log.Info(banner)
	log.Infof("开始数据采集: %s", started.In(c.loc).Format("2006-01-02 15:04:05"))
	log.Info(banner)

	symbols, ok := c.fetchUniverse(ctx, log, report)
	if ok {
		c.runStages(ctx, log, report, symbols)
	}

	report.FinishedAt = c.now()

	log.Info(banner)
	log.Infof("数据采集完成: %s", report.FinishedAt.In(c.loc).Format("2006-01-02 15:04:05"))
	log.Info(banner)

	summary := log.WithFields(logrus.Fields{"failed": report.Failed(), "early_exit": report.EarlyExit})
	if report.Failed() {
		summary.Warn(report.Summary())
	} else {
		summary.Info(report.Summary())
	}
	return report
}

// fetchUniverse 读取股票列表；为空或失败时标记提前结束，其余阶段记为 skipped
func (c *Collector) fetchUniverse(ctx context.Context, log *logrus.Entry, report *CycleReport) ([]string, bool) {
	start := time.Now()
	stage := StageReport{Stage: StageUniverse, Status: StatusOK}
	log.Info("1. 获取股票列表...")

	symbols, err := c.universe.Symbols(ctx)
	stage.Duration = time.Since(start)
	stage.Fetched = len(symbols)
	report.Universe = len(symbols)

	switch {
	case err != nil:
		stage.fail(err)
		log.WithError(err).Error("获取股票列表失败，跳过采集")
	case len(symbols) == 0:
		log.Warn("⚠ 股票列表为空，跳过采集")
	default:
		log.Infof("   共 %d 只股票: %s", len(symbols), strings.Join(symbols, ", "))
	}

	report.Stages = append(report.Stages, stage)
	if err != nil || len(symbols) == 0 {
		report.EarlyExit = true
		for _, s := range []Stage{StageQuotes, StageIndices, StageFundFlows} {
			report.Stages = append(report.Stages, StageReport{Stage: s, Table: tableOf(s), Status: StatusSkipped})
		}
		return nil, false
	}
	return symbols, true
}

// runStages 依次执行三个数据阶段，单个阶段失败不影响后续阶段
func (c *Collector) runStages(ctx context.Context, log *logrus.Entry, report *CycleReport, symbols []string) {
	ts := report.Timestamp

	stages := []struct {
		stage Stage
		title string
		run   func(ctx context.Context, log *logrus.Entry) StageReport
	}{
		{StageQuotes, "2. 采集实时行情...", func(ctx context.Context, log *logrus.Entry) StageReport {
			return runStage(ctx, c, log, StageQuotes, func(ctx context.Context) (provider.Batch[model.Quote], error) {
				return c.provider.FetchQuotes(ctx, symbols, ts)
			})
		}},
		{StageIndices, "3. 采集指数数据...", func(ctx context.Context, log *logrus.Entry) StageReport {
			return runStage(ctx, c, log, StageIndices, func(ctx context.Context) (provider.Batch[model.Index], error) {
				return c.provider.FetchIndices(ctx, ts)
			})
		}},
		{StageFundFlows, "4. 采集资金流向...", func(ctx context.Context, log *logrus.Entry) StageReport {
			return runStage(ctx, c, log, StageFundFlows, func(ctx context.Context) (provider.Batch[model.FundFlow], error) {
				return c.provider.FetchFundFlows(ctx, symbols, ts)
			})
		}},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			log.WithField("stage", s.stage).Warn("收到退出信号，中止剩余阶段")
			report.Stages = append(report.Stages, StageReport{Stage: s.stage, Table: tableOf(s.stage), Status: StatusCancelled, Error: err.Error()})
			continue
		}

		log.Info(s.title)
		report.Stages = append(report.Stages, s.run(ctx, log.WithField("stage", s.stage)))
	}
}

// runStage 获取 → 写入主存储 → 写入镜像
func runStage[T model.Record](ctx context.Context, c *Collector, log *logrus.Entry, stage Stage, fetch func(context.Context) (provider.Batch[T], error)) StageReport {
	start := time.Now()
	table := tableOf(stage)
	rep := StageReport{Stage: stage, Table: table}

	if !c.provider.IsHealthy() {
		rep.Status = StatusUnavailable
		log.Warnf("   ⚠ 数据源 %s 不可用，跳过%s采集", c.provider.Name(), stageTitle(stage))
		return finish(&rep, start)
	}

	batch, err := fetch(ctx)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeUnavailable {
			rep.Status = StatusUnavailable
			rep.Error = err.Error()
			log.WithError(err).Warnf("   ⚠ 数据源不可用，跳过%s采集", stageTitle(stage))
			return finish(&rep, start)
		}
		rep.fail(err)
		log.WithError(err).Errorf("   ✗ 获取%s失败", stageTitle(stage))
		return finish(&rep, start)
	}

	rep.Fetched = len(batch.Records)
	rep.Skipped = len(batch.Skips)
	rep.Skips = batch.Skips

	records := model.Records(batch.Records)
	if err := c.store.Write(ctx, table, records); err != nil {
		rep.fail(err)
		log.WithError(err).Errorf("   ✗ %s 写入 %s 失败", table, c.store.Name())
	} else {
		rep.Status = StatusOK
		rep.Persisted = len(records)
	}

	rep.MirrorFailures = c.mirrors.Write(ctx, table, records)
	return finish(&rep, start)
}

func finish(rep *StageReport, start time.Time) StageReport {
	rep.Duration = time.Since(start)
	return *rep
}

func tableOf(stage Stage) string {
	switch stage {
	case StageQuotes:
		return model.TableQuotes
	case StageIndices:
		return model.TableIndices
	case StageFundFlows:
		return model.TableFundFlows
	default:
		return ""
	}
}

func stageTitle(stage Stage) string {
	switch stage {
	case StageQuotes:
		return "行情"
	case StageIndices:
		return "指数"
	case StageFundFlows:
		return "资金流向"
	default:
		return string(stage)
	}
}
