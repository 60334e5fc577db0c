package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guge88888888/a-stock-data-collector/pkg/api"
	"github.com/guge88888888/a-stock-data-collector/pkg/collector"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/httpx"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider/decorators"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider/eastmoney"
	"github.com/guge88888888/a-stock-data-collector/pkg/scheduler"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage/mirror"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage/supabase"
	"github.com/guge88888888/a-stock-data-collector/pkg/timing"
)

// errCycleFailed --once 模式下周期失败时返回，进程以非零状态退出
var errCycleFailed = errors.New("采集周期失败")

type runOptions struct {
	configPath string
	logLevel   string
	once       bool
	dryRun     bool
	symbols    []string
}

// app 进程内装配好的组件
type app struct {
	cfg       *config.Config
	breaker   *decorators.CircuitBreakerProvider
	market    provider.MarketProvider
	sink      storage.Sink
	mirrors   *storage.Fanout
	collector *collector.Collector
	scheduler *scheduler.Scheduler
	log       *logrus.Entry
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.WithComponent("Main").WithError(err).Error("加载配置失败")
		return err
	}
	if opts.logLevel != "" {
		cfg.Logger.Level = opts.logLevel
	}
	logger.Init(cfg.Logger)
	log := logger.WithComponent("Main")

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingServiceKey) && !(opts.dryRun && len(opts.symbols) > 0) {
			// 缺少密钥时不进入循环，正常退出
			log.Error("错误: 请设置 SUPABASE_SERVICE_ROLE_KEY 环境变量")
			return nil
		}
		if !errors.Is(err, config.ErrMissingServiceKey) {
			log.WithError(err).Error("配置无效")
			return err
		}
	}

	a, err := newApp(ctx, cfg, opts)
	if err != nil {
		log.WithError(err).Error("初始化失败")
		return err
	}
	defer a.close()

	a.banner(opts)

	if opts.once {
		report := a.scheduler.RunOnce(ctx)
		if report != nil && report.Failed() {
			return errCycleFailed
		}
		return nil
	}

	if cfg.Server.Enabled {
		srv := api.New(cfg.Server, api.Deps{
			Jobs:     a.scheduler,
			Provider: a.market,
			Breaker:  a.breaker,
			Mirrors:  a.mirrors,
		})
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("启动状态服务失败")
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("关闭状态服务失败")
			}
		}()
	}

	log.Infof("采集服务运行中，每 %d 秒采集一次，按 Ctrl+C 停止...", cfg.Scheduler.Interval)
	return a.scheduler.Run(ctx)
}

// newApp 按配置装配数据源、存储、镜像、编排器与调度器
func newApp(ctx context.Context, cfg *config.Config, opts runOptions) (*app, error) {
	a := &app{cfg: cfg, log: logger.WithComponent("Main")}

	client := httpx.New(cfg.Provider.Timeout)

	a.market = decorators.Chain{
		func(p provider.MarketProvider) provider.MarketProvider {
			a.breaker = decorators.NewCircuitBreakerProvider(p, cfg.Breaker)
			return a.breaker
		},
	}.Apply(eastmoney.New(client, cfg.Provider))

	var universe storage.UniverseSource
	store := supabase.New(client, cfg.Supabase)
	universe = store
	if len(opts.symbols) > 0 {
		universe = storage.StaticUniverse(opts.symbols)
	}

	if opts.dryRun {
		a.sink = storage.NewMemoryStorage(storage.MemoryStorageConfig{MaxRecords: 10000})
		a.mirrors = storage.NewFanout()
	} else {
		a.sink = store
		a.mirrors = storage.NewFanout(buildMirrors(ctx, cfg.Mirrors, a.log)...)
	}

	a.collector = collector.New(universe, a.market, a.sink, cfg.Collector,
		collector.WithMirrors(a.mirrors),
		collector.WithLocation(cfg.Location()),
	)

	var schedOpts []scheduler.Option
	if cfg.Scheduler.TradingHoursOnly {
		schedOpts = append(schedOpts, scheduler.WithMarketTime(timing.NewMarketTime(timing.SystemClock{}, cfg.Location())))
	}
	sched, err := scheduler.New(a.collector, cfg.Scheduler, schedOpts...)
	if err != nil {
		return nil, err
	}
	a.scheduler = sched

	return a, nil
}

// buildMirrors 连接配置中启用的镜像；连接失败的镜像记录警告后跳过
func buildMirrors(ctx context.Context, cfg config.MirrorsConfig, log *logrus.Entry) []storage.Sink {
	var sinks []storage.Sink

	if cfg.Redis.Enabled {
		if s, err := mirror.NewRedisSink(ctx, cfg.Redis); err != nil {
			log.WithError(err).Warn("Redis 镜像不可用，已跳过")
		} else {
			sinks = append(sinks, s)
		}
	}
	if cfg.InfluxDB.Enabled {
		if s, err := mirror.NewInfluxSink(ctx, cfg.InfluxDB); err != nil {
			log.WithError(err).Warn("InfluxDB 镜像不可用，已跳过")
		} else {
			sinks = append(sinks, s)
		}
	}
	if cfg.Postgres.Enabled {
		if s, err := mirror.NewPostgresSink(ctx, cfg.Postgres); err != nil {
			log.WithError(err).Warn("Postgres 镜像不可用，已跳过")
		} else {
			sinks = append(sinks, s)
		}
	}

	return sinks
}

func (a *app) banner(opts runOptions) {
	status := func(ok bool) string {
		if ok {
			return "✓ 可用"
		}
		return "✗ 不可用"
	}

	a.log.Info("A股数据采集服务启动")
	a.log.Infof("Supabase URL: %s", a.cfg.Supabase.URL)
	a.log.Infof("采集间隔: %d秒 (调度: %s)", a.cfg.Scheduler.Interval, scheduler.SpecFor(a.cfg.Scheduler))
	a.log.Infof("数据源 %s: %s", a.cfg.Provider.Name, status(a.market.IsHealthy()))
	a.log.Infof("写入目标: %s", a.sink.Name())
	if a.mirrors.Len() > 0 {
		a.log.Infof("镜像数量: %d", a.mirrors.Len())
	}
	if len(opts.symbols) > 0 {
		a.log.Infof("指定股票: %s", strings.Join(opts.symbols, ", "))
	}
	if opts.dryRun {
		a.log.Warn("dry-run 模式: 记录不会写入远端存储")
	}
	if a.cfg.Scheduler.TradingHoursOnly {
		a.log.Info("仅在交易时段采集")
	}
}

func (a *app) close() {
	if err := a.mirrors.Close(); err != nil {
		a.log.WithError(err).Warn("关闭镜像失败")
	}
}
