// Package eastmoney 通过东方财富 push2 全表接口获取 A 股行情、指数与资金流向。
// 每张表每个周期只拉取一次，再按代码在内存中关联。
package eastmoney

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/httpx"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/normalize"
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
)

// Provider 东方财富数据提供商
type Provider struct {
	client *httpx.Client
	cfg    config.ProviderConfig
	log    *logrus.Entry
}

var _ provider.MarketProvider = (*Provider)(nil)

// New 创建东方财富数据提供商。client 为进程共享的客户端，这里派生出带浏览器请求头的副本。
func New(client *httpx.Client, cfg config.ProviderConfig) *Provider {
	headers := map[string]string{
		"Referer":         referer,
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": acceptLanguage,
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}

	return &Provider{
		client: client.WithHeaders(headers).WithTimeout(cfg.Timeout),
		cfg:    cfg,
		log:    logger.WithComponent("EastmoneyProvider"),
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "eastmoney"
}

// IsHealthy 配置中禁用时视为不可用
func (p *Provider) IsHealthy() bool {
	return p.cfg.Enabled
}

// FetchQuotes 获取指定股票的实时行情
func (p *Provider) FetchQuotes(ctx context.Context, symbols []string, ts time.Time) (provider.Batch[model.Quote], error) {
	rows, err := p.fetchTable(ctx, quoteTable)
	if err != nil {
		return provider.Batch[model.Quote]{}, err
	}

	batch := join(p.log, "行情", model.Prefixed, symbols, rows, func(symbol string, row normalize.Row) (model.Quote, error) {
		return normalize.Quote(row, symbol, ts, p.cfg.Source)
	})
	p.log.Infof("实时行情: 成功 %d 只，跳过 %d 只", len(batch.Records), len(batch.Skips))
	return batch, nil
}

// FetchIndices 获取固定指数集合的行情，按 model.IndexCodes 顺序输出
func (p *Provider) FetchIndices(ctx context.Context, ts time.Time) (provider.Batch[model.Index], error) {
	rows, err := p.fetchTable(ctx, indexTable)
	if err != nil {
		return provider.Batch[model.Index]{}, err
	}

	batch := join(p.log, "指数", indexLabel, model.IndexCodes, rows, func(code string, row normalize.Row) (model.Index, error) {
		return normalize.Index(row, code, model.IndexSet[code], ts, p.cfg.Source)
	})
	p.log.Infof("指数: 成功 %d 个，跳过 %d 个", len(batch.Records), len(batch.Skips))
	return batch, nil
}

// FetchFundFlows 获取指定股票今日的主力资金流向
func (p *Provider) FetchFundFlows(ctx context.Context, symbols []string, ts time.Time) (provider.Batch[model.FundFlow], error) {
	rows, err := p.fetchTable(ctx, fundFlowTable)
	if err != nil {
		return provider.Batch[model.FundFlow]{}, err
	}

	batch := join(p.log, "资金流向", model.Prefixed, symbols, rows, func(symbol string, row normalize.Row) (model.FundFlow, error) {
		return normalize.FundFlow(row, symbol, ts, p.cfg.Source)
	})
	p.log.Infof("资金流向: 成功 %d 只，跳过 %d 只", len(batch.Records), len(batch.Skips))
	return batch, nil
}

// join 按代码关联整表数据并转换，缺失或无效的实体记为 Skip
func join[T model.Record](log *logrus.Entry, what string, label func(string) string, keys []string, rows map[string]normalize.Row, build func(key string, row normalize.Row) (T, error)) provider.Batch[T] {
	batch := provider.Batch[T]{Records: make([]T, 0, len(keys))}

	for _, key := range keys {
		entry := log.WithField("entity", label(key))

		row, ok := rows[key]
		if !ok {
			err := apperr.Newf(apperr.CodeDataMissing, "未找到 %s %s 数据", key, what)
			entry.Warnf("✗ 未找到%s数据", what)
			batch.Skips = append(batch.Skips, provider.NewSkip(key, err))
			continue
		}

		rec, err := build(key, row)
		if err != nil {
			entry.WithError(err).Warnf("✗ 获取%s失败", what)
			batch.Skips = append(batch.Skips, provider.NewSkip(key, err))
			continue
		}

		entry.Debugf("✓ 获取%s成功", what)
		batch.Records = append(batch.Records, rec)
	}

	return batch
}

// indexLabel 指数显示为 名称(代码)
func indexLabel(code string) string {
	return model.IndexSet[code] + "(" + code + ")"
}
