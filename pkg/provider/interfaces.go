package provider

import (
	"context"
	"time"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// Provider 是所有数据提供商的基础接口。
type Provider interface {
	// Name 返回提供商的名称，例如 "eastmoney"。
	Name() string

	// IsHealthy 检查提供商当前是否可用。
	// 返回 false 时采集周期会跳过依赖它的阶段。
	IsHealthy() bool
}

// Skip 记录一次被跳过的实体及原因
type Skip struct {
	Entity string           `json:"entity"`
	Code   apperr.ErrorCode `json:"code"`
	Kind   apperr.Kind      `json:"kind"`
	Reason string           `json:"reason"`
}

// NewSkip 根据错误构造 Skip
func NewSkip(entity string, err error) Skip {
	return Skip{
		Entity: entity,
		Code:   apperr.CodeOf(err),
		Kind:   apperr.KindOf(err),
		Reason: err.Error(),
	}
}

// Batch 一次获取的结果：成功的记录与被跳过的实体
type Batch[T model.Record] struct {
	Records []T
	Skips   []Skip
}

// QuoteProvider 实时行情提供商
type QuoteProvider interface {
	Provider

	// FetchQuotes 获取指定股票的实时行情，ts 为本周期共享的时间戳。
	// 单只股票缺失或数据无效时记为 Skip；返回的 error 仅表示整张行情表获取失败。
	FetchQuotes(ctx context.Context, symbols []string, ts time.Time) (Batch[model.Quote], error)
}

// IndexProvider 指数提供商，指数集合固定为 model.IndexSet
type IndexProvider interface {
	Provider

	// FetchIndices 获取固定指数集合的行情。
	FetchIndices(ctx context.Context, ts time.Time) (Batch[model.Index], error)
}

// FundFlowProvider 个股资金流向提供商
type FundFlowProvider interface {
	Provider

	// FetchFundFlows 获取指定股票今日的主力资金流向。
	FetchFundFlows(ctx context.Context, symbols []string, ts time.Time) (Batch[model.FundFlow], error)
}

// MarketProvider 同时提供行情、指数与资金流向
type MarketProvider interface {
	QuoteProvider
	IndexProvider
	FundFlowProvider
}
