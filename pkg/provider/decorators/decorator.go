package decorators

import (
	"github.com/guge88888888/a-stock-data-collector/pkg/provider"
)

// Decorator 装饰器基础接口
// 所有装饰器都应该实现此接口
type Decorator interface {
	provider.MarketProvider

	// Base 获取被装饰的基础 Provider
	Base() provider.MarketProvider
}

// BaseDecorator 装饰器基础实现，所有调用直接透传
type BaseDecorator struct {
	provider.MarketProvider
}

// NewBaseDecorator 创建基础装饰器
func NewBaseDecorator(base provider.MarketProvider) *BaseDecorator {
	return &BaseDecorator{MarketProvider: base}
}

// Base 实现 Decorator 接口
func (d *BaseDecorator) Base() provider.MarketProvider {
	return d.MarketProvider
}

// Chain 装饰器链，先加入的装饰器位于最内层
type Chain []func(provider.MarketProvider) provider.MarketProvider

// Apply 应用装饰器链到指定的 Provider
func (c Chain) Apply(base provider.MarketProvider) provider.MarketProvider {
	p := base
	for _, decorate := range c {
		p = decorate(p)
	}
	return p
}

// Unwrap 沿装饰器链找到最内层的 Provider
func Unwrap(p provider.MarketProvider) provider.MarketProvider {
	for {
		d, ok := p.(Decorator)
		if !ok {
			return p
		}
		p = d.Base()
	}
}
