// Package storage 定义采集记录的写入目标，并提供内存实现与多目标镜像写入。
package storage

import (
	"context"

	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// Sink 定义了记录写入目标的行为。
// 主存储与各镜像（Redis、InfluxDB、Postgres）都实现此接口。
type Sink interface {
	// Name 返回写入目标的名称，用于日志与周期报告。
	Name() string
	// Write 将一批记录写入指定的表。空批次直接返回 nil。
	Write(ctx context.Context, table string, records []model.Record) error
}

// UniverseSource 提供每个周期要采集的股票列表。
type UniverseSource interface {
	// Symbols 读取当前的股票代码列表，不跨周期缓存。
	Symbols(ctx context.Context) ([]string, error)
}

// Closer 需要释放连接的写入目标
type Closer interface {
	Close() error
}
