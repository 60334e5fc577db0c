package storage

import (
	"context"

	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// StaticUniverse 固定的股票列表，用于 --symbols 指定采集范围
type StaticUniverse []string

// Symbols 实现 UniverseSource 接口，返回去重并去除空白后的代码
func (u StaticUniverse) Symbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return model.NormalizeSymbols(u), nil
}
