// Package normalize 将数据源的原始行转换为标准化记录。
package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// Row 数据源返回的一行原始数据，列名为数据源自己的命名
type Row map[string]string

// Column 原始列到标准字段的映射
type Column struct {
	Field    string // 标准字段名，仅用于错误信息
	Source   string // 原始列名
	Required bool   // 必填字段缺失或无法转换时整行跳过
}

// Columns 一类记录的列映射
type Columns []Column

// Sources 返回需要向数据源请求的原始列
func (c Columns) Sources() []string {
	out := make([]string, 0, len(c))
	for _, col := range c {
		out = append(out, col.Source)
	}
	return out
}

// 东方财富 clist 接口字段（fltt=2 时为已换算的小数）
const (
	ColCode      = "f12"
	ColName      = "f14"
	ColLast      = "f2"
	ColPctChg    = "f3"
	ColChange    = "f4"
	ColVolume    = "f5"
	ColAmount    = "f6"
	ColHigh      = "f15"
	ColLow       = "f16"
	ColOpen      = "f17"
	ColPrevClose = "f18"
	ColMainNet   = "f62"  // 主力净流入-净额
	ColMainPct   = "f184" // 主力净流入-净占比
)

// QuoteColumns 实时行情列映射
var QuoteColumns = Columns{
	{Field: "last", Source: ColLast, Required: true},
	{Field: "open", Source: ColOpen, Required: true},
	{Field: "high", Source: ColHigh, Required: true},
	{Field: "low", Source: ColLow, Required: true},
	{Field: "prev_close", Source: ColPrevClose, Required: true},
	{Field: "vol", Source: ColVolume, Required: true},
	{Field: "amount", Source: ColAmount, Required: true},
	{Field: "change", Source: ColChange, Required: true},
	{Field: "pct_chg", Source: ColPctChg, Required: true},
}

// IndexColumns 指数列映射，成交额可缺省
var IndexColumns = Columns{
	{Field: "close", Source: ColLast, Required: true},
	{Field: "open", Source: ColOpen, Required: true},
	{Field: "high", Source: ColHigh, Required: true},
	{Field: "low", Source: ColLow, Required: true},
	{Field: "pct_chg", Source: ColPctChg, Required: true},
	{Field: "amount", Source: ColAmount},
}

// FundFlowColumns 资金流向列映射，净占比可缺省
var FundFlowColumns = Columns{
	{Field: "net_amount", Source: ColMainNet, Required: true},
	{Field: "net_pct", Source: ColMainPct},
}

// values 按列映射取出数值，结果以标准字段名为键
func values(row Row, cols Columns) (map[string]float64, error) {
	out := make(map[string]float64, len(cols))
	for _, col := range cols {
		raw, ok := row[col.Source]
		if !ok {
			if col.Required {
				return nil, apperr.Newf(apperr.CodeDataInvalid, "缺少必填字段 %s(%s)", col.Field, col.Source)
			}
			out[col.Field] = 0
			continue
		}

		v, err := ParseNumber(raw)
		if err != nil {
			if col.Required {
				return nil, apperr.Wrap(apperr.CodeDataInvalid, "字段 "+col.Field+" 无法转换", err)
			}
			v = 0
		}
		out[col.Field] = v
	}
	return out, nil
}

// Quote 将一行行情数据转换为 Quote 记录
func Quote(row Row, symbol string, ts time.Time, source string) (model.Quote, error) {
	v, err := values(row, QuoteColumns)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{
		Symbol:    symbol,
		Ts:        ts,
		Last:      v["last"],
		Open:      v["open"],
		High:      v["high"],
		Low:       v["low"],
		PrevClose: v["prev_close"],
		Vol:       v["vol"],
		Amount:    v["amount"],
		Change:    v["change"],
		PctChg:    v["pct_chg"],
		Source:    source,
	}, nil
}

// Index 将一行指数数据转换为 Index 记录，name 取固定映射中的名称
func Index(row Row, code, name string, ts time.Time, source string) (model.Index, error) {
	v, err := values(row, IndexColumns)
	if err != nil {
		return model.Index{}, err
	}
	if name == "" {
		name = strings.TrimSpace(row[ColName])
	}
	return model.Index{
		IndexCode: code,
		Name:      name,
		Ts:        ts,
		Close:     v["close"],
		Open:      v["open"],
		High:      v["high"],
		Low:       v["low"],
		PctChg:    v["pct_chg"],
		Amount:    v["amount"],
		Source:    source,
	}, nil
}

// FundFlow 将一行资金流向数据转换为 FundFlow 记录
func FundFlow(row Row, symbol string, ts time.Time, source string) (model.FundFlow, error) {
	v, err := values(row, FundFlowColumns)
	if err != nil {
		return model.FundFlow{}, err
	}
	net := v["net_amount"]
	inflow, outflow := SplitNet(net)
	return model.FundFlow{
		EntityID:   symbol,
		EntityType: model.EntityTypeStock,
		Ts:         ts,
		Level:      model.FlowLevelMain,
		TimeWindow: model.FlowWindowOneDay,
		Inflow:     inflow,
		Outflow:    outflow,
		NetAmount:  net,
		NetPct:     v["net_pct"],
		Source:     source,
	}, nil
}

// SplitNet 将带符号的净额拆成流入与流出，inflow - outflow == net
func SplitNet(net float64) (inflow, outflow float64) {
	return math.Max(net, 0), math.Abs(math.Min(net, 0))
}
