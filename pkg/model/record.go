// Package model 定义采集周期内产生的标准化记录。
package model

import "time"

// 目标表名
const (
	TableQuotes    = "realtime_quotes"
	TableIndices   = "indices"
	TableFundFlows = "fund_flows"
)

// 资金流向记录的固定取值
const (
	EntityTypeStock  = "stock"
	FlowLevelMain    = "主力"
	FlowWindowOneDay = "1d"
)

// Record 是所有标准化记录的公共接口
type Record interface {
	// Table 返回记录写入的目标表
	Table() string
	// Key 返回记录的自然键（股票代码、指数代码或实体 ID）
	Key() string
	// Timestamp 返回周期时间戳
	Timestamp() time.Time
}

// Quote 实时行情记录
type Quote struct {
	Symbol    string    `json:"symbol"`
	Ts        time.Time `json:"ts"`
	Last      float64   `json:"last"`       // 最新价
	Open      float64   `json:"open"`       // 今开
	High      float64   `json:"high"`       // 最高
	Low       float64   `json:"low"`        // 最低
	PrevClose float64   `json:"prev_close"` // 昨收
	Vol       float64   `json:"vol"`        // 成交量(手)
	Amount    float64   `json:"amount"`     // 成交额(元)
	Change    float64   `json:"change"`     // 涨跌额
	PctChg    float64   `json:"pct_chg"`    // 涨跌幅(%)
	Source    string    `json:"source"`
}

func (q Quote) Table() string        { return TableQuotes }
func (q Quote) Key() string          { return q.Symbol }
func (q Quote) Timestamp() time.Time { return q.Ts }

// Index 指数记录
type Index struct {
	IndexCode string    `json:"index_code"`
	Name      string    `json:"name"`
	Ts        time.Time `json:"ts"`
	Close     float64   `json:"close"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PctChg    float64   `json:"pct_chg"`
	Amount    float64   `json:"amount"`
	Source    string    `json:"source"`
}

func (i Index) Table() string        { return TableIndices }
func (i Index) Key() string          { return i.IndexCode }
func (i Index) Timestamp() time.Time { return i.Ts }

// FundFlow 资金流向记录
type FundFlow struct {
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	Ts         time.Time `json:"ts"`
	Level      string    `json:"level"`
	TimeWindow string    `json:"time_window"`
	Inflow     float64   `json:"inflow"`
	Outflow    float64   `json:"outflow"`
	NetAmount  float64   `json:"net_amount"`
	NetPct     float64   `json:"net_pct"`
	Source     string    `json:"source"`
}

func (f FundFlow) Table() string        { return TableFundFlows }
func (f FundFlow) Key() string          { return f.EntityID }
func (f FundFlow) Timestamp() time.Time { return f.Ts }

// IndexSet 固定采集的指数：代码 -> 名称，按 IndexCodes 的顺序遍历
var IndexSet = map[string]string{
	"000001": "上证指数",
	"399001": "深证成指",
	"399006": "创业板指",
	"000300": "沪深300",
	"000016": "上证50",
	"399005": "中小100",
}

// IndexCodes 指数采集顺序
var IndexCodes = []string{"000001", "399001", "399006", "000300", "000016", "399005"}

// Records 将具体记录切片转换为 []Record
func Records[T Record](items []T) []Record {
	out := make([]Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
