package storage

import (
	"fmt"

	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// Field 记录中的一列
type Field struct {
	Name  string
	Value interface{}
}

// Fields 按表结构的列顺序展开记录，列名与远端表一致
func Fields(rec model.Record) ([]Field, error) {
	switch r := rec.(type) {
	case model.Quote:
		return []Field{
			{"symbol", r.Symbol},
			{"ts", r.Ts},
			{"last", r.Last},
			{"open", r.Open},
			{"high", r.High},
			{"low", r.Low},
			{"prev_close", r.PrevClose},
			{"vol", r.Vol},
			{"amount", r.Amount},
			{"change", r.Change},
			{"pct_chg", r.PctChg},
			{"source", r.Source},
		}, nil
	case model.Index:
		return []Field{
			{"index_code", r.IndexCode},
			{"name", r.Name},
			{"ts", r.Ts},
			{"close", r.Close},
			{"open", r.Open},
			{"high", r.High},
			{"low", r.Low},
			{"pct_chg", r.PctChg},
			{"amount", r.Amount},
			{"source", r.Source},
		}, nil
	case model.FundFlow:
		return []Field{
			{"entity_id", r.EntityID},
			{"entity_type", r.EntityType},
			{"ts", r.Ts},
			{"level", r.Level},
			{"time_window", r.TimeWindow},
			{"inflow", r.Inflow},
			{"outflow", r.Outflow},
			{"net_amount", r.NetAmount},
			{"net_pct", r.NetPct},
			{"source", r.Source},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported record type %T", rec)
	}
}
