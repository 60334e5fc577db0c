package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords_TableAndKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	recs := []Record{
		Quote{Symbol: "600000", Ts: ts},
		Index{IndexCode: "000300", Ts: ts},
		FundFlow{EntityID: "000001", Ts: ts},
	}

	assert.Equal(t, TableQuotes, recs[0].Table())
	assert.Equal(t, TableIndices, recs[1].Table())
	assert.Equal(t, TableFundFlows, recs[2].Table())
	assert.Equal(t, []string{"600000", "000300", "000001"}, []string{recs[0].Key(), recs[1].Key(), recs[2].Key()})
	for _, r := range recs {
		assert.True(t, r.Timestamp().Equal(ts))
	}
}

func TestQuote_JSONColumns(t *testing.T) {
	q := Quote{Symbol: "600000", Ts: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Last: 7.1, PrevClose: 7, Source: "akshare"}

	data, err := json.Marshal([]Record{q})
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	for _, col := range []string{"symbol", "ts", "last", "open", "high", "low", "prev_close", "vol", "amount", "change", "pct_chg", "source"} {
		assert.Contains(t, rows[0], col)
	}
	assert.Equal(t, "2024-03-01T10:00:00Z", rows[0]["ts"])
}

func TestIndexSet(t *testing.T) {
	assert.Len(t, IndexSet, 6)
	assert.Len(t, IndexCodes, 6)
	for _, code := range IndexCodes {
		assert.Contains(t, IndexSet, code)
	}
}

func TestMarketOf(t *testing.T) {
	assert.Equal(t, MarketSH, MarketOf("600000"))
	assert.Equal(t, MarketSZ, MarketOf("000001"))
	assert.Equal(t, MarketSZ, MarketOf("300750"))
	assert.Equal(t, MarketBJ, MarketOf("430047"))
	assert.Equal(t, "sh600000", Prefixed("600000"))
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{" 600000", "000001", "", "600000", "300750 "})
	assert.Equal(t, []string{"600000", "000001", "300750"}, got)
	assert.Empty(t, NormalizeSymbols(nil))
}
