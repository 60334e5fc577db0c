package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

var ts = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func quotes(symbols ...string) []model.Record {
	out := make([]model.Record, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, model.Quote{Symbol: s, Ts: ts, Source: "akshare"})
	}
	return out
}

func TestMemoryStorage_Write(t *testing.T) {
	ms := NewMemoryStorage(MemoryStorageConfig{MaxRecords: 3})
	ctx := context.Background()

	require.NoError(t, ms.Write(ctx, model.TableQuotes, nil))
	assert.Empty(t, ms.Writes(), "空批次不计为写入")

	require.NoError(t, ms.Write(ctx, model.TableQuotes, quotes("600000", "000001")))
	require.NoError(t, ms.Write(ctx, model.TableQuotes, quotes("600004", "600009")))

	got := ms.Records(model.TableQuotes)
	require.Len(t, got, 3)
	assert.Equal(t, "000001", got[0].Key(), "超出上限时丢弃最早的记录")

	assert.Equal(t, []WriteCall{{model.TableQuotes, 2}, {model.TableQuotes, 2}}, ms.Writes())
	assert.Equal(t, int64(4), ms.GetStats().TotalRecords)
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	ms := NewMemoryStorage(MemoryStorageConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ms.Write(ctx, model.TableIndices, quotes("600000"))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "broken" }
func (f *failingSink) Write(ctx context.Context, table string, records []model.Record) error {
	f.calls++
	return errors.New("connection refused")
}

func TestFanout_MirrorFailureIsCounted(t *testing.T) {
	ok := NewMemoryStorage(MemoryStorageConfig{})
	broken := &failingSink{}
	f := NewFanout(broken, ok)

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 0, f.Write(context.Background(), model.TableQuotes, nil))
	assert.Equal(t, 0, broken.calls)

	failed := f.Write(context.Background(), model.TableQuotes, quotes("600000"))
	assert.Equal(t, 1, failed)
	assert.Len(t, ok.Records(model.TableQuotes), 1, "后续镜像仍然写入")
	assert.Equal(t, map[string]int64{"broken": 1}, f.Failures())
	assert.NoError(t, f.Close())
}

func TestFields(t *testing.T) {
	fields, err := Fields(model.FundFlow{EntityID: "000001", Ts: ts, NetAmount: -120.5, Outflow: 120.5})
	require.NoError(t, err)

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"entity_id", "entity_type", "ts", "level", "time_window", "inflow", "outflow", "net_amount", "net_pct", "source"}, names)
	assert.Equal(t, -120.5, fields[7].Value)

	_, err = Fields(nil)
	assert.Error(t, err)
}

func TestStaticUniverse(t *testing.T) {
	u := StaticUniverse{" 600000", "000001", "600000", ""}
	symbols, err := u.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"600000", "000001"}, symbols)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Symbols(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
