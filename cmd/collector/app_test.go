package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guge88888888/a-stock-data-collector/pkg/collector"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

// fakeMarket 按 fid 与 fs 返回行情、指数或资金流向全表
func fakeMarket(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pn") != "1" {
			_, _ = w.Write([]byte(`{"rc":0,"data":null}`))
			return
		}
		switch {
		case q.Get("fid") == "f62":
			_, _ = w.Write([]byte(`{"data":{"total":1,"diff":[{"f12":"600000","f62":-120.5,"f184":-1.2}]}}`))
		case strings.Contains(q.Get("fs"), "m:1 s:2"):
			_, _ = w.Write([]byte(`{"data":{"total":1,"diff":[{"f12":"000001","f2":3050.1,"f3":0.5,"f6":1000,"f15":3060,"f16":3030,"f17":3035}]}}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"total":2,"diff":[
				{"f12":"600000","f2":7.12,"f3":1.71,"f4":0.12,"f5":100,"f6":712,"f15":7.15,"f16":7.01,"f17":7.02,"f18":7.0},
				{"f12":"000001","f2":10.85,"f3":-0.46,"f4":-0.05,"f5":100,"f6":1085,"f15":10.93,"f16":10.8,"f17":10.9,"f18":10.9}]}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewApp_DryRunOnce(t *testing.T) {
	srv := fakeMarket(t)

	cfg := config.Default()
	cfg.Provider.BaseURL = srv.URL

	a, err := newApp(context.Background(), cfg, runOptions{once: true, dryRun: true, symbols: []string{"600000", "000001"}})
	require.NoError(t, err)
	defer a.close()

	report := a.scheduler.RunOnce(context.Background())
	require.NotNil(t, report)
	assert.False(t, report.Failed(), report.Summary())
	assert.Equal(t, 2, report.Universe)

	mem, ok := a.sink.(*storage.MemoryStorage)
	require.True(t, ok, "dry-run 使用内存存储")
	assert.Len(t, mem.Records(model.TableQuotes), 2)
	assert.Len(t, mem.Records(model.TableIndices), 1)
	require.Len(t, mem.Records(model.TableFundFlows), 1)

	flow := mem.Records(model.TableFundFlows)[0].(model.FundFlow)
	assert.Equal(t, 120.5, flow.Outflow)

	flows, _ := report.Stage(collector.StageFundFlows)
	assert.Equal(t, 1, flows.Skipped, "000001 没有资金流向数据")

	stats := a.scheduler.Snapshot()
	assert.Equal(t, int64(1), stats.RunCount)
	assert.Same(t, report, stats.LastReport)
}

func TestNewApp_ProviderDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Enabled = false

	a, err := newApp(context.Background(), cfg, runOptions{dryRun: true, symbols: []string{"600000"}})
	require.NoError(t, err)

	report := a.scheduler.RunOnce(context.Background())
	for _, s := range report.Stages[1:] {
		assert.Equal(t, collector.StatusUnavailable, s.Status)
	}
	assert.Empty(t, a.sink.(*storage.MemoryStorage).Writes())
}

func TestNewApp_InvalidSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.Schedule = "not a cron"

	_, err := newApp(context.Background(), cfg, runOptions{dryRun: true})
	assert.Error(t, err)
}

func TestRun_MissingKeyExitsCleanly(t *testing.T) {
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("COLLECTOR_SUPABASE_SERVICE_ROLE_KEY", "")

	assert.NoError(t, run(context.Background(), runOptions{once: true}))
}

func TestRun_DryRunStillValidatesConfig(t *testing.T) {
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("COLLECTOR_SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("COLLECTOR_PROVIDER_PAGE_SIZE", "0")

	err := run(context.Background(), runOptions{once: true, dryRun: true, symbols: []string{"600000"}})
	assert.Error(t, err)
}

func TestRun_MissingConfigFile(t *testing.T) {
	assert.Error(t, run(context.Background(), runOptions{configPath: "does-not-exist.yaml", once: true}))
}

func TestBuildMirrors_NoneEnabled(t *testing.T) {
	assert.Empty(t, buildMirrors(context.Background(), config.MirrorsConfig{}, nil))
}
