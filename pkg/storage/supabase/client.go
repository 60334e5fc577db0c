// Package supabase 通过 PostgREST 接口读取股票列表并批量写入采集记录。
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/httpx"
	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

const restPath = "/rest/v1/"

// Client Supabase REST 客户端
type Client struct {
	http          *httpx.Client
	baseURL       string
	universeTable string
	log           *logrus.Entry
}

var (
	_ storage.Sink           = (*Client)(nil)
	_ storage.UniverseSource = (*Client)(nil)
)

// New 创建客户端，鉴权头在这里一次性设置
func New(client *httpx.Client, cfg config.SupabaseConfig) *Client {
	table := cfg.UniverseTable
	if table == "" {
		table = "stocks"
	}

	return &Client{
		http: client.WithHeaders(map[string]string{
			"apikey":        cfg.ServiceRoleKey,
			"Authorization": "Bearer " + cfg.ServiceRoleKey,
		}).WithTimeout(cfg.Timeout),
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		universeTable: table,
		log:           logger.WithComponent("Supabase"),
	}
}

// Name 实现 storage.Sink 接口
func (c *Client) Name() string {
	return "supabase"
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + restPath + table
}

// Symbols 读取股票列表（每行的 symbol 字段），去除空白与重复
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	resp, err := c.http.Get(ctx, c.tableURL(c.universeTable)+"?select=*", map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperr.Newf(apperr.CodeHTTPStatus, "获取股票列表失败: %d - %s", resp.StatusCode, resp.Snippet()).
			WithContext("status", resp.StatusCode)
	}

	result := gjson.ParseBytes(resp.Body)
	if !result.IsArray() {
		return nil, apperr.Newf(apperr.CodeDecode, "股票列表不是数组: %.80s", resp.Snippet())
	}

	var symbols []string
	result.ForEach(func(_, row gjson.Result) bool {
		symbols = append(symbols, row.Get("symbol").String())
		return true
	})

	return model.NormalizeSymbols(symbols), nil
}

// Write 将记录以 JSON 数组一次性插入指定表。空批次不发请求。
// 200/201 视为成功，其它状态码返回 HTTP_STATUS 错误并附带截断的响应体。
func (c *Client) Write(ctx context.Context, table string, records []model.Record) error {
	entry := c.log.WithField("table", table)
	if len(records) == 0 {
		entry.Warnf("⚠ %s 没有数据需要保存", table)
		return nil
	}

	body, err := json.Marshal(records)
	if err != nil {
		return apperr.Wrap(apperr.CodeUnexpected, "序列化记录失败", err)
	}

	resp, err := c.http.Do(ctx, http.MethodPost, c.tableURL(table), bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
		"Prefer":       "return=minimal",
	})
	if err != nil {
		entry.WithError(err).Errorf("✗ %s 保存异常", table)
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		entry.Errorf("✗ %s 保存失败: %d - %s", table, resp.StatusCode, resp.Snippet())
		return apperr.Newf(apperr.CodeHTTPStatus, "%s 保存失败: %d - %s", table, resp.StatusCode, resp.Snippet()).
			WithContext("status", resp.StatusCode).
			WithContext("table", table)
	}

	entry.Infof("✓ %s 保存成功: %d条记录", table, len(records))
	return nil
}
