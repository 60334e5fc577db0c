package eastmoney

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/normalize"
)

// clist 全表接口路径
const clistPath = "/api/qt/clist/get"

// 分页上限，防止接口返回异常 total 时无限翻页
const maxPages = 100

// 请求头（模拟浏览器）
const (
	referer        = "https://quote.eastmoney.com/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

// table 描述一张 clist 全表：筛选条件、排序字段与需要的列
type table struct {
	name   string
	fs     string
	fid    string
	fields []string
}

func (t table) columns() string {
	return strings.Join(t.fields, ",")
}

var (
	// 沪深京 A 股
	quoteTable = table{
		name:   "A股实时行情",
		fs:     "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23,m:0 t:81 s:2048",
		fid:    "f3",
		fields: append([]string{normalize.ColCode, normalize.ColName}, normalize.QuoteColumns.Sources()...),
	}

	// 上证系列指数 + 深证系列指数
	indexTable = table{
		name:   "指数行情",
		fs:     "m:1 s:2,m:0 t:5",
		fid:    "f3",
		fields: append([]string{normalize.ColCode, normalize.ColName}, normalize.IndexColumns.Sources()...),
	}

	// 个股今日资金流向排名
	fundFlowTable = table{
		name:   "个股资金流向",
		fs:     "m:0 t:6 f:!2,m:0 t:13 f:!2,m:0 t:80 f:!2,m:1 t:2 f:!2,m:1 t:23 f:!2,m:0 t:7 f:!2,m:1 t:3 f:!2",
		fid:    "f62",
		fields: append([]string{normalize.ColCode, normalize.ColName}, normalize.FundFlowColumns.Sources()...),
	}
)

// pageURL 构造某一页的请求地址
func (p *Provider) pageURL(t table, page int) string {
	q := url.Values{}
	q.Set("pn", strconv.Itoa(page))
	q.Set("pz", strconv.Itoa(p.cfg.PageSize))
	q.Set("po", "1")
	q.Set("np", "1")
	q.Set("fltt", "2")
	q.Set("invt", "2")
	q.Set("fid", t.fid)
	q.Set("fs", t.fs)
	q.Set("fields", t.columns())
	return strings.TrimRight(p.cfg.BaseURL, "/") + clistPath + "?" + q.Encode()
}

// fetchTable 分页拉取整张表，按代码索引。同一代码重复出现时保留第一条。
func (p *Provider) fetchTable(ctx context.Context, t table) (map[string]normalize.Row, error) {
	rows := make(map[string]normalize.Row)
	seen := 0

	for page := 1; page <= maxPages; page++ {
		resp, err := p.client.Get(ctx, p.pageURL(t, page), nil)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, apperr.Newf(apperr.CodeHTTPStatus, "%s 第 %d 页返回 %d: %s", t.name, page, resp.StatusCode, resp.Snippet()).
				WithContext("status", resp.StatusCode)
		}

		total, count, err := decodePage(resp.Body, t.fields, rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeDecode, t.name+" 响应解析失败", err)
		}

		p.log.Debugf("%s 第 %d 页: %d 条 (total=%d)", t.name, page, count, total)

		// 服务端可能把每页截到比 pz 更少的行，只以 total 判断是否取完
		seen += count
		if count == 0 || seen >= total {
			break
		}
	}

	return rows, nil
}

// decodePage 解析 data.total 与 data.diff（数组或以序号为键的对象），
// 返回 total 与本页条数。data 为 null 表示没有数据。
func decodePage(body []byte, fields []string, rows map[string]normalize.Row) (total, count int, err error) {
	if !gjson.ValidBytes(body) {
		return 0, 0, apperr.Newf(apperr.CodeDecode, "非法 JSON: %.80s", string(body))
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return 0, 0, nil
	}

	total = int(data.Get("total").Int())
	data.Get("diff").ForEach(func(_, item gjson.Result) bool {
		count++
		row := make(normalize.Row, len(fields))
		for _, f := range fields {
			v := item.Get(f)
			if !v.Exists() || v.Type == gjson.Null {
				continue
			}
			row[f] = v.String()
		}

		code := strings.TrimSpace(row[normalize.ColCode])
		if code == "" {
			return true
		}
		if _, ok := rows[code]; !ok {
			rows[code] = row
		}
		return true
	})

	return total, count, nil
}
