// Package httpx 提供进程内共享的 HTTP 客户端：统一超时、默认请求头与响应体解码。
package httpx

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
)

// 失败时在错误中保留的响应体长度
const maxErrorBody = 512

// Doer 发送 HTTP 请求的最小接口，便于测试替换
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client 是对 http.Client 的轻量封装。初始化后只读，可在多个组件间共享。
type Client struct {
	HTTP      Doer
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// New 创建带默认传输参数的客户端，timeout 为每次调用的超时。
// 超时通过每次调用的 context 控制，副本可用 WithTimeout 单独设置。
func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &Client{
		HTTP:    &http.Client{Transport: transport},
		Timeout: timeout,
		Headers: map[string]string{},
	}
}

// WithHeaders 返回附加了请求头的副本
func (c *Client) WithHeaders(headers map[string]string) *Client {
	merged := make(map[string]string, len(c.Headers)+len(headers))
	for k, v := range c.Headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	cp := *c
	cp.Headers = merged
	return &cp
}

// WithTimeout 返回使用指定超时的副本
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	cp := *c
	cp.Timeout = timeout
	return &cp
}

// Response 已完整读取并解码为 UTF-8 的响应
type Response struct {
	StatusCode int
	Body       []byte
}

// OK 判断状态码是否为 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Snippet 返回截断后的响应体，用于日志与错误信息
func (r *Response) Snippet() string {
	s := string(r.Body)
	if len(s) > maxErrorBody {
		// 回退到字符边界，避免截断多字节字符
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}

// Do 发送请求并读取完整响应体。网络错误包装为 TRANSPORT 错误；状态码由调用方判断。
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*Response, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTransport, "创建请求失败", err)
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTransport, fmt.Sprintf("%s %s 请求失败", method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTransport, "读取响应失败", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Get 发送 GET 请求
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// decodeBody 按 Content-Type 的 charset 将 GBK/GB2312/GB18030 响应转为 UTF-8
func decodeBody(resp *http.Response) io.Reader {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return resp.Body
	}

	switch strings.ToLower(params["charset"]) {
	case "gbk", "gb2312":
		return transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	case "gb18030":
		return transform.NewReader(resp.Body, simplifiedchinese.GB18030.NewDecoder())
	default:
		return resp.Body
	}
}
