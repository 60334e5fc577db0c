package storage

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/guge88888888/a-stock-data-collector/pkg/logger"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// Fanout 将同一批记录依次写入多个镜像。
// 镜像失败只记录日志与计数，不影响调用方。
type Fanout struct {
	sinks []Sink
	log   *logrus.Entry

	mu       sync.Mutex
	failures map[string]int64
}

// NewFanout 创建镜像写入器
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:    sinks,
		log:      logger.WithComponent("Mirrors"),
		failures: make(map[string]int64),
	}
}

// Len 返回镜像数量
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Write 写入所有镜像，返回失败的镜像数
func (f *Fanout) Write(ctx context.Context, table string, records []model.Record) int {
	if len(records) == 0 {
		return 0
	}

	failed := 0
	for _, sink := range f.sinks {
		if err := sink.Write(ctx, table, records); err != nil {
			failed++
			f.mu.Lock()
			f.failures[sink.Name()]++
			f.mu.Unlock()
			f.log.WithError(err).WithFields(logrus.Fields{
				"mirror": sink.Name(),
				"table":  table,
			}).Warn("镜像写入失败")
		}
	}
	return failed
}

// Failures 返回各镜像累计失败次数
func (f *Fanout) Failures() map[string]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64, len(f.failures))
	for k, v := range f.failures {
		out[k] = v
	}
	return out
}

// Close 关闭实现了 Closer 的镜像
func (f *Fanout) Close() error {
	var first error
	for _, sink := range f.sinks {
		if c, ok := sink.(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
