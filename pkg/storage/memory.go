package storage

import (
	"context"
	"sync"
	"time"

	"github.com/guge88888888/a-stock-data-collector/pkg/model"
)

// MemoryStorage 是完全在内存中实现的 Sink。
// 用于 --dry-run 与测试，所有数据在程序结束时丢失。
type MemoryStorage struct {
	mu     sync.RWMutex
	data   map[string][]model.Record
	writes []WriteCall
	config MemoryStorageConfig
	stats  MemoryStorageStats
}

// MemoryStorageConfig 定义了 MemoryStorage 的配置选项。
type MemoryStorageConfig struct {
	MaxRecords int // 每张表保留的最大记录数，超出时丢弃最早的记录；0 表示不限制
}

// MemoryStorageStats 包含了 MemoryStorage 的运行统计信息。
type MemoryStorageStats struct {
	TotalRecords int64     `json:"total_records"` // 累计写入的记录数
	TotalWrites  int64     `json:"total_writes"`  // 非空写入次数
	LastWrite    time.Time `json:"last_write"`
}

// WriteCall 一次非空写入
type WriteCall struct {
	Table string
	Count int
}

// NewMemoryStorage 创建一个新的 MemoryStorage 实例。
func NewMemoryStorage(config MemoryStorageConfig) *MemoryStorage {
	return &MemoryStorage{
		data:   make(map[string][]model.Record),
		config: config,
	}
}

// Name 实现 Sink 接口
func (ms *MemoryStorage) Name() string {
	return "memory"
}

// Write 实现 Sink 接口
func (ms *MemoryStorage) Write(ctx context.Context, table string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rows := append(ms.data[table], records...)
	if ms.config.MaxRecords > 0 && len(rows) > ms.config.MaxRecords {
		rows = rows[len(rows)-ms.config.MaxRecords:]
	}
	ms.data[table] = rows
	ms.writes = append(ms.writes, WriteCall{Table: table, Count: len(records)})

	ms.stats.TotalRecords += int64(len(records))
	ms.stats.TotalWrites++
	ms.stats.LastWrite = time.Now()
	return nil
}

// Records 返回某张表当前保存的记录副本
func (ms *MemoryStorage) Records(table string) []model.Record {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return append([]model.Record(nil), ms.data[table]...)
}

// Writes 返回所有非空写入调用
func (ms *MemoryStorage) Writes() []WriteCall {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return append([]WriteCall(nil), ms.writes...)
}

// GetStats 返回统计信息
func (ms *MemoryStorage) GetStats() MemoryStorageStats {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.stats
}
