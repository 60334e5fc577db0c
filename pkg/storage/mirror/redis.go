// Package mirror 提供主存储之外的镜像写入目标：Redis 最新快照、InfluxDB 时序与 Postgres 直连。
package mirror

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

// RedisSink 以哈希保存每个实体的最新记录，键为 {prefix}{table}:{key}，
// 同时维护 {prefix}{table}:keys 集合。
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSink 连接 Redis 并验证连通性
func NewRedisSink(ctx context.Context, cfg config.RedisConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, apperr.Wrap(apperr.CodeTransport, "连接 Redis 失败", err)
	}

	return newRedisSink(client, cfg), nil
}

func newRedisSink(client *redis.Client, cfg config.RedisConfig) *RedisSink {
	return &RedisSink{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}
}

// Name 实现 storage.Sink 接口
func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) key(table, id string) string {
	return s.prefix + table + ":" + id
}

// Write 通过 pipeline 一次性写入整批记录
func (s *RedisSink) Write(ctx context.Context, table string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	setKey := s.key(table, "keys")
	pipe := s.client.Pipeline()

	for _, rec := range records {
		hash, err := hashOf(rec)
		if err != nil {
			return apperr.Wrap(apperr.CodeUnexpected, "展开记录失败", err)
		}

		key := s.key(table, rec.Key())
		pipe.HSet(ctx, key, hash)
		pipe.SAdd(ctx, setKey, rec.Key())
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, setKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Wrap(apperr.CodeTransport, "Redis pipeline 执行失败", err)
	}
	return nil
}

// Close 关闭连接
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// hashOf 将记录转换为 Redis 哈希字段，时间统一为 RFC3339
func hashOf(rec model.Record) (map[string]interface{}, error) {
	fields, err := storage.Fields(rec)
	if err != nil {
		return nil, err
	}

	hash := make(map[string]interface{}, len(fields)+1)
	for _, f := range fields {
		switch v := f.Value.(type) {
		case time.Time:
			hash[f.Name] = v.Format(time.RFC3339)
		case float64:
			hash[f.Name] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			hash[f.Name] = v
		}
	}
	hash["updated_at"] = time.Now().Unix()
	return hash, nil
}
