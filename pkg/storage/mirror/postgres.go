package mirror

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

// batchPool 是 PostgresSink 用到的 pgxpool.Pool 方法子集
type batchPool interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// PostgresSink 绕过 REST 直接向数据库插入记录，整批通过 pgx.Batch 发送。
// 只做追加插入，不去重。
type PostgresSink struct {
	pool   batchPool
	schema string
}

// NewPostgresSink 创建连接池并验证连通性
func NewPostgresSink(ctx context.Context, cfg config.PostgresConfig) (*PostgresSink, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeConfig, "解析数据库连接串失败", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTransport, "创建连接池失败", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.CodeTransport, "连接数据库失败", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return &PostgresSink{pool: pool, schema: schema}, nil
}

// Name 实现 storage.Sink 接口
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Write 批量插入，任一行失败即返回错误
func (s *PostgresSink) Write(ctx context.Context, table string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		fields, err := storage.Fields(rec)
		if err != nil {
			return apperr.Wrap(apperr.CodeUnexpected, "展开记录失败", err)
		}
		query, args := insertSQL(s.schema, table, fields)
		batch.Queue(query, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range records {
		if _, err := br.Exec(); err != nil {
			return apperr.Wrap(apperr.CodeTransport, fmt.Sprintf("插入 %s 第 %d 行失败", table, i+1), err)
		}
	}
	return nil
}

// Close 关闭连接池
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

// insertSQL 生成单行 INSERT 语句，标识符经过转义
func insertSQL(schema, table string, fields []storage.Field) (string, []interface{}) {
	cols := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	args := make([]interface{}, len(fields))
	for i, f := range fields {
		cols[i] = pgx.Identifier{f.Name}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = f.Value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{schema, table}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}
