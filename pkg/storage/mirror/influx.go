package mirror

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
	"github.com/guge88888888/a-stock-data-collector/pkg/config"
	"github.com/guge88888888/a-stock-data-collector/pkg/model"
	"github.com/guge88888888/a-stock-data-collector/pkg/storage"
)

// InfluxSink 以表名为 measurement 写入时序点。字符串列作为 tag，数值列作为 field。
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink 创建 InfluxDB 客户端并做健康检查
func NewInfluxSink(ctx context.Context, cfg config.InfluxDBConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := client.Health(healthCtx)
	if err != nil {
		client.Close()
		return nil, apperr.Wrap(apperr.CodeTransport, "连接 InfluxDB 失败", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, apperr.Newf(apperr.CodeTransport, "InfluxDB 健康检查失败: %s", health.Status)
	}

	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Name 实现 storage.Sink 接口
func (s *InfluxSink) Name() string {
	return "influxdb"
}

// Write 同步写入整批时序点
func (s *InfluxSink) Write(ctx context.Context, table string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(records))
	for _, rec := range records {
		p, err := pointOf(table, rec)
		if err != nil {
			return apperr.Wrap(apperr.CodeUnexpected, "展开记录失败", err)
		}
		points = append(points, p)
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return apperr.Wrap(apperr.CodeTransport, "写入 InfluxDB 失败", err)
	}
	return nil
}

// Close 关闭客户端
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func pointOf(table string, rec model.Record) (*write.Point, error) {
	fields, err := storage.Fields(rec)
	if err != nil {
		return nil, err
	}

	p := influxdb2.NewPointWithMeasurement(table).SetTime(rec.Timestamp())
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			if v != "" {
				p.AddTag(f.Name, v)
			}
		case float64:
			p.AddField(f.Name, v)
		}
	}
	return p, nil
}
