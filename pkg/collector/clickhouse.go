package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/sirupsen/logrus"
)

const clickhouseSchema = `
	CREATE TABLE IF NOT EXISTS machine_energy (
		timestamp DateTime64(6),
		machine LowCardinality(String),
		energy Float64,
		hour UInt8
	) ENGINE = MergeTree
	ORDER BY (machine, timestamp)`

type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

type ClickHouse struct {
	conn driver.Conn
}

// OpenClickHouse connects, pings and creates the machine_energy table if missing.
func OpenClickHouse(ctx context.Context, opts ClickHouseOptions) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error pinging clickhouse: %w", err)
	}
	if err := conn.Exec(ctx, clickhouseSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error creating table: %w", err)
	}

	logrus.WithField("addr", opts.Addr).Info("connected to clickhouse")
	return &ClickHouse{conn: conn}, nil
}

func (c *ClickHouse) Name() string {
	return "clickhouse"
}

func (c *ClickHouse) Write(ctx context.Context, readings []meter.Reading) error {
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO machine_energy")
	if err != nil {
		return fmt.Errorf("error preparing batch: %w", err)
	}
	for _, r := range readings {
		if err := batch.Append(r.Timestamp, r.Machine, r.Energy, uint8(r.Hour)); err != nil {
			batch.Abort()
			return fmt.Errorf("error appending reading for %s: %w", r.Machine, err)
		}
	}
	return batch.Send()
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
