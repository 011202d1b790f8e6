// Package export ships parsed log entries to ClickHouse so triage queries
// can run against history instead of raw files.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/vrajat/pg-logstats/pkg/config"
	"github.com/vrajat/pg-logstats/pkg/parser"
)

// ddlTemplate creates the destination table when it does not exist yet.
const ddlTemplate = `CREATE TABLE IF NOT EXISTS %s (
	EventTime       DateTime64(3, 'UTC'),
	ProcessID       String,
	User            String,
	Database        String,
	ApplicationName String,
	Severity        LowCardinality(String),
	Message         String,
	Query           String,
	DurationMS      Float64,
	HasDuration     UInt8,
	SourceFile      String
) ENGINE = MergeTree()
ORDER BY (EventTime, ProcessID)`

// Client writes log entries to a ClickHouse table in batches.
type Client struct {
	conn      clickhouse.Conn
	table     string
	batchSize int
	logger    *zap.Logger
}

// New opens a ClickHouse connection from the export configuration.
func New(cfg *config.ClickHouseConfig, logger *zap.Logger) (*Client, error) {
	protocol := clickhouse.Native
	if cfg.Protocol == "http" {
		protocol = clickhouse.HTTP
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Address},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		Protocol:    protocol,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	return &Client{
		conn:      conn,
		table:     cfg.Table,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}, nil
}

// EnsureTable creates the destination table if missing.
func (c *Client) EnsureTable(ctx context.Context) error {
	if err := c.conn.Exec(ctx, fmt.Sprintf(ddlTemplate, c.table)); err != nil {
		return fmt.Errorf("create table %s: %w", c.table, err)
	}
	return nil
}

// InsertEntries writes entries to the destination table in batches of the
// configured size. A failed batch aborts the export; already-sent batches
// stay in ClickHouse.
func (c *Client) InsertEntries(ctx context.Context, source string, entries []parser.LogEntry) error {
	for start := 0; start < len(entries); start += c.batchSize {
		end := start + c.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := c.insertBatch(ctx, source, entries[start:end]); err != nil {
			return err
		}
		c.logger.Debug("batch sent",
			zap.String("table", c.table),
			zap.Int("count", end-start))
	}
	return nil
}

func (c *Client) insertBatch(ctx context.Context, source string, entries []parser.LogEntry) error {
	batch, err := c.conn.PrepareBatch(ctx,
		"INSERT INTO "+c.table+" ("+
			"EventTime, ProcessID, User, Database, ApplicationName, "+
			"Severity, Message, Query, DurationMS, HasDuration, SourceFile"+
			") VALUES (?,?,?,?,?,?,?,?,?,?,?)")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range entries {
		entry := &entries[i]
		hasDuration := uint8(0)
		if entry.HasDuration() {
			hasDuration = 1
		}
		if err := batch.Append(
			entry.Timestamp,
			entry.ProcessID,
			entry.User,
			entry.Database,
			entry.ApplicationName,
			string(entry.Severity),
			entry.Message,
			entry.Query,
			entry.DurationMS(),
			hasDuration,
			source,
		); err != nil {
			return fmt.Errorf("append: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Close closes the ClickHouse connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
