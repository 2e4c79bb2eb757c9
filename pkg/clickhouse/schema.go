package clickhouse

import "fmt"

// AlertSchema returns idempotent DDL for the alert archive.
func AlertSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	ts         DateTime64(3, 'UTC'),
	ticker     LowCardinality(String),
	conditions Array(LowCardinality(String)),
	rsi        Float64,
	message    String,
	status     LowCardinality(String)
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (ticker, ts)
TTL toDateTime(ts) + INTERVAL 1 YEAR`, database, table),
	}
}
