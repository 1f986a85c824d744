// Package migrations carries the schema for the record stores compiled into
// the binary, so a fresh database needs nothing but a DSN.
package migrations

import "embed"

// PostgresFS holds the postgres schema for holdings, metadata and transfers.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the transfer-event archive schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
