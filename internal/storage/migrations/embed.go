package migrations

import "embed"

// PostgresFS embeds the run, order and trade schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the tick and equity schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
