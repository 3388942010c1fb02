// Package migrations carries the embedded schema for the history stores and
// applies it before a session starts betting.
package migrations

import "embed"

// PostgresFS holds the session and round table definitions.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the round archive table definitions.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
