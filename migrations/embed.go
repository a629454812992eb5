// Package migrations holds the SQL schema for the local state store, one
// directory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
