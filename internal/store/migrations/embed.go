// Package migrations holds the SQL schema for the spell catalogue.
package migrations

import "embed"

// FS contains the numbered *.up.sql files, applied in order.
//
//go:embed *.up.sql
var FS embed.FS
