// Package migrations embeds the kv_entries schema migrations, consumed
// by golang-migrate through the iofs source driver — grounded on the
// teacher's pkg/store/metadata/postgres/migrations pattern.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
