// Package migrations embeds the SQL migration files for the native
// PostgreSQL metadata store. golang-migrate reads them through the iofs
// source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
