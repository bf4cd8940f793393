// Package migrations embeds the SQL schema migrations (users, fleets,
// fleet_memberships, trips) so the goose programmatic API can apply them
// in tests and at server bootstrap without a filesystem path.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass this to a goose.Provider instead of relying on a filesystem
// path at runtime.
//
//go:embed *.sql
var FS embed.FS
