// Command backfill-legacy-ids stores legacy client ids on owners matched by phone.
//
// Usage: backfill-legacy-ids [tenant-id]
package main

import (
	"os"

	"github.com/ssavin/vetsystem-sub004/internal/migration"
)

func main() {
	os.Exit(migration.Main(migration.LegacyIDsJob, os.Args[1:]))
}
