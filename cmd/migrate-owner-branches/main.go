// Command migrate-owner-branches assigns owners to branches using the clinic ids of matching legacy clients.
//
// Usage: migrate-owner-branches [tenant-id]
package main

import (
	"os"

	"github.com/ssavin/vetsystem-sub004/internal/migration"
)

func main() {
	os.Exit(migration.Main(migration.OwnerBranchesJob, os.Args[1:]))
}
