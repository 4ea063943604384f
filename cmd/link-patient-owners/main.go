// Command link-patient-owners copies patients.owner_id into the patient/owner link table as the primary owner.
//
// Usage: link-patient-owners [tenant-id]
package main

import (
	"os"

	"github.com/ssavin/vetsystem-sub004/internal/migration"
)

func main() {
	os.Exit(migration.Main(migration.PatientOwnersJob, os.Args[1:]))
}
