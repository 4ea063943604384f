package migration

import (
	"sort"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// BatchSize is the number of rows written per statement.
const BatchSize = 500

// LegacyClient is one live row of the legacy client table.
type LegacyClient struct {
	LegacyID        string
	Phone           string
	Mobile          string
	ClinicID        int
	CreatedClinicID int
}

// NormalizedPhone prefers the mobile number over the landline.
func (c LegacyClient) NormalizedPhone() (string, bool) {
	return domain.PreferredPhone(c.Mobile, c.Phone)
}

// Clinic returns the clinic the client belongs to, falling back to the
// clinic that created it only when clinic_id is unset. A clinic of -1 marks
// a client detached from every clinic and is never resolved.
func (c LegacyClient) Clinic() (int, bool) {
	id := c.ClinicID
	if id == 0 {
		id = c.CreatedClinicID
	}
	if id == 0 || id == -1 {
		return 0, false
	}
	return id, true
}

// BranchUpdate assigns the owner with Phone to BranchID.
type BranchUpdate struct {
	Phone    string
	BranchID string
}

// LegacyIDUpdate assigns LegacyID to the owner with Phone.
type LegacyIDUpdate struct {
	Phone    string
	LegacyID string
}

// PhoneConflict is a phone shared by several legacy clients.
type PhoneConflict struct {
	Phone     string
	LegacyIDs []string
}

// PlanBranchUpdates maps legacy clients onto branches. Clients without a
// usable phone or with an unmapped clinic are skipped. The first client
// seen for a phone decides its branch.
func PlanBranchUpdates(clients []LegacyClient, clinicBranches map[int]string) []BranchUpdate {
	seen := make(map[string]struct{}, len(clients))
	out := make([]BranchUpdate, 0, len(clients))
	for _, c := range clients {
		phone, ok := c.NormalizedPhone()
		if !ok {
			continue
		}
		clinic, ok := c.Clinic()
		if !ok {
			continue
		}
		branchID, ok := clinicBranches[clinic]
		if !ok {
			continue
		}
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}
		out = append(out, BranchUpdate{Phone: phone, BranchID: branchID})
	}
	return out
}

// PlanLegacyIDs maps phones to legacy ids. A phone used by more than one
// legacy client is ambiguous: it is left out of the plan and reported.
func PlanLegacyIDs(clients []LegacyClient) ([]LegacyIDUpdate, []PhoneConflict) {
	byPhone := make(map[string][]string)
	order := make([]string, 0)
	for _, c := range clients {
		if c.LegacyID == "" {
			continue
		}
		phone, ok := c.NormalizedPhone()
		if !ok {
			continue
		}
		if _, known := byPhone[phone]; !known {
			order = append(order, phone)
		}
		byPhone[phone] = appendUnique(byPhone[phone], c.LegacyID)
	}

	updates := make([]LegacyIDUpdate, 0, len(order))
	var conflicts []PhoneConflict
	for _, phone := range order {
		ids := byPhone[phone]
		if len(ids) > 1 {
			sort.Strings(ids)
			conflicts = append(conflicts, PhoneConflict{Phone: phone, LegacyIDs: ids})
			continue
		}
		updates = append(updates, LegacyIDUpdate{Phone: phone, LegacyID: ids[0]})
	}
	return updates, conflicts
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// batches splits items into slices of at most size elements.
func batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = BatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
