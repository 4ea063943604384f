// Package migration moves data from the legacy Vetais database into the
// current schema. Every job is idempotent: statements only touch rows whose
// value would change, so a re-run writes nothing.
package migration

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// BranchMap maps a legacy clinic id to a fragment of the branch name it
// became.
type BranchMap map[int]string

// DefaultBranchMap is used when VETAIS_BRANCH_MAP is empty.
var DefaultBranchMap = BranchMap{
	10000: "Бутово",
	10001: "Лобачевского",
	10002: "Новопеределкино",
}

// ParseBranchMap reads "id=fragment;id=fragment". An empty string yields
// DefaultBranchMap.
func ParseBranchMap(raw string) (BranchMap, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		out := make(BranchMap, len(DefaultBranchMap))
		for k, v := range DefaultBranchMap {
			out[k] = v
		}
		return out, nil
	}

	out := make(BranchMap)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, fragment, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("branch map entry %q: expected id=fragment", pair)
		}
		clinicID, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil || clinicID <= 0 {
			return nil, fmt.Errorf("branch map entry %q: invalid clinic id", pair)
		}
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			return nil, fmt.Errorf("branch map entry %q: empty name fragment", pair)
		}
		out[clinicID] = fragment
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("branch map %q has no entries", raw)
	}
	return out, nil
}

// Resolve matches every fragment against the tenant's branch names and
// returns clinic id -> branch id. Branches are tried in the order given,
// so the first matching branch wins. Unmatched clinics are absent.
func (m BranchMap) Resolve(branches []domain.Branch) map[int]string {
	out := make(map[int]string, len(m))
	for _, clinicID := range m.clinicIDs() {
		fragment := strings.ToLower(m[clinicID])
		for _, b := range branches {
			if strings.Contains(strings.ToLower(b.Name), fragment) {
				out[clinicID] = b.ID
				break
			}
		}
	}
	return out
}

func (m BranchMap) clinicIDs() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
