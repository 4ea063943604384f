package domain

// SelectorOption is one entry of a tenant or branch picker.
type SelectorOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Subtitle string `json:"subtitle,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Selector is the server-built picker state. The option list is the
// authorization boundary: nothing outside it can be picked.
type Selector struct {
	Options  []SelectorOption `json:"options"`
	Current  string           `json:"current,omitempty"`
	ReadOnly bool             `json:"read_only"`
}

// NewSelector builds a selector that degrades to a read-only label when
// there is at most one option.
func NewSelector(options []SelectorOption, current string) Selector {
	if options == nil {
		options = []SelectorOption{}
	}
	return Selector{
		Options:  options,
		Current:  current,
		ReadOnly: len(options) <= 1,
	}
}

// Pick reports whether choosing id requires a switch call. Read-only
// selectors and re-selecting the current entry never do.
func (s Selector) Pick(id string) (bool, error) {
	if s.ReadOnly || id == s.Current {
		return false, nil
	}
	for _, o := range s.Options {
		if o.ID == id {
			return true, nil
		}
	}
	return false, ErrForbidden
}

// BranchOptions maps branches to selector entries.
func BranchOptions(branches []Branch) []SelectorOption {
	out := make([]SelectorOption, 0, len(branches))
	for _, b := range branches {
		out = append(out, SelectorOption{ID: b.ID, Name: b.Name, Subtitle: b.City, Detail: b.Address})
	}
	return out
}

// TenantOptions maps tenants to selector entries.
func TenantOptions(tenants []Tenant) []SelectorOption {
	out := make([]SelectorOption, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, SelectorOption{ID: t.ID, Name: t.Name, Subtitle: t.Slug})
	}
	return out
}
