package domain

import "strings"

// minPhoneLength is the shortest normalised number treated as a real phone.
const minPhoneLength = 10

// NormalizePhone strips everything except digits and '+'. Numbers shorter
// than minPhoneLength after cleaning are rejected.
func NormalizePhone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) < minPhoneLength {
		return "", false
	}
	return cleaned, true
}

// PreferredPhone returns the first of the candidates that normalises,
// typically the mobile number ahead of the landline.
func PreferredPhone(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if p, ok := NormalizePhone(c); ok {
			return p, true
		}
	}
	return "", false
}
