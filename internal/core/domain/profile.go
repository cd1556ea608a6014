package domain

import "strings"

// UserProfile holds optional facts the user supplied about themselves.
type UserProfile struct {
	Age          string `json:"age,omitempty"`
	Income       string `json:"income,omitempty"`
	FamilyStatus string `json:"family_status,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
}

// Lines renders the non-empty fields as "key: value" in a fixed order.
func (p *UserProfile) Lines() []string {
	if p == nil {
		return nil
	}
	fields := []struct {
		key, value string
	}{
		{"age", p.Age},
		{"income", p.Income},
		{"family_status", p.FamilyStatus},
		{"nationality", p.Nationality},
	}
	var lines []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			lines = append(lines, f.key+": "+v)
		}
	}
	return lines
}

// HasFacts reports whether any field is set.
func (p *UserProfile) HasFacts() bool {
	return len(p.Lines()) > 0
}

// HasIncome reports whether an income was supplied.
func (p *UserProfile) HasIncome() bool {
	return p != nil && strings.TrimSpace(p.Income) != ""
}
