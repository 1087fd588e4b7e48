package domain

import "strings"

// Customer is a loyalty client keyed by national id (cédula).
type Customer struct {
	ID     string
	Name   string
	Type   string
	Visits int64
}

// NormalizeID keeps only the digits of a national id as typed by the operator.
func NormalizeID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
