package model

import "strings"

// EstablishmentRecord is the canonical facility payload. Unrecovered fields
// serialize as null; they are never omitted.
type EstablishmentRecord struct {
	EstablishmentName *string `json:"establishment_name"`
	Address           *string `json:"address"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	Activities        *string `json:"activities"`
	EstablishmentID   *string `json:"establishment_id,omitempty"`
}

// CompactRecord is the short-key form stored in the local table
type CompactRecord struct {
	Name       string `json:"n"`
	Address    string `json:"a,omitempty"`
	City       string `json:"c,omitempty"`
	State      string `json:"s,omitempty"`
	Activities string `json:"t,omitempty"`
}

// Expand converts the compact form into the canonical record
func (c CompactRecord) Expand() *EstablishmentRecord {
	return &EstablishmentRecord{
		EstablishmentName: NullString(c.Name),
		Address:           NullString(c.Address),
		City:              NullString(c.City),
		State:             NullString(c.State),
		Activities:        NullString(c.Activities),
	}
}

// NullString trims s and returns nil when nothing is left
func NullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
