package models

import "strings"

// Session identifies which itinerary a request is about. Derived once per
// request from the URL or recovered from persisted parameter backends;
// never mutated afterwards.
type Session struct {
	ClientCode    string `json:"client"`
	SpreadsheetID string `json:"shid"`
	Language      string `json:"lang"`
	IsRTL         bool   `json:"rtl,omitempty"`
}

// Complete reports whether the session carries both required identifiers.
func (s Session) Complete() bool {
	return strings.TrimSpace(s.ClientCode) != "" && strings.TrimSpace(s.SpreadsheetID) != ""
}
