package models

import "testing"

func TestSortClause_WhitelistsFields(t *testing.T) {
	cases := []struct {
		sort      string
		direction string
		expected  string
	}{
		{"budget", "asc", "budget asc"},
		{"client", "desc", "client desc"},
		{"created_at", "ASC", "created_at asc"},
		{"", "", "budget desc"},
		{"id; DROP TABLE analytics_records", "asc", "budget asc"},
		{"date", "sideways", "date desc"},
	}
	for _, tc := range cases {
		filter := &RecordFilter{Sort: tc.sort, Direction: tc.direction}
		if got := filter.SortClause(); got != tc.expected {
			t.Fatalf("SortClause(%q, %q) expected %q, got %q", tc.sort, tc.direction, tc.expected, got)
		}
	}
}
