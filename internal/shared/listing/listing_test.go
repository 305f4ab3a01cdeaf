package listing

import (
	"net/http/httptest"
	"testing"
)

// TestParse tests query parameter parsing and defaults
func TestParse(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want Params
	}{
		{
			"defaults",
			"/reports",
			Params{SortField: "", Ascending: false, Start: 0, End: 24},
		},
		{
			"all parameters set",
			"/reports?_sort=folio&_order=ASC&_start=10&_end=35",
			Params{SortField: "folio", Ascending: true, Start: 10, End: 35},
		},
		{
			"descending",
			"/reports?_sort=incident_at&_order=DESC",
			Params{SortField: "incident_at", Ascending: false, Start: 0, End: 24},
		},
		{
			"malformed numbers fall back",
			"/reports?_start=abc&_end=xyz",
			Params{Start: 0, End: 24},
		},
		{
			"end not after start gets default page",
			"/reports?_start=30&_end=20",
			Params{Start: 30, End: 54},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			got := Parse(r)
			if got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.url, got, tc.want)
			}
		})
	}
}

// TestLimitOffset tests the SQL paging math
func TestLimitOffset(t *testing.T) {
	p := Params{Start: 25, End: 50}
	if p.Limit() != 25 {
		t.Errorf("Expected limit 25, got %d", p.Limit())
	}
	if p.Offset() != 25 {
		t.Errorf("Expected offset 25, got %d", p.Offset())
	}
}

// TestDirection tests sort direction mapping
func TestDirection(t *testing.T) {
	if (Params{Ascending: true}).Direction() != "ASC" {
		t.Error("Expected ASC")
	}
	if (Params{}).Direction() != "DESC" {
		t.Error("Expected DESC")
	}
}
