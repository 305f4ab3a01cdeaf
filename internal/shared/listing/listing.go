// Package listing parses the react-admin style list query parameters
// (_sort, _order, _start, _end) shared by every list endpoint.
package listing

import (
	"net/http"
	"strconv"
)

const (
	defaultStart = 0
	defaultEnd   = 24
)

// Params describes the requested slice of an already-filtered result set.
// Pagination and sorting apply within the scoped set only; the total count
// a handler reports must be the scoped count, not the page size.
type Params struct {
	SortField string
	Ascending bool
	Start     int
	End       int
}

// Parse reads list parameters from the request. Absent or malformed values
// fall back to the defaults the admin frontend assumes.
func Parse(r *http.Request) Params {
	q := r.URL.Query()

	p := Params{
		SortField: q.Get("_sort"),
		Ascending: q.Get("_order") == "ASC",
		Start:     defaultStart,
		End:       defaultEnd,
	}

	if v, err := strconv.Atoi(q.Get("_start")); err == nil && v >= 0 {
		p.Start = v
	}
	if v, err := strconv.Atoi(q.Get("_end")); err == nil && v > p.Start {
		p.End = v
	}
	if p.End <= p.Start {
		p.End = p.Start + defaultEnd
	}

	return p
}

// Limit returns the page size.
func (p Params) Limit() int {
	return p.End - p.Start
}

// Offset returns the number of records to skip.
func (p Params) Offset() int {
	return p.Start
}

// Direction returns the SQL sort direction keyword.
func (p Params) Direction() string {
	if p.Ascending {
		return "ASC"
	}
	return "DESC"
}
