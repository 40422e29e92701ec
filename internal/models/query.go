package models

// FilterOp is a comparison supported by user lookups.
type FilterOp string

const OpEqual FilterOp = "Equal"

// Filter restricts a lookup to records whose Field compares to Value.
// Supported fields are "email" and "id".
type Filter struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"operator"`
	Value string   `json:"value"`
}

// Query selects a page of the user collection. Page is 1-based; a zero
// PageSize returns every match.
type Query struct {
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Filters  []Filter `json:"filters,omitempty"`
}

// ByEmail is the single-record lookup used by the session flows.
func ByEmail(email string) Query {
	return Query{Page: 1, PageSize: 1, Filters: []Filter{{Field: "email", Op: OpEqual, Value: email}}}
}

// UserPage is one page of lookup results and the total number of matches.
type UserPage struct {
	Records []UserRecord
	Total   int
}

// Bounds converts Page/PageSize into slice bounds over n items.
func (q Query) Bounds(n int) (lo, hi int) {
	if q.PageSize <= 0 {
		return 0, n
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	// Compare before multiplying so a huge Page cannot overflow.
	if page-1 >= n/q.PageSize+1 {
		return n, n
	}
	lo = min((page-1)*q.PageSize, n)
	hi = n
	if q.PageSize < n-lo {
		hi = lo + q.PageSize
	}
	return lo, hi
}
