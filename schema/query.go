package schema

import (
	"net/url"
	"strconv"
)

// Query parameter defaults and limits for list endpoints.
const (
	DefaultPage      = 1
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultSortBy    = "createdAt"
	DefaultSortOrder = "desc"
)

// Query is the parsed list-endpoint query. Zero values are filled with
// defaults during validation.
type Query struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
	Search    string `json:"search,omitempty"`
	Status    string `json:"status,omitempty"`
}

var sortableFields = []string{"createdAt", "updatedAt", "name", "price", "stock"}

// ValidateQuery applies defaults and bounds to a list query: page defaults
// to 1, limit defaults to 10 and is capped at 100, sortBy defaults to
// createdAt, sortOrder defaults to desc.
func ValidateQuery(q Query, mode Mode) (Query, Violations) {
	c := &collector{mode: mode}

	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 1 {
		if !c.add("page", "Page must be positive") {
			return q, c.violations
		}
	}

	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 0 {
		if !c.add("limit", "Limit must be positive") {
			return q, c.violations
		}
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if !oneOf(q.SortBy, sortableFields...) {
		if !c.add("sortBy", "Sort field is not sortable") {
			return q, c.violations
		}
	}

	if q.SortOrder == "" {
		q.SortOrder = DefaultSortOrder
	}
	if !oneOf(q.SortOrder, "asc", "desc") {
		if !c.add("sortOrder", "Sort order must be asc or desc") {
			return q, c.violations
		}
	}

	if q.Status != "" && !oneOf(q.Status, StatusActive, StatusInactive, StatusDraft) {
		if !c.add("status", "Status must be one of: ACTIVE, INACTIVE, DRAFT") {
			return q, c.violations
		}
	}

	return q, c.violations
}

// QueryFromValues parses URL query parameters and validates them. Numeric
// parse failures are reported as violations rather than silently dropped.
func QueryFromValues(values url.Values, mode Mode) (Query, Violations) {
	c := &collector{mode: mode}
	var q Query

	if s := values.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			if !c.add("page", "Page must be a number") {
				return q, c.violations
			}
		} else {
			q.Page = n
		}
	}
	if s := values.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			if !c.add("limit", "Limit must be a number") {
				return q, c.violations
			}
		} else {
			q.Limit = n
		}
	}
	q.SortBy = values.Get("sortBy")
	q.SortOrder = values.Get("sortOrder")
	q.Search = values.Get("search")
	q.Status = values.Get("status")

	q, vs := ValidateQuery(q, mode)
	c.violations = append(c.violations, vs...)
	return q, c.violations
}
