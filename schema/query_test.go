package schema

import (
	"net/url"
	"testing"
)

func TestValidateQuery_Defaults(t *testing.T) {
	q, vs := ValidateQuery(Query{}, CollectAll)
	if !vs.OK() {
		t.Fatalf("Expected empty query to validate, got %v", vs)
	}

	if q.Page != DefaultPage {
		t.Errorf("Expected default page %d, got %d", DefaultPage, q.Page)
	}
	if q.Limit != DefaultLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultLimit, q.Limit)
	}
	if q.SortBy != DefaultSortBy {
		t.Errorf("Expected default sortBy '%s', got '%s'", DefaultSortBy, q.SortBy)
	}
	if q.SortOrder != DefaultSortOrder {
		t.Errorf("Expected default sortOrder '%s', got '%s'", DefaultSortOrder, q.SortOrder)
	}
}

func TestValidateQuery_LimitCappedSilently(t *testing.T) {
	q, vs := ValidateQuery(Query{Limit: 500}, CollectAll)
	if !vs.OK() {
		t.Fatalf("Expected oversized limit to be capped, not rejected: %v", vs)
	}
	if q.Limit != MaxLimit {
		t.Errorf("Expected limit capped at %d, got %d", MaxLimit, q.Limit)
	}
}

func TestValidateQuery_Violations(t *testing.T) {
	_, vs := ValidateQuery(Query{Page: -1, Limit: -1, SortBy: "weight", SortOrder: "sideways"}, CollectAll)
	m := vs.FieldMap()

	if m["page"] != "Page must be positive" {
		t.Errorf("Expected page violation, got %v", vs)
	}
	if m["limit"] != "Limit must be positive" {
		t.Errorf("Expected limit violation, got %v", vs)
	}
	if m["sortBy"] != "Sort field is not sortable" {
		t.Errorf("Expected sortBy violation, got %v", vs)
	}
	if m["sortOrder"] != "Sort order must be asc or desc" {
		t.Errorf("Expected sortOrder violation, got %v", vs)
	}
}

func TestValidateQuery_StatusFilter(t *testing.T) {
	if _, vs := ValidateQuery(Query{Status: StatusDraft}, CollectAll); !vs.OK() {
		t.Errorf("Expected DRAFT status to be accepted, got %v", vs)
	}
	_, vs := ValidateQuery(Query{Status: "archived"}, CollectAll)
	if _, ok := vs.FieldMap()["status"]; !ok {
		t.Errorf("Expected status violation, got %v", vs)
	}
}

func TestQueryFromValues(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("limit", "25")
	values.Set("sortBy", "price")
	values.Set("sortOrder", "asc")
	values.Set("search", "sneaker")
	values.Set("status", "ACTIVE")

	q, vs := QueryFromValues(values, CollectAll)
	if !vs.OK() {
		t.Fatalf("Expected valid query, got %v", vs)
	}
	if q.Page != 3 || q.Limit != 25 || q.SortBy != "price" || q.SortOrder != "asc" {
		t.Errorf("Unexpected parsed query: %+v", q)
	}
	if q.Search != "sneaker" || q.Status != "ACTIVE" {
		t.Errorf("Unexpected filter fields: %+v", q)
	}
}

func TestQueryFromValues_ParseFailures(t *testing.T) {
	values := url.Values{}
	values.Set("page", "abc")
	values.Set("limit", "1.5")

	_, vs := QueryFromValues(values, CollectAll)
	m := vs.FieldMap()
	if m["page"] != "Page must be a number" {
		t.Errorf("Expected page parse violation, got %v", vs)
	}
	if m["limit"] != "Limit must be a number" {
		t.Errorf("Expected limit parse violation, got %v", vs)
	}
}

func TestQueryFromValues_EmptyGetsDefaults(t *testing.T) {
	q, vs := QueryFromValues(url.Values{}, CollectAll)
	if !vs.OK() {
		t.Fatalf("Expected empty values to validate, got %v", vs)
	}
	if q.Page != 1 || q.Limit != 10 || q.SortBy != "createdAt" || q.SortOrder != "desc" {
		t.Errorf("Expected defaults, got %+v", q)
	}
}
