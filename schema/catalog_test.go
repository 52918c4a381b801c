package schema

import "testing"

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func TestValidateProduct_AppliesDefaults(t *testing.T) {
	in := ProductInput{Name: "Sneaker", Price: 79.90}

	vs := ValidateProduct(&in, CollectAll)
	if !vs.OK() {
		t.Fatalf("Expected valid product, got %v", vs)
	}
	if in.Status != StatusActive {
		t.Errorf("Expected default status %s, got %s", StatusActive, in.Status)
	}
	if in.CheapestColor != ColorGray {
		t.Errorf("Expected default color %s, got %s", ColorGray, in.CheapestColor)
	}
}

func TestValidateProduct_Violations(t *testing.T) {
	in := ProductInput{
		Name:   "  ",
		Price:  0,
		Cost:   -1,
		Stock:  -2,
		Margin: 120,
	}

	vs := ValidateProduct(&in, CollectAll)
	m := vs.FieldMap()
	if m["name"] != "Product name is required" {
		t.Errorf("Expected name violation, got %v", vs)
	}
	if m["price"] != "Price must be positive" {
		t.Errorf("Expected price violation, got %v", vs)
	}
	if m["cost"] != "Cost cannot be negative" {
		t.Errorf("Expected cost violation, got %v", vs)
	}
	if m["stock"] != "Stock cannot be negative" {
		t.Errorf("Expected stock violation, got %v", vs)
	}
	if m["margin"] != "Margin must be between 0 and 100" {
		t.Errorf("Expected margin violation, got %v", vs)
	}
}

func TestValidateBulkUpdate_ExactMessages(t *testing.T) {
	// No IDs, no fields: both messages, in composition order.
	vs := ValidateBulkUpdate(BulkUpdateInput{}, CollectAll)
	m := vs.FieldMap()
	if m["product_ids"] != "At least one product ID required" {
		t.Errorf("Expected product IDs message, got %v", vs)
	}
	if m["updates"] != "At least one field to update required" {
		t.Errorf("Expected updates message, got %v", vs)
	}

	// Fail-fast reports only the first.
	vs = ValidateBulkUpdate(BulkUpdateInput{}, FailFast)
	if len(vs) != 1 || vs[0].Message != "At least one product ID required" {
		t.Errorf("Expected single product IDs violation, got %v", vs)
	}
}

func TestValidateBulkUpdate_Valid(t *testing.T) {
	in := BulkUpdateInput{
		ProductIDs: []string{"p1", "p2"},
		Updates:    ProductUpdate{Status: strPtr(StatusInactive)},
	}
	if vs := ValidateBulkUpdate(in, CollectAll); !vs.OK() {
		t.Errorf("Expected valid bulk update, got %v", vs)
	}
}

func TestValidateBulkUpdate_FieldChecks(t *testing.T) {
	in := BulkUpdateInput{
		ProductIDs: []string{"p1"},
		Updates: ProductUpdate{
			Price:  floatPtr(-1),
			Stock:  intPtr(-5),
			Status: strPtr("ARCHIVED"),
		},
	}
	vs := ValidateBulkUpdate(in, CollectAll)
	m := vs.FieldMap()
	if m["price"] != "Price must be positive" {
		t.Errorf("Expected price violation, got %v", vs)
	}
	if m["stock"] != "Stock cannot be negative" {
		t.Errorf("Expected stock violation, got %v", vs)
	}
	if _, ok := m["status"]; !ok {
		t.Errorf("Expected status violation, got %v", vs)
	}
}

func TestProductUpdate_IsEmpty(t *testing.T) {
	if !(ProductUpdate{}).IsEmpty() {
		t.Error("Expected zero update to be empty")
	}
	if (ProductUpdate{Name: strPtr("x")}).IsEmpty() {
		t.Error("Expected update with a set field to be non-empty")
	}
}

func TestValidateUpdateProduct(t *testing.T) {
	vs := ValidateUpdateProduct(UpdateProductInput{}, CollectAll)
	if vs.FieldMap()["id"] != "Product ID is required" {
		t.Errorf("Expected ID violation, got %v", vs)
	}

	in := UpdateProductInput{ID: "p1", Updates: ProductUpdate{Name: strPtr("  ")}}
	vs = ValidateUpdateProduct(in, CollectAll)
	if vs.FieldMap()["name"] != "Product name is required" {
		t.Errorf("Expected name violation, got %v", vs)
	}

	// An empty update set is allowed for single-product updates; only the
	// bulk schema requires at least one field.
	if vs := ValidateUpdateProduct(UpdateProductInput{ID: "p1"}, CollectAll); !vs.OK() {
		t.Errorf("Expected empty single update to pass, got %v", vs)
	}
}

func TestValidateCompetitor(t *testing.T) {
	valid := CompetitorInput{Name: "Shop A", URL: "https://shopa.example.com"}
	if vs := ValidateCompetitor(valid, CollectAll); !vs.OK() {
		t.Errorf("Expected valid competitor, got %v", vs)
	}

	vs := ValidateCompetitor(CompetitorInput{URL: "not a url"}, CollectAll)
	m := vs.FieldMap()
	if m["name"] != "Competitor name is required" {
		t.Errorf("Expected name violation, got %v", vs)
	}
	if m["url"] != "Competitor URL must be a valid URL" {
		t.Errorf("Expected URL violation, got %v", vs)
	}

	vs = ValidateCompetitor(CompetitorInput{Name: "Shop"}, CollectAll)
	if vs.FieldMap()["url"] != "Competitor URL is required" {
		t.Errorf("Expected URL-required violation, got %v", vs)
	}
}

func TestValidateBrandAndCategory(t *testing.T) {
	if vs := ValidateBrand(BrandInput{}, CollectAll); vs.FieldMap()["name"] != "Brand name is required" {
		t.Errorf("Expected brand name violation, got %v", vs)
	}
	if vs := ValidateBrand(BrandInput{Name: "Nike"}, CollectAll); !vs.OK() {
		t.Errorf("Expected valid brand, got %v", vs)
	}

	if vs := ValidateCategory(CategoryInput{}, CollectAll); vs.FieldMap()["name"] != "Category name is required" {
		t.Errorf("Expected category name violation, got %v", vs)
	}
}

func TestValidatePriceHistory(t *testing.T) {
	valid := PriceHistoryInput{
		ProductID:    "p1",
		CompetitorID: "c1",
		Price:        19.90,
		RecordedAt:   "2026-08-30T10:00:00Z",
	}
	if vs := ValidatePriceHistory(valid, CollectAll); !vs.OK() {
		t.Errorf("Expected valid observation, got %v", vs)
	}

	vs := ValidatePriceHistory(PriceHistoryInput{Price: -1}, CollectAll)
	if len(vs) != 4 {
		t.Errorf("Expected 4 violations, got %d: %v", len(vs), vs)
	}
}
