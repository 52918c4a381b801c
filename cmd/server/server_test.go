package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pricefy/repricing/catalog"
	"github.com/pricefy/repricing/repricing"
	"github.com/pricefy/repricing/rulesession"
	"github.com/pricefy/repricing/schema"
)

func newTestServer(t *testing.T) (*Server, *repricing.InMemoryCompetitorStore, *catalog.InMemoryProductStore) {
	t.Helper()

	engine, err := repricing.NewEngine(repricing.NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	competitors := repricing.NewInMemoryCompetitorStore()
	products := catalog.NewInMemoryProductStore()
	return NewServer(engine, competitors, products, nil, time.Minute), competitors, products
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func validRulePayload() repricing.Rule {
	r := repricing.DefaultRule()
	r.Name = "Beat cheapest by 5%"
	r.Pricing.SetPrice = 5
	return r
}

func TestHealthEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateRule(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules", validRulePayload())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	created := decode[repricing.Rule](t, w)
	if created.ID == "" {
		t.Error("Expected server-assigned rule ID")
	}
	if created.Name != "Beat cheapest by 5%" {
		t.Errorf("Expected rule name echoed back, got '%s'", created.Name)
	}

	// The rule is retrievable.
	w = doJSON(t, s, http.MethodGet, "/api/v1/repricing/rules/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestCreateRule_ValidationFailure(t *testing.T) {
	s, _, _ := newTestServer(t)

	invalid := validRulePayload()
	invalid.Name = ""
	invalid.Pricing.SetPrice = 0

	w := doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules", invalid)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[ErrorResponse](t, w)
	if resp.Fields["name"] != "Rule name is required" {
		t.Errorf("Expected name field error, got %v", resp.Fields)
	}
	if resp.Fields["pricing.set_price"] != "Price must be positive" {
		t.Errorf("Expected price field error, got %v", resp.Fields)
	}

	// Nothing was persisted.
	w = doJSON(t, s, http.MethodGet, "/api/v1/repricing/rules", nil)
	list := decode[RulesListResponse](t, w)
	if len(list.Rules) != 0 {
		t.Errorf("Expected no rules persisted, got %d", len(list.Rules))
	}
}

func TestCreateRule_BadFilter(t *testing.T) {
	s, _, _ := newTestServer(t)

	rule := validRulePayload()
	rule.StopCondition = repricing.StopCondition{
		Type:   repricing.StopTypePrice,
		Value:  10,
		Filter: "Product.Price >", // syntax error
	}

	w := doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules", rule)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid filter, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateAndDeleteRule(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules", validRulePayload())
	created := decode[repricing.Rule](t, w)

	created.Name = "renamed"
	w = doJSON(t, s, http.MethodPut, "/api/v1/repricing/rules/"+created.ID, created)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decode[repricing.Rule](t, w)
	if updated.Name != "renamed" {
		t.Errorf("Expected updated name, got '%s'", updated.Name)
	}

	// Updating a missing rule is a 404.
	ghost := validRulePayload()
	w = doJSON(t, s, http.MethodPut, "/api/v1/repricing/rules/ghost", ghost)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing rule, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/v1/repricing/rules/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/repricing/rules/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestPreviewEndpoint_InlineRule(t *testing.T) {
	s, _, _ := newTestServer(t)

	rule := validRulePayload()
	rule.Pricing.SetPrice = 10
	rule.Competitors = []string{"c1", "c2"}

	req := PreviewRequest{
		Rule: &rule,
		Products: []repricing.PreviewInput{
			{
				ProductID:    "p1",
				CurrentPrice: 95,
				CompetitorPrices: map[string]float64{
					"c1": 100,
					"c2": 80,
				},
			},
		},
	}

	w := doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules/preview", req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[PreviewResponse](t, w)
	if len(resp.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(resp.Results))
	}
	// 10% below the cheapest competitor price of 80.
	if resp.Results[0].TargetPrice != 72 {
		t.Errorf("Expected target price 72, got %v", resp.Results[0].TargetPrice)
	}
}

func TestPreviewEndpoint_StoredRule(t *testing.T) {
	s, _, _ := newTestServer(t)

	rule := validRulePayload()
	rule.Competitors = []string{"c1"}
	w := doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules", rule)
	created := decode[repricing.Rule](t, w)

	req := PreviewRequest{
		RuleID: created.ID,
		Products: []repricing.PreviewInput{
			{ProductID: "p1", CurrentPrice: 50, CompetitorPrices: map[string]float64{"c1": 40}},
		},
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules/preview", req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Missing ruleId and rule is a 400.
	w = doJSON(t, s, http.MethodPost, "/api/v1/repricing/rules/preview", PreviewRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without rule or ruleId, got %d", w.Code)
	}
}

func TestCompetitorEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/competitors", schema.CompetitorInput{
		Name: "Shop A",
		URL:  "https://shopa.example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[repricing.Competitor](t, w)
	if created.ID == "" {
		t.Error("Expected server-assigned competitor ID")
	}

	// Invalid URL fails validation.
	w = doJSON(t, s, http.MethodPost, "/api/v1/competitors", schema.CompetitorInput{
		Name: "Bad", URL: "not a url",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid URL, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/competitors/"+created.ID, schema.CompetitorInput{
		Name: "Shop A", URL: "https://shopa.example.com", Enabled: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decode[repricing.Competitor](t, w)
	if !updated.Enabled {
		t.Error("Expected competitor enabled after update")
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/competitors", nil)
	list := decode[CompetitorsListResponse](t, w)
	if len(list.Competitors) != 1 {
		t.Errorf("Expected 1 competitor, got %d", len(list.Competitors))
	}

	w = doJSON(t, s, http.MethodDelete, "/api/v1/competitors/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
}

func TestProductListDefaults(t *testing.T) {
	s, _, products := newTestServer(t)

	for i := 1; i <= 15; i++ {
		p := &catalog.Product{
			ID:     fmt.Sprintf("p%d", i),
			Name:   fmt.Sprintf("Product %02d", i),
			Price:  float64(i),
			Status: schema.StatusActive,
		}
		if err := products.Add(p); err != nil {
			t.Fatalf("Failed to seed product: %v", err)
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[ProductsListResponse](t, w)
	if resp.Page != 1 || resp.Limit != 10 {
		t.Errorf("Expected default page 1 limit 10, got page=%d limit=%d", resp.Page, resp.Limit)
	}
	if resp.Total != 15 {
		t.Errorf("Expected total 15, got %d", resp.Total)
	}
	if len(resp.Products) != 10 {
		t.Errorf("Expected 10 products on the default page, got %d", len(resp.Products))
	}

	// Oversized limit is capped, not rejected.
	w = doJSON(t, s, http.MethodGet, "/api/v1/products?limit=5000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp = decode[ProductsListResponse](t, w)
	if resp.Limit != schema.MaxLimit {
		t.Errorf("Expected limit capped at %d, got %d", schema.MaxLimit, resp.Limit)
	}

	// Bad sort field is a 400 with a field error.
	w = doJSON(t, s, http.MethodGet, "/api/v1/products?sortBy=weight", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsortable field, got %d", w.Code)
	}
}

func TestProductCRUDAndBulk(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/products", schema.ProductInput{
		Name:  "Sneaker",
		Price: 79.90,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[catalog.Product](t, w)
	if created.Status != schema.StatusActive {
		t.Errorf("Expected default status applied, got '%s'", created.Status)
	}

	// Single update.
	newName := "Runner"
	w = doJSON(t, s, http.MethodPut, "/api/v1/products/"+created.ID, schema.ProductUpdate{Name: &newName})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Bulk update with no IDs: exact message surfaced in the field map.
	status := schema.StatusInactive
	w = doJSON(t, s, http.MethodPost, "/api/v1/products/bulk", schema.BulkUpdateInput{
		Updates: schema.ProductUpdate{Status: &status},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	errResp := decode[ErrorResponse](t, w)
	if errResp.Fields["product_ids"] != "At least one product ID required" {
		t.Errorf("Expected product IDs message, got %v", errResp.Fields)
	}

	// Bulk update with no fields.
	w = doJSON(t, s, http.MethodPost, "/api/v1/products/bulk", schema.BulkUpdateInput{
		ProductIDs: []string{created.ID},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	errResp = decode[ErrorResponse](t, w)
	if errResp.Fields["updates"] != "At least one field to update required" {
		t.Errorf("Expected updates message, got %v", errResp.Fields)
	}

	// Valid bulk update.
	w = doJSON(t, s, http.MethodPost, "/api/v1/products/bulk", schema.BulkUpdateInput{
		ProductIDs: []string{created.ID, "ghost"},
		Updates:    schema.ProductUpdate{Status: &status},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	bulk := decode[BulkUpdateResponse](t, w)
	if bulk.Updated != 1 {
		t.Errorf("Expected 1 product updated (ghost skipped), got %d", bulk.Updated)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/v1/products/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestEditSessionOverHTTP(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	svc := rulesession.NewHTTPService(ts.URL, ts.Client())
	manager := rulesession.NewManager(svc)

	// An invalid form is rejected client-side before any request is made.
	_, session := manager.Open()
	if _, err := session.Save(context.Background()); !errors.Is(err, rulesession.ErrInvalid) {
		t.Fatalf("Expected ErrInvalid for empty form, got %v", err)
	}
	if session.Errors()["name"] == "" {
		t.Error("Expected a field error for the rule name")
	}

	session.Dispatch(repricing.SetName{Name: "Beat cheapest"})
	session.Dispatch(repricing.SetPricing{Pricing: repricing.Pricing{
		ComparisonSource: repricing.CompareCheapest,
		Direction:        repricing.DirectionBelow,
		AdjustmentType:   repricing.AdjustPercent,
		SetPrice:         5,
	}})

	dest, err := session.Save(context.Background())
	if err != nil {
		t.Fatalf("Failed to save over HTTP: %v", err)
	}
	if dest != rulesession.DestinationRules {
		t.Errorf("Expected destination %s, got %s", rulesession.DestinationRules, dest)
	}
	ruleID := session.Rule().ID
	if ruleID == "" {
		t.Fatal("Expected a server-assigned rule ID")
	}

	// A second session loads the persisted rule and updates it.
	sessionID, edit, err := manager.OpenExisting(context.Background(), ruleID)
	if err != nil {
		t.Fatalf("Failed to open edit session: %v", err)
	}
	if !edit.EditMode() {
		t.Error("Expected edit mode for a loaded rule")
	}
	edit.Dispatch(repricing.SetName{Name: "Beat cheapest v2"})
	if _, err := edit.SaveAndPreview(context.Background()); err != nil {
		t.Fatalf("Failed to update over HTTP: %v", err)
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/repricing/rules/"+ruleID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := decode[repricing.Rule](t, w); got.Name != "Beat cheapest v2" {
		t.Errorf("Expected updated name, got '%s'", got.Name)
	}

	if err := manager.Close(sessionID); err != nil {
		t.Fatalf("Failed to close session: %v", err)
	}
}
