package schema

import "net/url"

// Product statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusDraft    = "DRAFT"
)

// Cheapest-indicator colors shown on the product grid.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"
)

// ProductInput is the create-product payload.
type ProductInput struct {
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Price         float64 `json:"price"`
	Cost          float64 `json:"cost"`
	Stock         int     `json:"stock"`
	Margin        float64 `json:"margin"`
	Status        string  `json:"status"`
	CheapestColor string  `json:"cheapest_color"`
	BrandID       string  `json:"brand_id,omitempty"`
	CategoryID    string  `json:"category_id,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
}

// ValidateProduct validates a create-product payload and applies enum
// defaults in place (status, cheapest color).
func ValidateProduct(in *ProductInput, mode Mode) Violations {
	c := &collector{mode: mode}

	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.CheapestColor == "" {
		in.CheapestColor = ColorGray
	}

	if blank(in.Name) {
		if !c.add("name", "Product name is required") {
			return c.violations
		}
	}
	if in.Price <= 0 {
		if !c.add("price", "Price must be positive") {
			return c.violations
		}
	}
	if in.Cost < 0 {
		if !c.add("cost", "Cost cannot be negative") {
			return c.violations
		}
	}
	if in.Stock < 0 {
		if !c.add("stock", "Stock cannot be negative") {
			return c.violations
		}
	}
	if in.Margin < 0 || in.Margin > 100 {
		if !c.add("margin", "Margin must be between 0 and 100") {
			return c.violations
		}
	}
	if !oneOf(in.Status, StatusActive, StatusInactive, StatusDraft) {
		if !c.add("status", "Status must be one of: ACTIVE, INACTIVE, DRAFT") {
			return c.violations
		}
	}
	if !oneOf(in.CheapestColor, ColorGreen, ColorYellow, ColorRed, ColorGray) {
		if !c.add("cheapest_color", "Cheapest color must be one of: green, yellow, red, gray") {
			return c.violations
		}
	}

	return c.violations
}

// ProductUpdate carries the optional fields of a product update. Nil means
// "leave unchanged".
type ProductUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Cost          *float64 `json:"cost,omitempty"`
	Stock         *int     `json:"stock,omitempty"`
	Margin        *float64 `json:"margin,omitempty"`
	Status        *string  `json:"status,omitempty"`
	CheapestColor *string  `json:"cheapest_color,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Price == nil && u.Cost == nil && u.Stock == nil &&
		u.Margin == nil && u.Status == nil && u.CheapestColor == nil
}

func validateProductUpdate(c *collector, u ProductUpdate) {
	if u.Name != nil && blank(*u.Name) {
		if !c.add("name", "Product name is required") {
			return
		}
	}
	if u.Price != nil && *u.Price <= 0 {
		if !c.add("price", "Price must be positive") {
			return
		}
	}
	if u.Stock != nil && *u.Stock < 0 {
		if !c.add("stock", "Stock cannot be negative") {
			return
		}
	}
	if u.Margin != nil && (*u.Margin < 0 || *u.Margin > 100) {
		if !c.add("margin", "Margin must be between 0 and 100") {
			return
		}
	}
	if u.Status != nil && !oneOf(*u.Status, StatusActive, StatusInactive, StatusDraft) {
		if !c.add("status", "Status must be one of: ACTIVE, INACTIVE, DRAFT") {
			return
		}
	}
	if u.CheapestColor != nil && !oneOf(*u.CheapestColor, ColorGreen, ColorYellow, ColorRed, ColorGray) {
		if !c.add("cheapest_color", "Cheapest color must be one of: green, yellow, red, gray") {
			return
		}
	}
}

// UpdateProductInput is the single-product update payload: every field
// optional except the identifier.
type UpdateProductInput struct {
	ID      string        `json:"id"`
	Updates ProductUpdate `json:"updates"`
}

// ValidateUpdateProduct validates a single-product update.
func ValidateUpdateProduct(in UpdateProductInput, mode Mode) Violations {
	c := &collector{mode: mode}

	if blank(in.ID) {
		if !c.add("id", "Product ID is required") {
			return c.violations
		}
	}
	validateProductUpdate(c, in.Updates)
	return c.violations
}

// BulkUpdateInput is the bulk-update payload: a non-empty ID list plus at
// least one field to change.
type BulkUpdateInput struct {
	ProductIDs []string      `json:"product_ids"`
	Updates    ProductUpdate `json:"updates"`
}

// ValidateBulkUpdate validates a bulk product update.
func ValidateBulkUpdate(in BulkUpdateInput, mode Mode) Violations {
	c := &collector{mode: mode}

	if len(in.ProductIDs) == 0 {
		if !c.add("product_ids", "At least one product ID required") {
			return c.violations
		}
	}
	if in.Updates.IsEmpty() {
		if !c.add("updates", "At least one field to update required") {
			return c.violations
		}
	}
	validateProductUpdate(c, in.Updates)
	return c.violations
}

// BrandInput is the create/update brand payload.
type BrandInput struct {
	Name string `json:"name"`
}

// ValidateBrand validates a brand payload.
func ValidateBrand(in BrandInput, mode Mode) Violations {
	c := &collector{mode: mode}
	if blank(in.Name) {
		c.add("name", "Brand name is required")
	}
	return c.violations
}

// CategoryInput is the create/update category payload.
type CategoryInput struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// ValidateCategory validates a category payload.
func ValidateCategory(in CategoryInput, mode Mode) Violations {
	c := &collector{mode: mode}
	if blank(in.Name) {
		c.add("name", "Category name is required")
	}
	return c.violations
}

// CompetitorInput is the create/update competitor payload.
type CompetitorInput struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
	Avatar  string `json:"avatar,omitempty"`
}

// ValidateCompetitor validates a competitor payload.
func ValidateCompetitor(in CompetitorInput, mode Mode) Violations {
	c := &collector{mode: mode}

	if blank(in.Name) {
		if !c.add("name", "Competitor name is required") {
			return c.violations
		}
	}
	if blank(in.URL) {
		if !c.add("url", "Competitor URL is required") {
			return c.violations
		}
	} else if u, err := url.Parse(in.URL); err != nil || u.Scheme == "" || u.Host == "" {
		if !c.add("url", "Competitor URL must be a valid URL") {
			return c.violations
		}
	}
	return c.violations
}

// PriceHistoryInput is a recorded competitor price observation.
type PriceHistoryInput struct {
	ProductID    string  `json:"product_id"`
	CompetitorID string  `json:"competitor_id"`
	Price        float64 `json:"price"`
	RecordedAt   string  `json:"recorded_at"`
}

// ValidatePriceHistory validates a price observation payload.
func ValidatePriceHistory(in PriceHistoryInput, mode Mode) Violations {
	c := &collector{mode: mode}

	if blank(in.ProductID) {
		if !c.add("product_id", "Product ID is required") {
			return c.violations
		}
	}
	if blank(in.CompetitorID) {
		if !c.add("competitor_id", "Competitor ID is required") {
			return c.violations
		}
	}
	if in.Price <= 0 {
		if !c.add("price", "Price must be positive") {
			return c.violations
		}
	}
	if blank(in.RecordedAt) {
		if !c.add("recorded_at", "Recorded time is required") {
			return c.violations
		}
	}
	return c.violations
}
