// Package catalog holds the merchant's product catalog: products, brands,
// categories, and recorded competitor price observations.
package catalog

import "time"

// Product is a catalog product tracked for repricing.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Price         float64   `json:"price"`
	Cost          float64   `json:"cost"`
	Stock         int       `json:"stock"`
	Margin        float64   `json:"margin"`
	Status        string    `json:"status"`
	CheapestColor string    `json:"cheapest_color"`
	BrandID       string    `json:"brand_id,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Brand groups products by manufacturer.
type Brand struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups products hierarchically.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceObservation is one recorded competitor price for a product.
type PriceObservation struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	CompetitorID string    `json:"competitor_id"`
	Price        float64   `json:"price"`
	RecordedAt   time.Time `json:"recorded_at"`
}
