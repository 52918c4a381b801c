package main

import (
	"github.com/pricefy/repricing/catalog"
	"github.com/pricefy/repricing/repricing"
)

// API request and response models.

// RulesListResponse is the payload for listing repricing rules.
type RulesListResponse struct {
	Rules []*repricing.Rule `json:"rules"`
}

// CompetitorsListResponse is the payload for listing competitors.
type CompetitorsListResponse struct {
	Competitors []*repricing.Competitor `json:"competitors"`
}

// ProductsListResponse is the paginated payload for listing products.
type ProductsListResponse struct {
	Products []*catalog.Product `json:"products"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
}

// PreviewRequest asks for a dry run of a rule over product snapshots.
// Either an inline rule (unsaved form state) or the ID of a stored rule
// is accepted.
type PreviewRequest struct {
	Rule     *repricing.Rule          `json:"rule,omitempty"`
	RuleID   string                   `json:"ruleId,omitempty"`
	Products []repricing.PreviewInput `json:"products"`
}

// PreviewResponse carries the computed prices for a preview run.
type PreviewResponse struct {
	Results        []*repricing.PreviewResult `json:"results"`
	EvaluationTime string                     `json:"evaluationTime"`
}

// BulkUpdateResponse reports how many products a bulk update touched.
type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// ErrorResponse is the error envelope. Fields carries a flat
// field-to-message map when validation fails.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
