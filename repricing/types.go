package repricing

import "time"

// Comparison sources for the pricing step.
const (
	CompareCheapest = "cheapest"
	CompareAverage  = "average"
	CompareHighest  = "highest"
)

// Adjustment directions.
const (
	DirectionBelow = "below"
	DirectionAbove = "above"
)

// Adjustment types.
const (
	AdjustPercent = "percent"
	AdjustFixed   = "fixed"
)

// Stop condition types.
const (
	StopTypePrice = "price"
	StopTypeNone  = "none"
)

// Min/max derivation types.
const (
	MinMaxManual = "manual"
	MinMaxMarkup = "markup"
	MinMaxCost   = "cost"
	MinMaxPrice  = "price"
	MinMaxMAP    = "map"
)

// Product scope types.
const (
	ScopeAll        = "all"
	ScopeCategories = "categories"
	ScopeSpecific   = "specific"
)

// Export formats.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// Pricing describes how the target price is derived from competitor prices.
type Pricing struct {
	ComparisonSource string  `json:"comparison_source"`
	Direction        string  `json:"direction"`
	AdjustmentType   string  `json:"adjustment_type"`
	SetPrice         float64 `json:"set_price"`
}

// StopCondition halts repricing once a price boundary is reached. Filter is
// an optional CEL expression selecting which products the condition governs.
type StopCondition struct {
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Filter string  `json:"filter,omitempty"`
}

// MinMax bounds how far automated repricing may move a price. Only enforced
// while the stop condition is price-typed; the value is retained otherwise.
type MinMax struct {
	Type string  `json:"type"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ProductScope selects which products a rule applies to.
type ProductScope struct {
	Type       string   `json:"type"`
	Categories []string `json:"categories,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

// AutomationOptions configures when autopilot fires.
type AutomationOptions struct {
	AutopilotAfterImport    bool   `json:"autopilot_after_import"`
	AutopilotFixedTime      bool   `json:"autopilot_fixed_time"`
	AutopilotFixedTimeValue string `json:"autopilot_fixed_time_value,omitempty"`
}

// Automations holds the autopilot schedule/trigger configuration.
type Automations struct {
	Autopilot bool              `json:"autopilot"`
	Options   AutomationOptions `json:"options"`
}

// CalculatedPriceAdjustment is a post-adjustment transform applied on top of
// the comparison-derived price.
type CalculatedPriceAdjustment struct {
	Enabled   bool    `json:"enabled"`
	Direction string  `json:"direction"`
	Value     float64 `json:"value"`
	Type      string  `json:"type"`
}

// Options holds post-adjustment transforms for the computed price.
type Options struct {
	AdjustCalculatedPrice CalculatedPriceAdjustment `json:"adjust_calculated_price"`
	RoundingPrice         bool                      `json:"rounding_price"`
	RoundingPriceOptions  string                    `json:"rounding_price_options,omitempty"`
}

// ExportSettings configures result export and email notification.
type ExportSettings struct {
	Enabled           bool   `json:"enabled"`
	Format            string `json:"format"`
	EmailNotification bool   `json:"email_notification"`
	EmailAddress      string `json:"email_address,omitempty"`
}

// Rule is a persisted repricing configuration. Competitors holds the IDs of
// the competitors the rule compares against; it is always the projection of
// the enabled competitors at edit time, never maintained by hand.
type Rule struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Pricing        Pricing        `json:"pricing"`
	Competitors    []string       `json:"competitors"`
	StopCondition  StopCondition  `json:"stop_condition"`
	MinMaxPrice    MinMax         `json:"min_max_price"`
	Products       ProductScope   `json:"products"`
	Automations    Automations    `json:"automations"`
	Options        Options        `json:"options"`
	ExportSettings ExportSettings `json:"export_settings"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Competitor is a tracked competitor shop. Competitors are referenced from
// rules by ID; the rule never owns them.
type Competitor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	LastChecked time.Time `json:"last_checked"`
	Enabled     bool      `json:"enabled"`
	Avatar      string    `json:"avatar,omitempty"`
}

// DefaultRule returns the starting value for a freshly created rule.
func DefaultRule() Rule {
	return Rule{
		Name: "",
		Pricing: Pricing{
			ComparisonSource: CompareCheapest,
			Direction:        DirectionBelow,
			AdjustmentType:   AdjustPercent,
			SetPrice:         0,
		},
		Competitors: []string{},
		StopCondition: StopCondition{
			Type: StopTypeNone,
		},
		MinMaxPrice: MinMax{
			Type: MinMaxManual,
		},
		Products: ProductScope{
			Type: ScopeAll,
		},
		Automations: Automations{
			Autopilot: false,
		},
		Options: Options{
			AdjustCalculatedPrice: CalculatedPriceAdjustment{
				Direction: DirectionAbove,
				Type:      AdjustPercent,
			},
		},
		ExportSettings: ExportSettings{
			Format: ExportCSV,
		},
		Active: true,
	}
}

// EnabledCompetitorIDs projects the enabled competitors to their ID list.
// Rule.Competitors is recomputed through this single projection whenever
// competitor state changes, so every caller derives membership the same way.
func EnabledCompetitorIDs(competitors []Competitor) []string {
	ids := make([]string, 0, len(competitors))
	for _, c := range competitors {
		if c.Enabled {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Clone returns a deep copy of the rule. Slice-valued fields are copied so
// the result can be modified without aliasing the receiver; an empty
// non-nil slice stays non-nil so it still marshals as [].
func (r Rule) Clone() Rule {
	out := r
	out.Competitors = copyStrings(r.Competitors)
	out.Products.Categories = copyStrings(r.Products.Categories)
	out.Products.ProductIDs = copyStrings(r.Products.ProductIDs)
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
