package schema

import (
	"fmt"
	"regexp"

	"github.com/pricefy/repricing/repricing"
)

var fixedTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidateRule checks a repricing rule against the submit-time invariants.
// Min/max bounds are only enforced while the stop condition is price-typed;
// the email address is only required while export and notification are both
// enabled. Disabled slices keep their last value and are skipped, never
// reset.
func ValidateRule(r repricing.Rule, mode Mode) Violations {
	c := &collector{mode: mode}

	if blank(r.Name) {
		if !c.add("name", "Rule name is required") {
			return c.violations
		}
	}

	if r.Pricing.SetPrice <= 0 {
		if !c.add("pricing.set_price", "Price must be positive") {
			return c.violations
		}
	}
	if !oneOf(r.Pricing.ComparisonSource,
		repricing.CompareCheapest, repricing.CompareAverage, repricing.CompareHighest) {
		if !c.add("pricing.comparison_source", "Comparison source must be one of: cheapest, average, highest") {
			return c.violations
		}
	}
	if !oneOf(r.Pricing.Direction, repricing.DirectionBelow, repricing.DirectionAbove) {
		if !c.add("pricing.direction", "Direction must be below or above") {
			return c.violations
		}
	}
	if !oneOf(r.Pricing.AdjustmentType, repricing.AdjustPercent, repricing.AdjustFixed) {
		if !c.add("pricing.adjustment_type", "Adjustment type must be percent or fixed") {
			return c.violations
		}
	}

	if !oneOf(r.StopCondition.Type, repricing.StopTypePrice, repricing.StopTypeNone) {
		if !c.add("stop_condition.type", "Stop condition type must be price or none") {
			return c.violations
		}
	}

	if r.StopCondition.Type == repricing.StopTypePrice {
		if !oneOf(r.MinMaxPrice.Type,
			repricing.MinMaxManual, repricing.MinMaxMarkup, repricing.MinMaxCost,
			repricing.MinMaxPrice, repricing.MinMaxMAP) {
			if !c.add("min_max_price.type", "Min/max type must be one of: manual, markup, cost, price, map") {
				return c.violations
			}
		}
		if r.MinMaxPrice.Min < 0 {
			if !c.add("min_max_price.min", "Min price cannot be negative") {
				return c.violations
			}
		}
		if r.MinMaxPrice.Max < 0 {
			if !c.add("min_max_price.max", "Max price cannot be negative") {
				return c.violations
			}
		}
		if r.MinMaxPrice.Min > 0 && r.MinMaxPrice.Max > 0 && r.MinMaxPrice.Min > r.MinMaxPrice.Max {
			if !c.add("min_max_price.min", "Min price cannot exceed max price") {
				return c.violations
			}
		}
	}

	if !oneOf(r.Products.Type,
		repricing.ScopeAll, repricing.ScopeCategories, repricing.ScopeSpecific) {
		if !c.add("products.type", "Product scope must be one of: all, categories, specific") {
			return c.violations
		}
	}
	if r.Products.Type == repricing.ScopeCategories && len(r.Products.Categories) == 0 {
		if !c.add("products.categories", "At least one category is required") {
			return c.violations
		}
	}
	if r.Products.Type == repricing.ScopeSpecific && len(r.Products.ProductIDs) == 0 {
		if !c.add("products.product_ids", "At least one product is required") {
			return c.violations
		}
	}

	if r.Automations.Autopilot && r.Automations.Options.AutopilotFixedTime {
		if !fixedTimePattern.MatchString(r.Automations.Options.AutopilotFixedTimeValue) {
			if !c.add("automations.options.autopilot_fixed_time_value",
				fmt.Sprintf("Fixed time must be HH:MM, got %q", r.Automations.Options.AutopilotFixedTimeValue)) {
				return c.violations
			}
		}
	}

	if !oneOf(r.ExportSettings.Format, repricing.ExportCSV, repricing.ExportXLSX) {
		if !c.add("export_settings.format", "Export format must be csv or xlsx") {
			return c.violations
		}
	}
	if r.ExportSettings.Enabled && r.ExportSettings.EmailNotification {
		if !ValidEmail(r.ExportSettings.EmailAddress) {
			if !c.add("export_settings.email_address", "A valid email address is required") {
				return c.violations
			}
		}
	}

	return c.violations
}
