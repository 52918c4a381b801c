package repricing

// Action is a tagged mutation of one rule slice. Each step editor produces
// exactly one action type carrying a fully-formed replacement for its slice,
// which keeps every form mutation auditable and replayable.
type Action interface {
	apply(Rule) Rule
}

// Apply returns a new rule with the action applied. The input is never
// mutated.
func Apply(r Rule, a Action) Rule {
	return a.apply(r.Clone())
}

// ApplyAll folds a sequence of actions over a rule.
func ApplyAll(r Rule, actions ...Action) Rule {
	out := r.Clone()
	for _, a := range actions {
		out = a.apply(out)
	}
	return out
}

// SetName replaces the rule name.
type SetName struct {
	Name string
}

func (a SetName) apply(r Rule) Rule {
	r.Name = a.Name
	return r
}

// SetPricing replaces the pricing configuration.
type SetPricing struct {
	Pricing Pricing
}

func (a SetPricing) apply(r Rule) Rule {
	r.Pricing = a.Pricing
	return r
}

// SetCompetitors replaces the competitor selection. The rule's competitor ID
// list is recomputed from the enabled flags, not taken from the caller.
type SetCompetitors struct {
	Competitors []Competitor
}

func (a SetCompetitors) apply(r Rule) Rule {
	r.Competitors = EnabledCompetitorIDs(a.Competitors)
	return r
}

// SetStopCondition replaces the stop condition. Toggling the type away from
// "price" does not reset the min/max slice.
type SetStopCondition struct {
	StopCondition StopCondition
}

func (a SetStopCondition) apply(r Rule) Rule {
	r.StopCondition = a.StopCondition
	return r
}

// SetMinMax replaces the min/max bounds.
type SetMinMax struct {
	MinMax MinMax
}

func (a SetMinMax) apply(r Rule) Rule {
	r.MinMaxPrice = a.MinMax
	return r
}

// SetProducts replaces the product scope.
type SetProducts struct {
	Products ProductScope
}

func (a SetProducts) apply(r Rule) Rule {
	r.Products = ProductScope{
		Type:       a.Products.Type,
		Categories: append([]string(nil), a.Products.Categories...),
		ProductIDs: append([]string(nil), a.Products.ProductIDs...),
	}
	return r
}

// SetAutomations replaces the automation configuration.
type SetAutomations struct {
	Automations Automations
}

func (a SetAutomations) apply(r Rule) Rule {
	r.Automations = a.Automations
	return r
}

// SetOptions replaces the post-adjustment options.
type SetOptions struct {
	Options Options
}

func (a SetOptions) apply(r Rule) Rule {
	r.Options = a.Options
	return r
}

// SetExportSettings replaces the export settings. Disabling export keeps the
// previous email address so re-enabling restores it.
type SetExportSettings struct {
	ExportSettings ExportSettings
}

func (a SetExportSettings) apply(r Rule) Rule {
	r.ExportSettings = a.ExportSettings
	return r
}
