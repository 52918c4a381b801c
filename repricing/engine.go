package repricing

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/google/cel-go/cel"
)

// Engine manages rule persistence plus the compiled stop-condition filters.
// A rule's filter is validated and compiled before any store mutation, so a
// rule that reaches the store always has a runnable filter (or none).
// Thread-safe for concurrent reads via RWMutex.
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled filter
	mu       sync.RWMutex
}

// NewEngine creates an engine with the default filter environment and an
// in-memory cache.
func NewEngine(store RuleStore) (*Engine, error) {
	return NewEngineWithCache(store, NewInMemoryRulesCache(DefaultCacheConfig()))
}

// NewEngineWithCache creates an engine with a caller-supplied cache
// implementation (e.g. Redis for multi-replica deployments).
func NewEngineWithCache(store RuleStore, cache RulesCache) (*Engine, error) {
	// Filters see the product under evaluation and the competitor snapshot
	// as dynamic values, e.g. `Product.Price > 20.0 && Product.Stock > 0`.
	env, err := cel.NewEnv(
		cel.Variable("Product", cel.DynType),
		cel.Variable("Competitors", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	en := &Engine{
		env:      env,
		store:    store,
		cache:    cache,
		programs: make(map[string]cel.Program),
	}

	if err := en.compileAll(); err != nil {
		return nil, fmt.Errorf("failed to compile rule filters: %w", err)
	}

	return en, nil
}

// CompileFilter compiles a stop-condition filter expression for a rule. An
// empty expression clears any previously compiled filter.
func (en *Engine) CompileFilter(ruleID, expression string) error {
	if expression == "" {
		en.mu.Lock()
		delete(en.programs, ruleID)
		en.mu.Unlock()
		return nil
	}

	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("filter compile error: %w", issues.Err())
	}

	// Cost limit prevents resource exhaustion from pathological expressions.
	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(1000000),
	)
	if err != nil {
		return fmt.Errorf("filter program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

func (en *Engine) compileAll() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := en.CompileFilter(rule.ID, rule.StopCondition.Filter); err != nil {
			return fmt.Errorf("failed to compile filter for rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(rules)
	return nil
}

// AddRule compiles the rule's filter and stores the rule. If the store
// rejects it the compiled filter is removed again, so programs never refer
// to rules that are not persisted.
func (en *Engine) AddRule(r *Rule) error {
	if _, err := en.store.Get(r.ID); err == nil {
		return fmt.Errorf("rule with ID %s %w", r.ID, ErrExists)
	}

	if err := en.CompileFilter(r.ID, r.StopCondition.Filter); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()
	return nil
}

// UpdateRule recompiles the filter and updates the stored rule.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := en.CompileFilter(r.ID, r.StopCondition.Filter); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.cache.Invalidate()
	return nil
}

// DeleteRule removes a rule from the store and its compiled filter.
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()
	return nil
}

// GetRule retrieves a rule by ID.
func (en *Engine) GetRule(id string) (*Rule, error) {
	return en.store.Get(id)
}

// ListRules returns all rules, newest first.
func (en *Engine) ListRules() ([]*Rule, error) {
	return en.store.List()
}

// ActiveRules returns the active rules, served from cache when possible.
func (en *Engine) ActiveRules() ([]*Rule, error) {
	rules := en.cache.Get()
	if rules == nil {
		var err error
		rules, err = en.store.ListActive()
		if err != nil {
			return nil, err
		}
		en.cache.Set(rules)
	}
	return rules, nil
}

// PreviewInput is one product's pricing facts for a preview run.
type PreviewInput struct {
	ProductID        string             `json:"product_id"`
	CurrentPrice     float64            `json:"current_price"`
	Cost             float64            `json:"cost"`
	Stock            int                `json:"stock"`
	CompetitorPrices map[string]float64 `json:"competitor_prices"` // competitorID -> price
}

// PreviewResult is the computed repricing outcome for one product.
type PreviewResult struct {
	ProductID      string  `json:"product_id"`
	CurrentPrice   float64 `json:"current_price"`
	ReferencePrice float64 `json:"reference_price"`
	TargetPrice    float64 `json:"target_price"`
	Stopped        bool    `json:"stopped"`
	Clamped        bool    `json:"clamped"`
	Skipped        bool    `json:"skipped"`
	Reason         string  `json:"reason,omitempty"`
}

// Preview computes the price the rule would set for one product without
// persisting anything. Used by Save & Preview and the preview endpoint.
func (en *Engine) Preview(rule *Rule, in PreviewInput) *PreviewResult {
	res := &PreviewResult{
		ProductID:    in.ProductID,
		CurrentPrice: in.CurrentPrice,
	}

	prices := selectedPrices(rule.Competitors, in.CompetitorPrices)
	if len(prices) == 0 {
		res.Skipped = true
		res.Reason = "no prices from selected competitors"
		res.TargetPrice = in.CurrentPrice
		return res
	}

	res.ReferencePrice = referencePrice(rule.Pricing.ComparisonSource, prices)
	target := adjust(res.ReferencePrice, rule.Pricing.Direction,
		rule.Pricing.AdjustmentType, rule.Pricing.SetPrice)

	if opt := rule.Options.AdjustCalculatedPrice; opt.Enabled {
		target = adjust(target, opt.Direction, opt.Type, opt.Value)
	}

	if rule.StopCondition.Type == StopTypePrice && en.filterMatches(rule, in) {
		target, res.Stopped = applyStop(target, rule.Pricing.Direction, rule.StopCondition.Value)

		lo, hi := resolveBounds(rule.MinMaxPrice, in)
		if clamped := clamp(target, lo, hi); clamped != target {
			target = clamped
			res.Clamped = true
		}
	}

	if rule.Options.RoundingPrice {
		target = roundPrice(target, rule.Options.RoundingPriceOptions)
	}

	res.TargetPrice = math.Round(target*100) / 100
	return res
}

// PreviewAll runs Preview over a batch of products.
func (en *Engine) PreviewAll(rule *Rule, inputs []PreviewInput) []*PreviewResult {
	results := make([]*PreviewResult, 0, len(inputs))
	for _, in := range inputs {
		results = append(results, en.Preview(rule, in))
	}
	return results
}

// filterMatches evaluates the rule's compiled stop-condition filter against
// the product facts. A missing filter matches everything; evaluation errors
// and non-boolean results are treated as no match, mirroring how rule
// evaluation degrades instead of failing the whole preview.
func (en *Engine) filterMatches(rule *Rule, in PreviewInput) bool {
	en.mu.RLock()
	prog, exists := en.programs[rule.ID]
	en.mu.RUnlock()

	if !exists {
		return rule.StopCondition.Filter == ""
	}

	facts := map[string]any{
		"Product": map[string]any{
			"ID":    in.ProductID,
			"Price": in.CurrentPrice,
			"Cost":  in.Cost,
			"Stock": in.Stock,
		},
		"Competitors": in.CompetitorPrices,
	}

	out, _, err := prog.Eval(facts)
	if err != nil {
		return false
	}

	matched, ok := out.Value().(bool)
	return ok && matched
}

func selectedPrices(competitorIDs []string, prices map[string]float64) []float64 {
	var out []float64
	for _, id := range competitorIDs {
		if p, ok := prices[id]; ok && p > 0 {
			out = append(out, p)
		}
	}
	return out
}

func referencePrice(source string, prices []float64) float64 {
	switch source {
	case CompareHighest:
		max := prices[0]
		for _, p := range prices[1:] {
			if p > max {
				max = p
			}
		}
		return max
	case CompareAverage:
		var sum float64
		for _, p := range prices {
			sum += p
		}
		return sum / float64(len(prices))
	default: // CompareCheapest
		min := prices[0]
		for _, p := range prices[1:] {
			if p < min {
				min = p
			}
		}
		return min
	}
}

func adjust(base float64, direction, adjustmentType string, value float64) float64 {
	var delta float64
	if adjustmentType == AdjustFixed {
		delta = value
	} else {
		delta = base * value / 100
	}
	if direction == DirectionAbove {
		return base + delta
	}
	return base - delta
}

// applyStop halts the adjustment at the stop boundary. A below-directed rule
// stops falling once it reaches the boundary; an above-directed rule stops
// climbing.
func applyStop(target float64, direction string, boundary float64) (float64, bool) {
	if boundary <= 0 {
		return target, false
	}
	if direction == DirectionAbove {
		if target > boundary {
			return boundary, true
		}
		return target, false
	}
	if target < boundary {
		return boundary, true
	}
	return target, false
}

func resolveBounds(mm MinMax, in PreviewInput) (float64, float64) {
	switch mm.Type {
	case MinMaxMarkup, MinMaxCost:
		// Percent bounds over product cost.
		return boundOrZero(in.Cost, mm.Min), boundOrZero(in.Cost, mm.Max)
	case MinMaxPrice:
		// Percent bounds over the current price.
		return boundOrZero(in.CurrentPrice, mm.Min), boundOrZero(in.CurrentPrice, mm.Max)
	case MinMaxMAP:
		// MAP is a hard floor; Max still applies when set.
		return mm.Min, mm.Max
	default: // MinMaxManual
		return mm.Min, mm.Max
	}
}

func boundOrZero(base, pct float64) float64 {
	if pct == 0 {
		return 0
	}
	return base * (1 + pct/100)
}

// clamp bounds target into [lo, hi]; zero bounds are treated as unset.
func clamp(target, lo, hi float64) float64 {
	if lo > 0 && target < lo {
		return lo
	}
	if hi > 0 && target > hi {
		return hi
	}
	return target
}

// roundPrice applies the charm-price ending from the rounding option (for
// example "0.99" turns 12.34 into 11.99). An unparsable or empty option
// rounds to two decimals.
func roundPrice(target float64, option string) float64 {
	ending, err := strconv.ParseFloat(option, 64)
	if err != nil || ending <= 0 || ending >= 1 {
		return math.Round(target*100) / 100
	}

	rounded := math.Floor(target) + ending
	if rounded > target {
		rounded -= 1
	}
	if rounded <= 0 {
		rounded = ending
	}
	return rounded
}
