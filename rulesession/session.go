// Package rulesession implements the rule edit workflow: one session per
// rule being created or edited, holding the aggregate form state, running
// validation before persistence, and guarding against double submission and
// stale load responses.
package rulesession

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pricefy/repricing/repricing"
	"github.com/pricefy/repricing/schema"
)

// Navigation destinations after a successful save.
const (
	DestinationRules    = "/repricing/auto-rules"
	DestinationOverview = "/repricing/auto-overview"
	DestinationBack     = "/repricing/auto-rules"
)

var (
	// ErrSaveInFlight is returned when a save is attempted while another
	// save (plain or preview) has not resolved yet.
	ErrSaveInFlight = errors.New("a save is already in flight")

	// ErrInvalid is returned when validation blocks a save. Field-level
	// messages are available via Errors.
	ErrInvalid = errors.New("validation failed")

	// ErrStaleLoad is returned when a load response arrives after a newer
	// load or after user edits; the response is discarded.
	ErrStaleLoad = errors.New("stale load response dropped")
)

// RuleService is the persistence collaborator of a session. Implementations
// include the HTTP API client and the engine-backed local service.
type RuleService interface {
	Get(ctx context.Context, id string) (*repricing.Rule, error)
	Create(ctx context.Context, r *repricing.Rule) (*repricing.Rule, error)
	Update(ctx context.Context, r *repricing.Rule) (*repricing.Rule, error)
}

// Session owns the canonical form state for one rule edit.
//
// Submission follows idle -> validating -> {invalid: idle+errors} |
// {valid: submitting -> {success} | {failure: idle}}. Save and
// SaveAndPreview share one in-flight flag so the two actions cannot race.
type Session struct {
	svc RuleService

	mu          sync.Mutex
	rule        repricing.Rule
	competitors []repricing.Competitor
	fieldErrors map[string]string
	editMode    bool
	loading     bool
	loadGen     uint64
	latestLoad  uint64

	saving atomic.Bool
}

// New creates a session in create mode, starting from the default rule.
func New(svc RuleService) *Session {
	return &Session{
		svc:         svc,
		rule:        repricing.DefaultRule(),
		fieldErrors: map[string]string{},
	}
}

// Load fetches an existing rule and overlays it onto the defaults, entering
// edit mode. The result is guarded by a generation token: if a newer load
// starts, or the user edits the form before this load resolves, the
// response is dropped and ErrStaleLoad returned.
func (s *Session) Load(ctx context.Context, id string) error {
	s.mu.Lock()
	s.loading = true
	s.loadGen++
	gen := s.loadGen
	s.latestLoad = gen
	s.mu.Unlock()

	fetched, err := s.svc.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only a newer load still owns the loading flag; a stale result must
	// clear it on the way out or the flag sticks forever.
	if gen == s.latestLoad {
		s.loading = false
	}
	if gen != s.loadGen {
		return ErrStaleLoad
	}

	if err != nil {
		return err
	}

	s.rule = overlayDefaults(*fetched)
	s.editMode = true
	return nil
}

// overlayDefaults fills enum fields the payload left empty with the
// create-mode defaults, so a sparse stored rule still renders every step.
func overlayDefaults(r repricing.Rule) repricing.Rule {
	d := repricing.DefaultRule()
	if r.Pricing.ComparisonSource == "" {
		r.Pricing.ComparisonSource = d.Pricing.ComparisonSource
	}
	if r.Pricing.Direction == "" {
		r.Pricing.Direction = d.Pricing.Direction
	}
	if r.Pricing.AdjustmentType == "" {
		r.Pricing.AdjustmentType = d.Pricing.AdjustmentType
	}
	if r.StopCondition.Type == "" {
		r.StopCondition.Type = d.StopCondition.Type
	}
	if r.MinMaxPrice.Type == "" {
		r.MinMaxPrice.Type = d.MinMaxPrice.Type
	}
	if r.Products.Type == "" {
		r.Products.Type = d.Products.Type
	}
	if r.ExportSettings.Format == "" {
		r.ExportSettings.Format = d.ExportSettings.Format
	}
	if r.Competitors == nil {
		r.Competitors = []string{}
	}
	return r
}

// Dispatch applies a step action to the form state. Edits supersede any
// in-flight load so a slow response cannot clobber newer user input.
func (s *Session) Dispatch(a repricing.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rule = repricing.Apply(s.rule, a)
	s.loadGen++
}

// SetCompetitors replaces the competitor reference list and recomputes the
// rule's enabled-ID projection.
func (s *Session) SetCompetitors(competitors []repricing.Competitor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.competitors = append([]repricing.Competitor(nil), competitors...)
	s.rule = repricing.Apply(s.rule, repricing.SetCompetitors{Competitors: competitors})
	s.loadGen++
}

// Competitors returns a copy of the session's competitor list.
func (s *Session) Competitors() []repricing.Competitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repricing.Competitor(nil), s.competitors...)
}

// Rule returns a copy of the current form state.
func (s *Session) Rule() repricing.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rule.Clone()
}

// Errors returns a copy of the current field -> message error map.
func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

// EditMode reports whether the session edits an existing rule.
func (s *Session) EditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMode
}

// Loading reports whether a rule load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Saving reports whether a save (plain or preview) is in flight.
func (s *Session) Saving() bool {
	return s.saving.Load()
}

// Validate runs the rule schema in collect-all mode and returns the
// violations without touching session state.
func (s *Session) Validate() schema.Violations {
	return schema.ValidateRule(s.Rule(), schema.CollectAll)
}

// Save validates and persists the rule, returning the rules-list
// destination on success.
func (s *Session) Save(ctx context.Context) (string, error) {
	return s.save(ctx, DestinationRules)
}

// SaveAndPreview validates and persists the rule, returning the overview
// destination on success.
func (s *Session) SaveAndPreview(ctx context.Context) (string, error) {
	return s.save(ctx, DestinationOverview)
}

func (s *Session) save(ctx context.Context, destination string) (string, error) {
	// The flag is claimed atomically before anything else, so two saves
	// invoked back to back cannot both proceed.
	if !s.saving.CompareAndSwap(false, true) {
		return "", ErrSaveInFlight
	}
	defer s.saving.Store(false)

	violations := s.Validate()
	if !violations.OK() {
		s.mu.Lock()
		s.fieldErrors = violations.FieldMap()
		s.mu.Unlock()
		return "", ErrInvalid
	}

	s.mu.Lock()
	s.fieldErrors = map[string]string{}
	rule := s.rule.Clone()
	editMode := s.editMode
	s.mu.Unlock()

	var saved *repricing.Rule
	var err error
	if editMode {
		saved, err = s.svc.Update(ctx, &rule)
	} else {
		saved, err = s.svc.Create(ctx, &rule)
	}
	if err != nil {
		// State is retained so the user can retry.
		return "", err
	}

	s.mu.Lock()
	s.rule = overlayDefaults(*saved)
	s.editMode = true
	s.mu.Unlock()

	return destination, nil
}
