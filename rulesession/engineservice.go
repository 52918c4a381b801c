package rulesession

import (
	"context"

	"github.com/google/uuid"

	"github.com/pricefy/repricing/repricing"
)

// EngineService is a RuleService bound directly to an in-process engine,
// used when the edit workflow runs in the same process as the store (tests,
// CLI tooling, embedded deployments).
type EngineService struct {
	engine *repricing.Engine
}

// NewEngineService wraps an engine as a RuleService.
func NewEngineService(engine *repricing.Engine) *EngineService {
	return &EngineService{engine: engine}
}

// Get fetches a rule by ID.
func (s *EngineService) Get(ctx context.Context, id string) (*repricing.Rule, error) {
	return s.engine.GetRule(id)
}

// Create assigns an ID and adds the rule through the engine, which compiles
// the stop-condition filter before the store accepts it.
func (s *EngineService) Create(ctx context.Context, r *repricing.Rule) (*repricing.Rule, error) {
	saved := r.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	if err := s.engine.AddRule(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Update persists changes to an existing rule through the engine.
func (s *EngineService) Update(ctx context.Context, r *repricing.Rule) (*repricing.Rule, error) {
	saved := r.Clone()
	if err := s.engine.UpdateRule(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
