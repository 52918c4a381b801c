package repricing

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Sentinel store errors. Implementations wrap these so callers can map them
// to HTTP statuses with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// RuleStore manages rule persistence and retrieval.
type RuleStore interface {
	// Add a new rule
	Add(rule *Rule) error

	// Get a rule by ID
	Get(id string) (*Rule, error)

	// List all rules, newest first
	List() ([]*Rule, error)

	// List all active rules
	ListActive() ([]*Rule, error)

	// Update an existing rule
	Update(rule *Rule) error

	// Delete a rule
	Delete(id string) error
}

// CompetitorStore manages the merchant's tracked competitors.
type CompetitorStore interface {
	Add(c *Competitor) error
	Get(id string) (*Competitor, error)
	List() ([]*Competitor, error)
	Update(c *Competitor) error
	Delete(id string) error
}

// InMemoryRuleStore implements RuleStore using an in-memory map.
// Thread-safe with RWMutex.
type InMemoryRuleStore struct {
	rules map[string]*Rule
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates a new in-memory rule store.
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*Rule),
	}
}

// Add adds a new rule to the store and sets its timestamps.
func (s *InMemoryRuleStore) Add(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("rule with ID %s %w", rule.ID, ErrExists)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	stored := rule.Clone()
	s.rules[rule.ID] = &stored
	return nil
}

// Get retrieves a rule by ID.
func (s *InMemoryRuleStore) Get(id string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule %s %w", id, ErrNotFound)
	}
	out := rule.Clone()
	return &out, nil
}

// List returns all rules ordered by creation time, newest first.
func (s *InMemoryRuleStore) List() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		out := rule.Clone()
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// ListActive returns all active rules.
func (s *InMemoryRuleStore) ListActive() ([]*Rule, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, rule := range all {
		if rule.Active {
			active = append(active, rule)
		}
	}
	return active, nil
}

// Update updates an existing rule, preserving its original CreatedAt.
func (s *InMemoryRuleStore) Update(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists {
		return fmt.Errorf("rule %s %w", rule.ID, ErrNotFound)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	stored := rule.Clone()
	s.rules[rule.ID] = &stored
	return nil
}

// Delete removes a rule from the store.
func (s *InMemoryRuleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("rule %s %w", id, ErrNotFound)
	}

	delete(s.rules, id)
	return nil
}

// InMemoryCompetitorStore implements CompetitorStore with an in-memory map.
type InMemoryCompetitorStore struct {
	competitors map[string]*Competitor
	mu          sync.RWMutex
}

// NewInMemoryCompetitorStore creates a new in-memory competitor store.
func NewInMemoryCompetitorStore() *InMemoryCompetitorStore {
	return &InMemoryCompetitorStore{
		competitors: make(map[string]*Competitor),
	}
}

// Add adds a new competitor.
func (s *InMemoryCompetitorStore) Add(c *Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.competitors[c.ID]; exists {
		return fmt.Errorf("competitor with ID %s %w", c.ID, ErrExists)
	}
	stored := *c
	s.competitors[c.ID] = &stored
	return nil
}

// Get retrieves a competitor by ID.
func (s *InMemoryCompetitorStore) Get(id string) (*Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.competitors[id]
	if !exists {
		return nil, fmt.Errorf("competitor %s %w", id, ErrNotFound)
	}
	out := *c
	return &out, nil
}

// List returns all competitors sorted by name.
func (s *InMemoryCompetitorStore) List() ([]*Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		out := *c
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all, nil
}

// Update replaces an existing competitor.
func (s *InMemoryCompetitorStore) Update(c *Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.competitors[c.ID]; !exists {
		return fmt.Errorf("competitor %s %w", c.ID, ErrNotFound)
	}
	stored := *c
	s.competitors[c.ID] = &stored
	return nil
}

// Delete removes a competitor.
func (s *InMemoryCompetitorStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.competitors[id]; !exists {
		return fmt.Errorf("competitor %s %w", id, ErrNotFound)
	}
	delete(s.competitors, id)
	return nil
}
