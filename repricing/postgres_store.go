package repricing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ruleConfig is the JSONB payload for a rule row. Name/active/timestamps are
// promoted to columns so lists can filter and sort without unmarshalling.
type ruleConfig struct {
	Pricing        Pricing        `json:"pricing"`
	Competitors    []string       `json:"competitors"`
	StopCondition  StopCondition  `json:"stop_condition"`
	MinMaxPrice    MinMax         `json:"min_max_price"`
	Products       ProductScope   `json:"products"`
	Automations    Automations    `json:"automations"`
	Options        Options        `json:"options"`
	ExportSettings ExportSettings `json:"export_settings"`
}

func configOf(r *Rule) ruleConfig {
	return ruleConfig{
		Pricing:        r.Pricing,
		Competitors:    r.Competitors,
		StopCondition:  r.StopCondition,
		MinMaxPrice:    r.MinMaxPrice,
		Products:       r.Products,
		Automations:    r.Automations,
		Options:        r.Options,
		ExportSettings: r.ExportSettings,
	}
}

func (c ruleConfig) fill(r *Rule) {
	r.Pricing = c.Pricing
	r.Competitors = c.Competitors
	if r.Competitors == nil {
		r.Competitors = []string{}
	}
	r.StopCondition = c.StopCondition
	r.MinMaxPrice = c.MinMaxPrice
	r.Products = c.Products
	r.Automations = c.Automations
	r.Options = c.Options
	r.ExportSettings = c.ExportSettings
}

// PostgresRuleStore implements RuleStore backed by PostgreSQL.
type PostgresRuleStore struct {
	db *sql.DB
}

// NewPostgresRuleStore creates a new PostgreSQL-backed RuleStore.
func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// Add inserts a new rule.
func (s *PostgresRuleStore) Add(rule *Rule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM repricing_rules WHERE id = $1)
	`, rule.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("rule with ID %s %w", rule.ID, ErrExists)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	configJSON, err := json.Marshal(configOf(rule))
	if err != nil {
		return fmt.Errorf("failed to marshal rule config: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO repricing_rules (id, name, active, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rule.ID, rule.Name, rule.Active, configJSON, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

func (s *PostgresRuleStore) scanRule(row interface{ Scan(...any) error }) (*Rule, error) {
	var rule Rule
	var configJSON []byte
	if err := row.Scan(&rule.ID, &rule.Name, &rule.Active, &configJSON,
		&rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, err
	}

	var config ruleConfig
	if err := json.Unmarshal(configJSON, &config); err != nil {
		return nil, fmt.Errorf("invalid config for rule %s: %w", rule.ID, err)
	}
	config.fill(&rule)
	return &rule, nil
}

// Get retrieves a rule by ID.
func (s *PostgresRuleStore) Get(id string) (*Rule, error) {
	row := s.db.QueryRow(`
		SELECT id, name, active, config, created_at, updated_at
		FROM repricing_rules
		WHERE id = $1
	`, id)

	rule, err := s.scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

func (s *PostgresRuleStore) list(query string, args ...any) ([]*Rule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*Rule
	for rows.Next() {
		rule, err := s.scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rulesList = append(rulesList, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rulesList, nil
}

// List returns all rules, newest first.
func (s *PostgresRuleStore) List() ([]*Rule, error) {
	return s.list(`
		SELECT id, name, active, config, created_at, updated_at
		FROM repricing_rules
		ORDER BY created_at DESC
	`)
}

// ListActive returns all active rules.
func (s *PostgresRuleStore) ListActive() ([]*Rule, error) {
	return s.list(`
		SELECT id, name, active, config, created_at, updated_at
		FROM repricing_rules
		WHERE active = true
		ORDER BY created_at ASC
	`)
}

// Update modifies an existing rule, preserving CreatedAt.
func (s *PostgresRuleStore) Update(rule *Rule) error {
	existing, err := s.Get(rule.ID)
	if err != nil {
		return err
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()

	configJSON, err := json.Marshal(configOf(rule))
	if err != nil {
		return fmt.Errorf("failed to marshal rule config: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE repricing_rules
		SET name = $1, active = $2, config = $3, updated_at = $4
		WHERE id = $5
	`, rule.Name, rule.Active, configJSON, rule.UpdatedAt, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s %w", rule.ID, ErrNotFound)
	}

	return nil
}

// Delete removes a rule.
func (s *PostgresRuleStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM repricing_rules
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s %w", id, ErrNotFound)
	}

	return nil
}

// PostgresCompetitorStore implements CompetitorStore backed by PostgreSQL.
type PostgresCompetitorStore struct {
	db *sql.DB
}

// NewPostgresCompetitorStore creates a new PostgreSQL-backed CompetitorStore.
func NewPostgresCompetitorStore(db *sql.DB) *PostgresCompetitorStore {
	return &PostgresCompetitorStore{db: db}
}

// Add inserts a new competitor.
func (s *PostgresCompetitorStore) Add(c *Competitor) error {
	_, err := s.db.Exec(`
		INSERT INTO competitors (id, name, url, last_checked, enabled, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Name, c.URL, c.LastChecked, c.Enabled, c.Avatar)
	if err != nil {
		return fmt.Errorf("failed to insert competitor: %w", err)
	}
	return nil
}

// Get retrieves a competitor by ID.
func (s *PostgresCompetitorStore) Get(id string) (*Competitor, error) {
	var c Competitor
	err := s.db.QueryRow(`
		SELECT id, name, url, last_checked, enabled, avatar
		FROM competitors
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.URL, &c.LastChecked, &c.Enabled, &c.Avatar)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("competitor %s %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	return &c, nil
}

// List returns all competitors sorted by name.
func (s *PostgresCompetitorStore) List() ([]*Competitor, error) {
	rows, err := s.db.Query(`
		SELECT id, name, url, last_checked, enabled, avatar
		FROM competitors
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	defer rows.Close()

	var all []*Competitor
	for rows.Next() {
		var c Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.LastChecked,
			&c.Enabled, &c.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		all = append(all, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competitors: %w", err)
	}
	return all, nil
}

// Update replaces an existing competitor.
func (s *PostgresCompetitorStore) Update(c *Competitor) error {
	result, err := s.db.Exec(`
		UPDATE competitors
		SET name = $1, url = $2, last_checked = $3, enabled = $4, avatar = $5
		WHERE id = $6
	`, c.Name, c.URL, c.LastChecked, c.Enabled, c.Avatar, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update competitor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("competitor %s %w", c.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a competitor.
func (s *PostgresCompetitorStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM competitors
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete competitor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("competitor %s %w", id, ErrNotFound)
	}
	return nil
}
