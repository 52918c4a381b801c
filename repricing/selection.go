package repricing

import "strings"

// Selection is the ephemeral competitor-picker state for a rule edit: the
// free-text filter plus the enabled flags. The filter is never persisted;
// only the enabled flags flow back into the rule.
type Selection struct {
	competitors []Competitor
	query       string
}

// NewSelection copies the given competitors into a fresh selection.
func NewSelection(competitors []Competitor) *Selection {
	cs := make([]Competitor, len(competitors))
	copy(cs, competitors)
	return &Selection{competitors: cs}
}

// SetFilter sets the free-text search query. Matching is case-insensitive
// over name and URL.
func (s *Selection) SetFilter(query string) {
	s.query = query
}

// ClearFilter resets the search query.
func (s *Selection) ClearFilter() {
	s.query = ""
}

// Filter returns the current search query.
func (s *Selection) Filter() string {
	return s.query
}

func (s *Selection) matches(c Competitor) bool {
	if s.query == "" {
		return true
	}
	q := strings.ToLower(s.query)
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.URL), q)
}

// Visible returns the competitors matching the current filter, in input
// order.
func (s *Selection) Visible() []Competitor {
	var out []Competitor
	for _, c := range s.competitors {
		if s.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// SetEnabled flips a single competitor's enabled flag. Returns false if the
// ID is unknown.
func (s *Selection) SetEnabled(id string, enabled bool) bool {
	for i := range s.competitors {
		if s.competitors[i].ID == id {
			s.competitors[i].Enabled = enabled
			return true
		}
	}
	return false
}

// SelectAll enables every competitor matching the current filter. Hidden
// competitors are never touched: bulk actions are scoped to what the user
// can see.
func (s *Selection) SelectAll() {
	s.setVisible(true)
}

// DeselectAll disables every competitor matching the current filter, with
// the same scoping as SelectAll.
func (s *Selection) DeselectAll() {
	s.setVisible(false)
}

func (s *Selection) setVisible(enabled bool) {
	for i := range s.competitors {
		if s.matches(s.competitors[i]) {
			s.competitors[i].Enabled = enabled
		}
	}
}

// Competitors returns a copy of the full competitor list with current
// enabled flags.
func (s *Selection) Competitors() []Competitor {
	out := make([]Competitor, len(s.competitors))
	copy(out, s.competitors)
	return out
}

// EnabledIDs projects the current selection to the enabled ID list.
func (s *Selection) EnabledIDs() []string {
	return EnabledCompetitorIDs(s.competitors)
}
