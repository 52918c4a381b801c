// Package schema holds the declarative field validation for the domain
// objects: repricing rules, catalog entities, query parameters, and bulk
// operations. Validation never panics and never throws; every schema
// returns a Violations list the caller inspects.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation is one field-scoped validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is an ordered list of violations. Order follows composition
// order of the schema, so the first entry is always the first failure.
type Violations []Violation

// OK reports whether validation passed.
func (vs Violations) OK() bool {
	return len(vs) == 0
}

// First returns the first violation, or nil when validation passed.
func (vs Violations) First() *Violation {
	if len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

// FieldMap flattens the list into a field -> message map for inline display.
// When a field has several violations the first message wins.
func (vs Violations) FieldMap() map[string]string {
	out := make(map[string]string, len(vs))
	for _, v := range vs {
		if _, seen := out[v.Field]; !seen {
			out[v.Field] = v.Message
		}
	}
	return out
}

// Err converts the list to an error, nil when validation passed. The error
// message is the first violation's, matching fail-fast reporting.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", vs[0].Message)
}

// Mode selects how a schema reports failures.
type Mode int

const (
	// FailFast stops at the first violation in composition order.
	FailFast Mode = iota
	// CollectAll gathers every violation so the caller can surface a full
	// field-keyed error map.
	CollectAll
)

// collector accumulates violations under a mode.
type collector struct {
	mode       Mode
	violations Violations
}

// add records a violation and reports whether validation should continue.
func (c *collector) add(field, message string) bool {
	c.violations = append(c.violations, Violation{Field: field, Message: message})
	return c.mode == CollectAll
}

func (c *collector) done() bool {
	return c.mode == FailFast && len(c.violations) > 0
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s matches the email pattern used across the
// dashboard forms.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func oneOf(s string, allowed ...string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
