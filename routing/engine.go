// Package routing selects a fulfillment party for a part order by brand.
//
// Matching precedence, most to least specific:
//
//  1. configured priority groups (fixed brand sets routed to one party)
//  2. exact case-sensitive brand match
//  3. case-insensitive exact match
//  4. token overlap (whitespace tokens, substring-contains either direction)
//
// Each rule is a full pass over the registry in insertion order, so an exact
// match always wins over a token-overlap candidate that appears earlier.
// Identical inputs against the same registry state always resolve to the
// same party. No match is a non-fatal outcome: the order stays unassigned
// and an admin assigns manually.
package routing

import (
	"strings"

	"partsdesk/config"
	"partsdesk/faults"
	"partsdesk/store"
)

// Matching rules, reported in Result for auditability.
const (
	RulePriorityGroup   = "priority_group"
	RuleExact           = "exact"
	RuleCaseInsensitive = "case_insensitive"
	RuleTokenOverlap    = "token_overlap"
)

// Result is a successful routing decision.
type Result struct {
	Party *store.Party
	Rule  string
}

// Engine resolves brands against a party registry.
type Engine struct {
	groups []config.PriorityGroup
}

// New creates a routing engine with the configured priority groups.
func New(groups []config.PriorityGroup) *Engine {
	return &Engine{groups: groups}
}

// Resolve picks a fulfillment party for a brand from the registry slice.
// The registry must be in insertion order. Returns (nil, nil) when no rule
// matches; not an error, manual assignment remains possible.
func (e *Engine) Resolve(registry []store.Party, brand string) (*Result, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, faults.New(faults.Validation, "brand is required for routing")
	}

	// Priority groups outrank every generic rule.
	if p := e.resolvePriorityGroup(registry, brand); p != nil {
		return &Result{Party: p, Rule: RulePriorityGroup}, nil
	}

	// Pass 1: exact case-sensitive.
	for i := range registry {
		for _, b := range brandList(registry[i].Brands) {
			if b == brand {
				return &Result{Party: &registry[i], Rule: RuleExact}, nil
			}
		}
	}

	// Pass 2: case-insensitive exact.
	for i := range registry {
		for _, b := range brandList(registry[i].Brands) {
			if strings.EqualFold(b, brand) {
				return &Result{Party: &registry[i], Rule: RuleCaseInsensitive}, nil
			}
		}
	}

	// Pass 3: token overlap. First registry entry sharing a token wins.
	inTokens := tokens(brand)
	for i := range registry {
		for _, b := range brandList(registry[i].Brands) {
			if tokensOverlap(tokens(b), inTokens) {
				return &Result{Party: &registry[i], Rule: RuleTokenOverlap}, nil
			}
		}
	}

	return nil, nil
}

// resolvePriorityGroup checks the configured groups, in order, for a brand
// membership and returns the group's party when it exists in the registry.
func (e *Engine) resolvePriorityGroup(registry []store.Party, brand string) *store.Party {
	for _, g := range e.groups {
		for _, b := range g.Brands {
			if !strings.EqualFold(strings.TrimSpace(b), brand) {
				continue
			}
			for i := range registry {
				if strings.EqualFold(registry[i].Name, g.Party) {
					return &registry[i]
				}
			}
		}
	}
	return nil
}

// brandList splits a party's comma-separated brand associations.
func brandList(brands string) []string {
	parts := strings.Split(brands, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tokens(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// tokensOverlap reports whether any token pair matches, where a substring
// containment in either direction counts as a match.
func tokensOverlap(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				return true
			}
		}
	}
	return false
}
