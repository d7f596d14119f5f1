// Copyright (c) 2025 Justin Cranford

// Package categorizer evaluates the ordered rule set against
// extracted document text (spec §4.2) and implements the recursive
// MatchCondition sum type (spec §3).
package categorizer

import (
	"regexp"
	"strings"
)

// MatchCondition is the recursive match-condition sum type: either a
// Simple leaf or a Compound node. Implemented as a tagged interface
// with heap-allocated sub-nodes, per spec §9 ("arena allocation is
// unnecessary at expected sizes").
type MatchCondition interface {
	evaluate(text string, regexes map[string]*regexp.Regexp) bool
	walkPatterns(visit func(pattern string))
}

// Simple matches by substring/regex against the full text.
type Simple struct {
	Contains    *string
	ContainsAny []string
	ContainsAll []string
	Pattern     *string
}

func (s *Simple) walkPatterns(visit func(pattern string)) {
	if s.Pattern != nil {
		visit(*s.Pattern)
	}
}

// evaluate implements spec §4.2/§8: fields are checked in priority
// order (Contains, then ContainsAny, then ContainsAll, then Pattern)
// and only the first populated field is evaluated — a Simple
// condition with more than one field set (not rejected by the
// validator) evaluates only its highest-priority field, matching the
// original matcher's matches_simple early-return chain. An empty
// Simple (no field populated) never matches.
func (s *Simple) evaluate(text string, regexes map[string]*regexp.Regexp) bool {
	if s.Contains != nil {
		return containsSubstring(text, *s.Contains)
	}

	if s.ContainsAny != nil {
		return containsAny(text, s.ContainsAny)
	}

	if s.ContainsAll != nil {
		return containsAll(text, s.ContainsAll)
	}

	if s.Pattern != nil {
		re := regexes[*s.Pattern]
		return re != nil && re.MatchString(text)
	}

	return false
}

func containsSubstring(text, needle string) bool {
	return strings.Contains(text, needle)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func containsAll(text string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(text, n) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether s has no field populated — callers use this
// at validation time to reject an empty Simple condition.
func (s *Simple) IsEmpty() bool {
	return s.Contains == nil && s.ContainsAny == nil && s.ContainsAll == nil && s.Pattern == nil
}

// Compound combines sub-conditions with All/Any/Not.
type Compound struct {
	All []MatchCondition
	Any []MatchCondition
	Not MatchCondition
}

func (c *Compound) walkPatterns(visit func(pattern string)) {
	for _, sub := range c.All {
		sub.walkPatterns(visit)
	}
	for _, sub := range c.Any {
		sub.walkPatterns(visit)
	}
	if c.Not != nil {
		c.Not.walkPatterns(visit)
	}
}

func (c *Compound) evaluate(text string, regexes map[string]*regexp.Regexp) bool {
	if len(c.All) > 0 {
		for _, sub := range c.All {
			if !sub.evaluate(text, regexes) {
				return false
			}
		}
		return true
	}
	if len(c.Any) > 0 {
		for _, sub := range c.Any {
			if sub.evaluate(text, regexes) {
				return true
			}
		}
		return false
	}
	if c.Not != nil {
		// Recursion over compound conditions is straight structural;
		// "not" of a non-matching condition is true.
		return !c.Not.evaluate(text, regexes)
	}
	return false
}

// IsEmpty reports whether c has none of All/Any/Not populated.
func (c *Compound) IsEmpty() bool {
	return len(c.All) == 0 && len(c.Any) == 0 && c.Not == nil
}
