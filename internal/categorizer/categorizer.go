// Copyright (c) 2025 Justin Cranford

package categorizer

import (
	"fmt"
	"regexp"
	"sort"
)

// Rule is the engine-ready, immutable-once-loaded form of a
// configuration Rule resource (spec §3). Config conversion is
// responsible for turning a YAML RuleSpec into one of these.
type Rule struct {
	ID               string
	Priority         int
	Match            MatchCondition
	Category         string
	OutputDirectory  string
	OutputFilename   string
	SymlinkTemplates []string
}

// Result is what Categorize returns for a matched (or defaulted) rule.
type Result struct {
	Category         string
	OutputDirectory  string
	OutputFilename   string
	SymlinkTemplates []string
	MatchedRuleID    string // empty when the defaults were used
}

// Defaults configures the fallback category/templates used when no
// rule matches (spec §4.2: "If none match, returns the defaults
// (category = unsorted)").
type Defaults struct {
	Category         string
	OutputDirectory  string
	OutputFilename   string
	SymlinkTemplates []string
}

// Categorizer evaluates text against a priority-sorted, regex-precompiled
// rule set.
type Categorizer struct {
	rules    []Rule
	regexes  map[string]*regexp.Regexp
	defaults Defaults
}

// Error wraps a construction failure, e.g. an invalid regex slipping
// past validation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("categorizer: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a Categorizer: rules are stable-sorted by descending
// priority (ties broken by declaration order), and every regex
// pattern reachable from any rule's match tree is compiled once and
// cached by pattern text (spec §4.2).
func New(rules []Rule, defaults Defaults) (*Categorizer, error) {
	// sort.SliceStable preserves declaration order among equal
	// priorities, which is the tie-break spec §3 requires.
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	regexes := map[string]*regexp.Regexp{}
	var firstErr error
	for _, r := range sorted {
		if r.Match == nil {
			continue
		}
		r.Match.walkPatterns(func(pattern string) {
			if _, ok := regexes[pattern]; ok {
				return
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("rule %s: compiling pattern %q: %w", r.ID, pattern, err)
				}
				return
			}
			regexes[pattern] = re
		})
	}
	if firstErr != nil {
		return nil, &Error{Op: "new", Err: firstErr}
	}

	return &Categorizer{rules: sorted, regexes: regexes, defaults: defaults}, nil
}

// Categorize returns the first rule (in descending-priority,
// stable-tiebreak order) whose match condition holds for text, or
// the defaults if none match. Matching is case-sensitive; users
// enable insensitivity via the regex flag "(?i)".
func (c *Categorizer) Categorize(text string) Result {
	for _, r := range c.rules {
		if r.Match == nil {
			continue
		}
		if r.Match.evaluate(text, c.regexes) {
			return Result{
				Category:         r.Category,
				OutputDirectory:  r.OutputDirectory,
				OutputFilename:   r.OutputFilename,
				SymlinkTemplates: r.SymlinkTemplates,
				MatchedRuleID:    r.ID,
			}
		}
	}
	return Result{
		Category:         c.defaults.Category,
		OutputDirectory:  c.defaults.OutputDirectory,
		OutputFilename:   c.defaults.OutputFilename,
		SymlinkTemplates: c.defaults.SymlinkTemplates,
	}
}

// Rules returns the sorted rule set, for introspection/testing.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
