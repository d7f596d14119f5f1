// Copyright (c) 2025 Justin Cranford

// Package testsupport provides fluent builders and an integration
// harness for exercising the categorizer/template/pipeline stack
// without hand-writing the same categorizer.Rule/config.ExtractedVariable
// literals in every test package (grounded on
// _examples/original_source/tests/common/builders.rs's
// ConfigBuilder/RuleBuilder/VariableBuilder and harness.rs's
// TestHarness, re-expressed as Go's fluent-pointer-receiver builder
// idiom rather than Rust's consuming-self style).
package testsupport

import (
	"regexp"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// RuleBuilder builds a categorizer.Rule for tests, defaulting to a
// catch-all output template so only the fields a test cares about
// need to be set (mirrors RuleBuilder::new's sensible defaults).
type RuleBuilder struct {
	rule paporgCategorizer.Rule
}

// NewRule starts a builder for a rule identified by id, matched
// documents filed under category by default.
func NewRule(id, category string) *RuleBuilder {
	return &RuleBuilder{
		rule: paporgCategorizer.Rule{
			ID:              id,
			Category:        category,
			OutputDirectory: "$y/" + category,
			OutputFilename:  "$original",
		},
	}
}

// Priority sets the rule's priority.
func (b *RuleBuilder) Priority(priority int) *RuleBuilder {
	b.rule.Priority = priority
	return b
}

// Contains sets a simple "contains" match condition, replacing any
// previously set match condition.
func (b *RuleBuilder) Contains(text string) *RuleBuilder {
	b.rule.Match = &paporgCategorizer.Simple{Contains: &text}
	return b
}

// ContainsAny sets a simple "containsAny" match condition.
func (b *RuleBuilder) ContainsAny(texts ...string) *RuleBuilder {
	b.rule.Match = &paporgCategorizer.Simple{ContainsAny: texts}
	return b
}

// ContainsAll sets a simple "containsAll" match condition.
func (b *RuleBuilder) ContainsAll(texts ...string) *RuleBuilder {
	b.rule.Match = &paporgCategorizer.Simple{ContainsAll: texts}
	return b
}

// Pattern sets a regex-pattern match condition.
func (b *RuleBuilder) Pattern(pattern string) *RuleBuilder {
	b.rule.Match = &paporgCategorizer.Simple{Pattern: &pattern}
	return b
}

// Match sets an arbitrary match condition, e.g. one built with
// MatchAll/MatchAny/MatchNot below.
func (b *RuleBuilder) Match(condition paporgCategorizer.MatchCondition) *RuleBuilder {
	b.rule.Match = condition
	return b
}

// Output sets both the output directory and filename templates.
func (b *RuleBuilder) Output(directory, filename string) *RuleBuilder {
	b.rule.OutputDirectory = directory
	b.rule.OutputFilename = filename
	return b
}

// Symlinks sets the symlink templates.
func (b *RuleBuilder) Symlinks(templates ...string) *RuleBuilder {
	b.rule.SymlinkTemplates = templates
	return b
}

// Build returns the constructed Rule.
func (b *RuleBuilder) Build() paporgCategorizer.Rule {
	return b.rule
}

// MatchAll builds a Compound "all" match condition.
func MatchAll(conditions ...paporgCategorizer.MatchCondition) paporgCategorizer.MatchCondition {
	return &paporgCategorizer.Compound{All: conditions}
}

// MatchAny builds a Compound "any" match condition.
func MatchAny(conditions ...paporgCategorizer.MatchCondition) paporgCategorizer.MatchCondition {
	return &paporgCategorizer.Compound{Any: conditions}
}

// MatchNot builds a Compound "not" match condition.
func MatchNot(condition paporgCategorizer.MatchCondition) paporgCategorizer.MatchCondition {
	return &paporgCategorizer.Compound{Not: condition}
}

// SimpleContains builds a leaf "contains" match condition.
func SimpleContains(text string) paporgCategorizer.MatchCondition {
	return &paporgCategorizer.Simple{Contains: &text}
}

// VariableBuilder builds a config.ExtractedVariable for tests.
type VariableBuilder struct {
	name      string
	pattern   string
	transform string
	def       *string
}

// NewVariable starts a builder for a variable named name, extracted by
// pattern (which must carry a named capture group matching name).
func NewVariable(name, pattern string) *VariableBuilder {
	return &VariableBuilder{name: name, pattern: pattern}
}

// Slugify applies the slugify transform.
func (b *VariableBuilder) Slugify() *VariableBuilder { b.transform = "slugify"; return b }

// Uppercase applies the uppercase transform.
func (b *VariableBuilder) Uppercase() *VariableBuilder { b.transform = "uppercase"; return b }

// Lowercase applies the lowercase transform.
func (b *VariableBuilder) Lowercase() *VariableBuilder { b.transform = "lowercase"; return b }

// Trim applies the trim transform.
func (b *VariableBuilder) Trim() *VariableBuilder { b.transform = "trim"; return b }

// Transform sets an arbitrary transform name.
func (b *VariableBuilder) Transform(transform string) *VariableBuilder {
	b.transform = transform
	return b
}

// Default sets the fallback value used when the pattern doesn't match.
func (b *VariableBuilder) Default(def string) *VariableBuilder {
	b.def = &def
	return b
}

// Build compiles the pattern and returns the ExtractedVariable. It
// panics on an invalid pattern: builders are test-only construction
// helpers, and a malformed fixture pattern is a test-authoring bug,
// not a runtime condition callers should have to check for.
func (b *VariableBuilder) Build() paporgConfig.ExtractedVariable {
	re, err := regexp.Compile(b.pattern)
	if err != nil {
		panic("testsupport: invalid variable fixture pattern: " + err.Error())
	}
	return paporgConfig.ExtractedVariable{Name: b.name, Regex: re, Transform: b.transform, Default: b.def}
}
