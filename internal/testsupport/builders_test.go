// Copyright (c) 2025 Justin Cranford

package testsupport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgTestsupport "github.com/iperka/paporg-sub000/internal/testsupport"
)

func TestRuleBuilder_Defaults(t *testing.T) {
	t.Parallel()
	rule := paporgTestsupport.NewRule("test", "test-category").Build()

	require.Equal(t, "test", rule.ID)
	require.Equal(t, "test-category", rule.Category)
	require.Equal(t, "$y/test-category", rule.OutputDirectory)
	require.Equal(t, "$original", rule.OutputFilename)
	require.Nil(t, rule.Match)
}

func TestRuleBuilder_ContainsAndOutput(t *testing.T) {
	t.Parallel()
	rule := paporgTestsupport.NewRule("invoice", "invoices").
		Priority(100).
		Contains("invoice").
		Output("$y/invoices", "$original").
		Symlinks("$y/all").
		Build()

	require.Equal(t, 100, rule.Priority)
	require.Equal(t, "invoices", rule.Category)
	require.Equal(t, []string{"$y/all"}, rule.SymlinkTemplates)

	simple, ok := rule.Match.(*paporgCategorizer.Simple)
	require.True(t, ok)
	require.NotNil(t, simple.Contains)
	require.Equal(t, "invoice", *simple.Contains)
}

func TestRuleBuilder_ContainsAnyReplacesPriorMatch(t *testing.T) {
	t.Parallel()
	rule := paporgTestsupport.NewRule("test", "test").
		Contains("draft").
		ContainsAny("a", "b", "c").
		Build()

	simple, ok := rule.Match.(*paporgCategorizer.Simple)
	require.True(t, ok)
	require.Nil(t, simple.Contains)
	require.Len(t, simple.ContainsAny, 3)
}

func TestMatchHelpers_Compound(t *testing.T) {
	t.Parallel()
	condition := paporgTestsupport.MatchAll(
		paporgTestsupport.SimpleContains("invoice"),
		paporgTestsupport.MatchNot(paporgTestsupport.SimpleContains("draft")),
	)

	compound, ok := condition.(*paporgCategorizer.Compound)
	require.True(t, ok)
	require.Len(t, compound.All, 2)
	require.Nil(t, compound.Any)
}

func TestVariableBuilder(t *testing.T) {
	t.Parallel()
	variable := paporgTestsupport.NewVariable("vendor", `from:\s*(?P<vendor>\w+)`).
		Slugify().
		Default("unknown").
		Build()

	require.Equal(t, "vendor", variable.Name)
	require.Equal(t, "slugify", variable.Transform)
	require.NotNil(t, variable.Default)
	require.Equal(t, "unknown", *variable.Default)
	require.True(t, variable.Regex.MatchString("from: Acme"))
}

func TestVariableBuilder_InvalidPatternPanics(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() {
		paporgTestsupport.NewVariable("bad", "(unterminated").Build()
	})
}
