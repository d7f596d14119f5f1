// Copyright (c) 2025 Justin Cranford

package categorizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
)

func strPtr(s string) *string { return &s }

func TestCategorize_SimpleContains(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{
			ID:       "invoices",
			Priority: 10,
			Match:    &paporgCategorizer.Simple{Contains: strPtr("Invoice")},
			Category: "invoices",
		},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("This is an Invoice")
	require.Equal(t, "invoices", result.Category)
	require.Equal(t, "invoices", result.MatchedRuleID)
}

func TestCategorize_CompoundAllOfAny(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{
			ID:       "vat-invoice",
			Priority: 10,
			Category: "invoices",
			Match: &paporgCategorizer.Compound{
				All: []paporgCategorizer.MatchCondition{
					&paporgCategorizer.Simple{ContainsAny: []string{"Invoice", "Rechnung"}},
					&paporgCategorizer.Simple{ContainsAny: []string{"VAT", "MwSt"}},
				},
			},
		},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("Rechnung mit MwSt")
	require.Equal(t, "invoices", result.Category)
}

func TestCategorize_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New(nil, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("anything")
	require.Equal(t, "unsorted", result.Category)
	require.Empty(t, result.MatchedRuleID)
}

func TestCategorize_PriorityOrderAndStableTies(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{ID: "first-decl", Priority: 5, Category: "a", Match: &paporgCategorizer.Simple{Contains: strPtr("x")}},
		{ID: "second-decl", Priority: 5, Category: "b", Match: &paporgCategorizer.Simple{Contains: strPtr("x")}},
		{ID: "high", Priority: 100, Category: "c", Match: &paporgCategorizer.Simple{Contains: strPtr("x")}},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("x")
	require.Equal(t, "high", result.MatchedRuleID)

	rules := c.Rules()
	require.Equal(t, "high", rules[0].ID)
	require.Equal(t, "first-decl", rules[1].ID)
	require.Equal(t, "second-decl", rules[2].ID)
}

func TestEmptySimple_NeverMatches(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{ID: "empty", Priority: 100, Category: "x", Match: &paporgCategorizer.Simple{}},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("some text")
	require.Equal(t, "unsorted", result.Category)
}

func TestSimple_MultipleFieldsOnlyEvaluatesHighestPriority(t *testing.T) {
	t.Parallel()

	// Contains outranks Pattern: the pattern would reject this text,
	// but Contains matches, so it alone decides the outcome (mirrors
	// matches_simple's early-return chain).
	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{
			ID:       "r",
			Priority: 1,
			Category: "x",
			Match: &paporgCategorizer.Simple{
				Contains: strPtr("invoice"),
				Pattern:  strPtr(`^nomatch$`),
			},
		},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("this is an invoice")
	require.Equal(t, "x", result.Category)
}

func TestContainsAll_EmptyIsVacuouslyTrue(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{ID: "r", Priority: 1, Category: "x", Match: &paporgCategorizer.Simple{ContainsAll: []string{}}},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("anything at all")
	require.Equal(t, "x", result.Category)
}

func TestContainsAny_EmptyIsVacuouslyFalse(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{ID: "r", Priority: 1, Category: "x", Match: &paporgCategorizer.Simple{ContainsAny: []string{}}},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("anything at all")
	require.Equal(t, "unsorted", result.Category)
}

func TestNot_OfNonMatchingIsTrue(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{
			ID:       "not-spam",
			Priority: 1,
			Category: "ham",
			Match: &paporgCategorizer.Compound{
				Not: &paporgCategorizer.Simple{Contains: strPtr("spam")},
			},
		},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	result := c.Categorize("a legitimate invoice")
	require.Equal(t, "ham", result.Category)
}

func TestCaseSensitive_RequiresInlineFlagForInsensitivity(t *testing.T) {
	t.Parallel()

	c, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{ID: "ci", Priority: 1, Category: "matched", Match: &paporgCategorizer.Simple{Pattern: strPtr("(?i)invoice")}},
	}, paporgCategorizer.Defaults{Category: "unsorted"})
	require.NoError(t, err)

	require.Equal(t, "matched", c.Categorize("An INVOICE arrived").Category)
}

func TestNew_InvalidRegexFails(t *testing.T) {
	t.Parallel()

	_, err := paporgCategorizer.New([]paporgCategorizer.Rule{
		{ID: "bad", Priority: 1, Category: "x", Match: &paporgCategorizer.Simple{Pattern: strPtr("(unterminated")}},
	}, paporgCategorizer.Defaults{})
	require.Error(t, err)
}
