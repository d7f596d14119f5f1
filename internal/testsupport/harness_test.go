// Copyright (c) 2025 Justin Cranford

package testsupport_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
	paporgTestsupport "github.com/iperka/paporg-sub000/internal/testsupport"
)

func TestHarness_CreatesDirectories(t *testing.T) {
	t.Parallel()
	h := paporgTestsupport.NewHarness(t, nil, nil)

	_, err := os.Stat(h.InputDir)
	require.NoError(t, err)
	_, err = os.Stat(h.OutputDir)
	require.NoError(t, err)
}

func TestHarness_WriteTextInput(t *testing.T) {
	t.Parallel()
	h := paporgTestsupport.NewHarness(t, nil, nil)

	path := h.WriteTextInput("test.txt", "Hello, World!")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", string(content))
}

func TestHarness_RunMatchesRuleAndStores(t *testing.T) {
	t.Parallel()
	rule := paporgTestsupport.NewRule("invoice", "invoices").
		Contains("invoice").
		Output("invoices", "$original").
		Build()
	h := paporgTestsupport.NewHarness(t, []paporgCategorizer.Rule{rule}, nil)

	path := h.WriteTextInput("doc1.txt", "this is an invoice")
	result, pctx := h.RunAndRequireSuccess(path)

	require.Equal(t, "invoices", result.Category)
	require.Equal(t, "invoice", pctx.Categorization.MatchedRuleID)
	require.NotEmpty(t, h.ListOutputs())
}

func TestHarness_RunWithoutRulesReportsCompleted(t *testing.T) {
	t.Parallel()
	h := paporgTestsupport.NewHarness(t, nil, nil)

	path := h.WriteTextInput("doc2.txt", "nothing special here")
	_, _, events := h.Run(path)

	found := false
	for _, e := range events {
		if e.Phase == paporgMagic.PhaseCompleted {
			found = true
		}
	}
	require.True(t, found, "expected a Completed phase event")
}
