// Copyright (c) 2025 Justin Cranford

package pipeline

import (
	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
	paporgProcessor "github.com/iperka/paporg-sub000/internal/processor"
)

// Warning is a non-fatal problem surfaced alongside a successful
// Result (spec §4.5: symlink creation failures never fail the job).
type Warning struct {
	Target string
	Error  string
}

// Context is the forward-only state threaded through every pipeline
// step (spec §4.5). Each step reads what prior steps produced and
// appends its own output; nothing is ever removed.
type Context struct {
	Job Job

	Processed          *paporgProcessor.Content
	MatchingText       string
	ExtractedVariables map[string]string
	Categorization     *paporgCategorizer.Result
	OutputPath         string
	ArchivePath        string
	SymlinkPaths       []string
	Warnings           []Warning
}

// NewContext starts a fresh Context for job.
func NewContext(job Job) Context {
	return Context{Job: job}
}
