// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"context"
	"fmt"
	"strings"
)

// MergeStatus summarizes whether origin/branch can be reconciled into
// HEAD without conflicts, without mutating the working tree or index.
type MergeStatus struct {
	CanFastForward   bool
	Ahead            int
	Behind           int
	HasConflicts     bool
	ConflictingFiles []string
}

// CheckMergeConflicts detects merge conflicts non-destructively via
// `git merge-tree <base> HEAD origin/branch` (spec §4.11: "Pre-merge
// conflict detection uses merge-tree (non-destructive)... destructive
// merge --no-commit --no-ff + merge --abort probes are forbidden").
func (r *Repository) CheckMergeConflicts(ctx context.Context, branch string) (MergeStatus, error) {
	ahead, behind, err := r.AheadBehind(ctx, branch)
	if err != nil {
		return MergeStatus{}, err
	}

	status := MergeStatus{CanFastForward: ahead == 0, Ahead: ahead, Behind: behind}
	if behind == 0 {
		return status, nil
	}

	base, _, err := r.run(ctx, "merge-base", "HEAD", "origin/"+branch)
	if err != nil {
		return MergeStatus{}, fmt.Errorf("gitops: finding merge base: %w", err)
	}
	base = strings.TrimSpace(base)

	stdout, _, err := r.run(ctx, "merge-tree", base, "HEAD", "origin/"+branch)
	if err != nil {
		return MergeStatus{}, fmt.Errorf("gitops: merge-tree: %w", err)
	}

	status.ConflictingFiles = parseMergeTreeConflicts(stdout)
	status.HasConflicts = len(status.ConflictingFiles) > 0
	return status, nil
}

// parseMergeTreeConflicts extracts conflicting file paths from the
// three-argument `git merge-tree` output: conflicting entries appear
// under a header line ("changed in both", "added in remote", etc.)
// followed by "  our  <mode> <blob> <path>" / "  their  <mode> <blob>
// <path>" lines.
func parseMergeTreeConflicts(output string) []string {
	var files []string
	seen := map[string]bool{}

	inConflictSection := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "changed in both", trimmed == "added in remote", trimmed == "added in both",
			trimmed == "removed in local", trimmed == "removed in remote":
			inConflictSection = true
			continue
		case trimmed == "":
			inConflictSection = false
			continue
		}

		if !inConflictSection {
			continue
		}
		if !strings.HasPrefix(trimmed, "our ") && !strings.HasPrefix(trimmed, "their ") && !strings.HasPrefix(trimmed, "base ") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 4 {
			continue
		}
		path := fields[len(fields)-1]
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	return files
}
