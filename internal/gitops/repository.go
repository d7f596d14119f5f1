// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// Repository is a thin working-copy handle: open/clone/dirty-check
// operations distinct from GitReconciler's reconciliation policy
// (spec SUPPLEMENTED FEATURES, grounded on gitops/git/repository.rs's
// split between "the repo handle" and "the sync policy").
type Repository struct {
	path     string
	settings paporgConfig.GitSyncSpec
}

// NewRepository wraps an existing (or not-yet-cloned) working copy at
// path under the given sync settings.
func NewRepository(path string, settings paporgConfig.GitSyncSpec) *Repository {
	return &Repository{path: path, settings: settings}
}

// Path returns the repository's working-copy directory.
func (r *Repository) Path() string { return r.path }

// IsGitRepo reports whether path/.git exists.
func (r *Repository) IsGitRepo() bool {
	_, err := os.Stat(filepath.Join(r.path, ".git"))
	return err == nil
}

// HasCommits reports whether HEAD resolves, i.e. the repository has
// at least one commit.
func (r *Repository) HasCommits(ctx context.Context) bool {
	if !r.IsGitRepo() {
		return false
	}
	_, _, err := r.run(ctx, "rev-parse", "HEAD")
	return err == nil
}

// CurrentBranch returns the name of the currently checked-out branch.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	stdout, _, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout), nil
}

// CheckoutRemoteBranch creates (or resets) a local branch tracking
// origin/branch, used to initialize a fresh clone onto the configured
// branch.
func (r *Repository) CheckoutRemoteBranch(ctx context.Context, branch string) error {
	if !r.IsGitRepo() {
		return fmt.Errorf("gitops: %s is not a git repository", r.path)
	}
	_, _, err := r.run(ctx, "checkout", "-B", branch, "origin/"+branch)
	return err
}

// Checkout checks out an existing local branch, falling back to
// creating a local tracking branch for a remote-only branch.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if _, _, err := r.run(ctx, "checkout", branch); err == nil {
		return nil
	}
	_, _, err := r.run(ctx, "checkout", "-b", branch, "origin/"+branch)
	return err
}

// IsClean reports whether the working tree has no staged or
// unstaged, tracked or untracked, changes.
func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	stdout, _, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(stdout) == "", nil
}

// AheadBehind reports the commit counts by which HEAD is ahead of and
// behind origin/branch (spec §6: `rev-list --left-right --count`).
func (r *Repository) AheadBehind(ctx context.Context, branch string) (ahead, behind int, err error) {
	stdout, _, err := r.run(ctx, "rev-list", "--left-right", "--count", "HEAD...origin/"+branch)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Fields(strings.TrimSpace(stdout))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("gitops: unexpected rev-list output %q", stdout)
	}
	ahead, errA := strconv.Atoi(parts[0])
	behind, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return 0, 0, fmt.Errorf("gitops: unparsable rev-list counts %q", stdout)
	}
	return ahead, behind, nil
}

// Init creates a new repository at path if one does not already
// exist, then configures the commit identity from settings.
func (r *Repository) Init(ctx context.Context) error {
	if r.IsGitRepo() {
		return nil
	}
	if _, _, err := r.run(ctx, "init"); err != nil {
		return err
	}
	if r.settings.UserEmail != "" {
		_, _, _ = r.run(ctx, "config", "user.email", r.settings.UserEmail)
	}
	if r.settings.UserName != "" {
		_, _, _ = r.run(ctx, "config", "user.name", r.settings.UserName)
	}
	return nil
}

// CloneRepository clones url at branch into targetPath, returning a
// Repository handle for it.
func CloneRepository(ctx context.Context, url, targetPath, branch string, settings paporgConfig.GitSyncSpec) (*Repository, error) {
	env, cleanup, err := authEnv(settings)
	if err != nil {
		return nil, err
	}
	defer cleanup.Close()

	cmd := exec.CommandContext(ctx, "git", "clone", "--branch", branch, "--single-branch", url, targetPath)
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gitops: clone: %s", strings.TrimSpace(stderr.String()))
	}
	return NewRepository(targetPath, settings), nil
}

// run executes `git <args...>` in the repository directory and
// returns stdout/stderr separately, formatting a combined error
// message when the command fails (spec §7: "Git errors format
// stdout+stderr together when both are present").
func (r *Repository) run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout, cmd.Stderr = &outBuf, &errBuf
	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()
	if runErr != nil {
		return stdout, stderr, fmt.Errorf("gitops: git %s: %s", strings.Join(args, " "), formatGitError(stdout, stderr, runErr))
	}
	return stdout, stderr, nil
}

// formatGitError combines stdout and stderr the way spec §7 requires,
// falling back to the process error when both streams are empty.
func formatGitError(stdout, stderr string, runErr error) string {
	stdout, stderr = strings.TrimSpace(stdout), strings.TrimSpace(stderr)
	switch {
	case stderr == "" && stdout == "":
		return runErr.Error()
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stderr + "\n" + stdout
	}
}
