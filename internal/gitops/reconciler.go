// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	paporgBroadcast "github.com/iperka/paporg-sub000/internal/broadcast"
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// GitReconciler wraps a working-copy Repository and, on demand,
// performs fetch+pull --ff-only, publishing streamed progress and a
// ConfigChangeEvent when the pull actually changed files (spec
// §4.11, grounded on git.rs's pull_with_progress).
type GitReconciler struct {
	repo     *Repository
	settings paporgConfig.GitSyncSpec
	progress *paporgBroadcast.Broadcaster[ProgressEvent]
	changes  *paporgBroadcast.Broadcaster[ConfigChangeEvent]
}

// NewGitReconciler builds a reconciler around repo. progress and
// changes may both be nil: publishing to a nil broadcaster is a
// documented no-op (see OperationProgress.publish).
func NewGitReconciler(repo *Repository, settings paporgConfig.GitSyncSpec, progress *paporgBroadcast.Broadcaster[ProgressEvent], changes *paporgBroadcast.Broadcaster[ConfigChangeEvent]) *GitReconciler {
	return &GitReconciler{repo: repo, settings: settings, progress: progress, changes: changes}
}

// Reconcile runs one fetch+pull --ff-only cycle and returns whether
// the pull changed any tracked files.
func (g *GitReconciler) Reconcile(ctx context.Context) (changed bool, err error) {
	if !g.repo.IsGitRepo() {
		return false, fmt.Errorf("gitops: %s is not a git repository", g.repo.Path())
	}

	op := NewOperationProgress(OperationPull, g.progress)
	op.Phase(PhasePulling, "Starting pull...")

	env, cleanup, err := authEnv(g.settings)
	if err != nil {
		op.Failed(err.Error())
		return false, err
	}
	defer cleanup.Close()

	cmd := exec.CommandContext(ctx, "git", "pull", "--ff-only", "--progress", "origin", g.settings.Branch)
	cmd.Dir = g.repo.Path()
	cmd.Env = append(os.Environ(), env...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		op.Failed(err.Error())
		return false, fmt.Errorf("gitops: pull: %w", err)
	}

	if err := cmd.Start(); err != nil {
		op.Failed(err.Error())
		return false, fmt.Errorf("gitops: pull: %w", err)
	}

	var stderrBuf bytes.Buffer
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		stderrBuf.WriteString(line)
		stderrBuf.WriteByte('\n')
		op.UpdateFromOutput(line)
	}

	runErr := cmd.Wait()
	if runErr != nil {
		msg := formatGitError(stdout.String(), stderrBuf.String(), runErr)
		op.Failed(msg)
		return false, fmt.Errorf("gitops: pull: %s", msg)
	}

	alreadyUpToDate := strings.Contains(stdout.String(), "Already up to date")
	if alreadyUpToDate {
		op.Completed("Pull completed - already up to date")
		return false, nil
	}

	op.Completed("Pull completed")
	filesChanged := countChangedFiles(stdout.String())
	g.publishChange(filesChanged)
	return true, nil
}

// Fetch runs `git fetch --progress origin <branch>` with streamed
// progress, without merging (spec §6).
func (g *GitReconciler) Fetch(ctx context.Context, branch string) error {
	if !g.repo.IsGitRepo() {
		return fmt.Errorf("gitops: %s is not a git repository", g.repo.Path())
	}

	op := NewOperationProgress(OperationFetch, g.progress)
	op.Phase(PhaseFetching, "Fetching from remote...")

	env, cleanup, err := authEnv(g.settings)
	if err != nil {
		op.Failed(err.Error())
		return err
	}
	defer cleanup.Close()

	cmd := exec.CommandContext(ctx, "git", "fetch", "--progress", "origin", branch)
	cmd.Dir = g.repo.Path()
	cmd.Env = append(os.Environ(), env...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		op.Failed(err.Error())
		return fmt.Errorf("gitops: fetch: %w", err)
	}
	if err := cmd.Start(); err != nil {
		op.Failed(err.Error())
		return fmt.Errorf("gitops: fetch: %w", err)
	}

	var stderrBuf bytes.Buffer
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		stderrBuf.WriteString(line)
		stderrBuf.WriteByte('\n')
		op.UpdateFromOutput(line)
	}

	if err := cmd.Wait(); err != nil {
		msg := formatGitError(stdout.String(), stderrBuf.String(), err)
		op.Failed(msg)
		return fmt.Errorf("gitops: fetch: %s", msg)
	}

	op.Completed("Fetch completed")
	return nil
}

func (g *GitReconciler) publishChange(filesChanged int) {
	if g.changes == nil {
		return
	}
	g.changes.Publish(ConfigChangeEvent{Branch: g.settings.Branch, FilesChanged: filesChanged, Timestamp: time.Now()})
}

// countChangedFiles counts the per-file summary lines in `git pull`'s
// stdout (lines of the form " path/to/file | 3 ++-"), mirroring
// git.rs's count_changed_files.
func countChangedFiles(pullStdout string) int {
	count := 0
	for _, line := range strings.Split(pullStdout, "\n") {
		if strings.Contains(line, "|") && !strings.Contains(line, "changed,") {
			count++
		}
	}
	return count
}
