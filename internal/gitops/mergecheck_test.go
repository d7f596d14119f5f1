// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

func TestParseMergeTreeConflicts(t *testing.T) {
	t.Parallel()
	output := `changed in both
  base   100644 1111111111111111111111111111111111111111 docs/notes.md
  our    100644 2222222222222222222222222222222222222222 docs/notes.md
  their  100644 3333333333333333333333333333333333333333 docs/notes.md
@@ -1,1 +1,1 @@
-old
+new

added in remote
  their  100644 4444444444444444444444444444444444444444 settings.yaml
`
	files := parseMergeTreeConflicts(output)
	require.ElementsMatch(t, []string{"docs/notes.md", "settings.yaml"}, files)
}

func TestParseMergeTreeConflicts_NoConflicts(t *testing.T) {
	t.Parallel()
	require.Empty(t, parseMergeTreeConflicts(""))
	require.Empty(t, parseMergeTreeConflicts("some unrelated chatter\n"))
}

func TestRepository_CheckMergeConflicts_CleanFastForward(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	remoteDir := t.TempDir()
	cloneDir := t.TempDir()
	setupBareStyleRemote(t, remoteDir)

	cmd := exec.Command("git", "clone", remoteDir, cloneDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("git clone: %v\n%s", err, out)
	}

	r := NewRepository(cloneDir, paporgConfig.GitSyncSpec{Branch: "main"})
	status, err := r.CheckMergeConflicts(context.Background(), "main")
	require.NoError(t, err)
	require.True(t, status.CanFastForward)
	require.False(t, status.HasConflicts)
}

// setupBareStyleRemote creates a normal (non-bare) repo at dir with
// one commit on main, usable as a clone source for tests.
func setupBareStyleRemote(t *testing.T, dir string) {
	t.Helper()
	for _, args := range [][]string{
		{"init", "-b", "main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
		{"config", "receive.denyCurrentBranch", "ignore"},
	} {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git setup: %v\n%s", err, out)
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644))
	for _, args := range [][]string{{"add", "."}, {"commit", "-m", "initial"}} {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git setup: %v\n%s", err, out)
		}
	}
}
