// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

func TestShellEscapeToken(t *testing.T) {
	t.Parallel()
	require.Equal(t, `it'\''s`, shellEscapeToken("it's"))
	require.Equal(t, "plain", shellEscapeToken("plain"))
}

func TestAuthEnv_NoneOrEmptyIsNoop(t *testing.T) {
	t.Parallel()
	for _, method := range []string{"", "none"} {
		env, cleanup, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: method})
		require.NoError(t, err)
		require.Empty(t, env)
		require.NoError(t, cleanup.Close())
	}
}

func TestAuthEnv_UnknownMethod(t *testing.T) {
	t.Parallel()
	_, _, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: "bogus"})
	require.Error(t, err)
}

func TestAuthEnv_Token_MissingEnvVarConfigured(t *testing.T) {
	t.Parallel()
	_, _, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: "token"})
	require.Error(t, err)
}

func TestAuthEnv_Token_EnvVarNotSet(t *testing.T) {
	t.Setenv("GITOPS_TEST_TOKEN_UNSET", "")
	_, _, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: "token", TokenEnvVar: "GITOPS_TEST_TOKEN_UNSET"})
	require.Error(t, err)
}

func TestAuthEnv_Token_WritesAskpassScriptWithOwnerOnlyPerms(t *testing.T) {
	t.Setenv("GITOPS_TEST_TOKEN", "s3cr3t's")
	env, cleanup, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: "token", TokenEnvVar: "GITOPS_TEST_TOKEN"})
	require.NoError(t, err)
	require.Len(t, env, 2)
	require.Contains(t, env[0], "GIT_ASKPASS=")
	require.Contains(t, env[1], "GIT_TERMINAL_PROMPT=0")

	scriptPath := env[0][len("GIT_ASKPASS="):]
	info, err := os.Stat(scriptPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	content, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	require.Contains(t, string(content), `s3cr3t'\''s`)

	require.NoError(t, cleanup.Close())
	_, err = os.Stat(scriptPath)
	require.True(t, os.IsNotExist(err))
}

func TestAuthEnv_SSH_MissingKeyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, _, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: "ssh", SSHKeyPath: filepath.Join(dir, "no-such-key")})
	require.Error(t, err)
}

func TestAuthEnv_SSH_UsesConfiguredKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, []byte("fake-key"), 0o600))

	env, cleanup, err := authEnv(paporgConfig.GitSyncSpec{AuthMethod: "ssh", SSHKeyPath: keyPath})
	require.NoError(t, err)
	require.Len(t, env, 1)
	require.Contains(t, env[0], "GIT_SSH_COMMAND=")
	require.Contains(t, env[0], keyPath)
	require.Contains(t, env[0], "StrictHostKeyChecking=accept-new")
	require.NoError(t, cleanup.Close())
}

func TestExpandSSHKeyPath(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandSSHKeyPath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), got)

	got, err = expandSSHKeyPath("~/custom_key")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "custom_key"), got)

	got, err = expandSSHKeyPath("/absolute/path")
	require.NoError(t, err)
	require.Equal(t, "/absolute/path", got)
}
