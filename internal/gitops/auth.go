// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// askpassCleanup deletes its askpass script file exactly once,
// regardless of the git command's outcome (spec §4.11: "An RAII
// cleanup object deletes the file on scope exit regardless of
// success", grounded on git.rs's AskpassCleanup).
type askpassCleanup struct {
	path string
}

func (c *askpassCleanup) Close() error {
	if c.path == "" {
		return nil
	}
	path := c.path
	c.path = ""
	return os.Remove(path)
}

// shellEscapeToken escapes a token for safe use inside a single-quoted
// POSIX shell string: replaces each `'` with `'\''` (end quote, escaped
// quote, resume quote).
func shellEscapeToken(token string) string {
	return strings.ReplaceAll(token, "'", `'\''`)
}

// authEnv resolves settings.AuthMethod into the environment variables
// git needs for non-interactive auth, plus a cleanup handle the caller
// must Close after the git command exits. "none" and an empty method
// both resolve to no auth.
func authEnv(settings paporgConfig.GitSyncSpec) ([]string, *askpassCleanup, error) {
	switch settings.AuthMethod {
	case "", "none":
		return nil, &askpassCleanup{}, nil
	case "token":
		return tokenAuthEnv(settings)
	case "ssh":
		return sshAuthEnv(settings)
	default:
		return nil, nil, fmt.Errorf("gitops: unknown authMethod %q", settings.AuthMethod)
	}
}

// tokenAuthEnv writes a short-lived askpass script that echoes the
// token resolved from settings.TokenEnvVar, created atomically
// (O_CREATE|O_EXCL) with owner-only permissions (spec §4.11).
func tokenAuthEnv(settings paporgConfig.GitSyncSpec) ([]string, *askpassCleanup, error) {
	if settings.TokenEnvVar == "" {
		return nil, nil, fmt.Errorf("gitops: authMethod token requires tokenEnvVar")
	}
	token := os.Getenv(settings.TokenEnvVar)
	if token == "" {
		return nil, nil, fmt.Errorf("gitops: environment variable %s is not set", settings.TokenEnvVar)
	}

	script := "#!/bin/sh\necho '" + shellEscapeToken(token) + "'\n"
	path := filepath.Join(os.TempDir(), fmt.Sprintf(".git-askpass-%s.sh", uuid.NewString()))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o700)
	if err != nil {
		return nil, nil, fmt.Errorf("gitops: creating askpass script: %w", err)
	}
	_, writeErr := f.WriteString(script)
	closeErr := f.Close()
	if writeErr != nil {
		_ = os.Remove(path)
		return nil, nil, fmt.Errorf("gitops: writing askpass script: %w", writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return nil, nil, fmt.Errorf("gitops: closing askpass script: %w", closeErr)
	}

	return []string{
		"GIT_ASKPASS=" + path,
		"GIT_TERMINAL_PROMPT=0",
	}, &askpassCleanup{path: path}, nil
}

// sshAuthEnv sets GIT_SSH_COMMAND to use settings.SSHKeyPath (default
// ~/.ssh/id_ed25519) with StrictHostKeyChecking=accept-new: new hosts
// are trusted on first connect, but a changed host key is rejected
// (spec §4.11).
func sshAuthEnv(settings paporgConfig.GitSyncSpec) ([]string, *askpassCleanup, error) {
	keyPath, err := expandSSHKeyPath(settings.SSHKeyPath)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(keyPath); err != nil {
		return nil, nil, fmt.Errorf("gitops: SSH key file not found: %s", keyPath)
	}

	cmd := fmt.Sprintf("ssh -i %s -o StrictHostKeyChecking=accept-new", keyPath)
	return []string{"GIT_SSH_COMMAND=" + cmd}, &askpassCleanup{}, nil
}

func expandSSHKeyPath(configured string) (string, error) {
	if configured == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("gitops: resolving home directory for default SSH key: %w", err)
		}
		return filepath.Join(home, ".ssh", "id_ed25519"), nil
	}
	if configured == "~" || strings.HasPrefix(configured, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("gitops: resolving home directory for sshKeyPath: %w", err)
		}
		if configured == "~" {
			return home, nil
		}
		return filepath.Join(home, configured[2:]), nil
	}
	return configured, nil
}
