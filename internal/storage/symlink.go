// Copyright (c) 2025 Justin Cranford

package storage

import (
	"fmt"
	"os"
	"path/filepath"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// SymlinkManager mirrors stored artifacts under additional resolved
// paths within the output root. Failure here is always a pipeline
// warning, never a job failure (spec §4.4).
type SymlinkManager struct {
	OutputDirectory string
}

// NewSymlinkManager builds a SymlinkManager rooted at outputDirectory.
func NewSymlinkManager(outputDirectory string) *SymlinkManager {
	return &SymlinkManager{OutputDirectory: outputDirectory}
}

// CreateSymlink resolves linkDir under the output root, creates it,
// and symlinks to targetPath inside it, using targetPath's base name
// as the link name. Returns the created link path.
func (m *SymlinkManager) CreateSymlink(targetPath, linkDir string) (string, error) {
	resolvedDir := filepath.Join(m.OutputDirectory, linkDir)
	if err := os.MkdirAll(resolvedDir, paporgMagic.DefaultDirPermissions); err != nil {
		return "", fmt.Errorf("storage: creating symlink dir %s: %w", resolvedDir, err)
	}

	linkPath := filepath.Join(resolvedDir, filepath.Base(targetPath))
	if err := os.Symlink(targetPath, linkPath); err != nil {
		return "", fmt.Errorf("storage: symlinking %s -> %s: %w", linkPath, targetPath, err)
	}
	return linkPath, nil
}
