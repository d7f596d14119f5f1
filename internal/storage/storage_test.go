// Copyright (c) 2025 Justin Cranford

package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	paporgStorage "github.com/iperka/paporg-sub000/internal/storage"
)

func TestFileStorage_StoreCreatesDirAndFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := paporgStorage.New(dir)

	path, err := fs.Store([]byte("Hello, World!"), "2026/invoices", "test", "pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2026/invoices", "test.pdf"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", string(content))
}

func TestFileStorage_StoreResolvesConflictsWithNumericSuffix(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := paporgStorage.New(dir)

	p1, err := fs.Store([]byte("a"), "", "doc", "pdf")
	require.NoError(t, err)
	p2, err := fs.Store([]byte("b"), "", "doc", "pdf")
	require.NoError(t, err)
	p3, err := fs.Store([]byte("c"), "", "doc", "pdf")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "doc.pdf"), p1)
	require.Equal(t, filepath.Join(dir, "doc_2.pdf"), p2)
	require.Equal(t, filepath.Join(dir, "doc_3.pdf"), p3)
}

func TestFileStorage_StoreNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := paporgStorage.New(dir)

	path, err := fs.Store([]byte("x"), "", "README", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "README"), path)
}

func TestFileStorage_ArchiveSource_MovesAndPrefixesWithDate(t *testing.T) {
	t.Parallel()
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	fs := paporgStorage.New(outputDir)

	srcPath := filepath.Join(inputDir, "invoice.pdf")
	require.NoError(t, os.WriteFile(srcPath, []byte("source"), 0o644))

	archivePath, err := fs.ArchiveSource(srcPath, inputDir)
	require.NoError(t, err)
	require.Contains(t, filepath.Base(archivePath), "invoice.pdf")
	require.DirExists(t, filepath.Join(inputDir, "archive"))

	_, statErr := os.Stat(srcPath)
	require.True(t, os.IsNotExist(statErr))

	content, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	require.Equal(t, "source", string(content))
}

func TestFileStorage_ArchiveSource_ResolvesConflicts(t *testing.T) {
	t.Parallel()
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	fs := paporgStorage.New(outputDir)

	src1 := filepath.Join(inputDir, "a", "invoice.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(src1), 0o755))
	require.NoError(t, os.WriteFile(src1, []byte("1"), 0o644))
	src2 := filepath.Join(inputDir, "b", "invoice.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(src2), 0o755))
	require.NoError(t, os.WriteFile(src2, []byte("2"), 0o644))

	p1, err := fs.ArchiveSource(src1, inputDir)
	require.NoError(t, err)
	p2, err := fs.ArchiveSource(src2, inputDir)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)
}

func TestSymlinkManager_CreatesLinkUnderOutputRoot(t *testing.T) {
	t.Parallel()
	outputDir := t.TempDir()
	target := filepath.Join(outputDir, "2026", "invoices", "doc.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	mgr := paporgStorage.NewSymlinkManager(outputDir)
	linkPath, err := mgr.CreateSymlink(target, "links/by-vendor")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outputDir, "links/by-vendor", "doc.pdf"), linkPath)

	resolved, err := os.Readlink(linkPath)
	require.NoError(t, err)
	require.Equal(t, target, resolved)
}

func TestSymlinkManager_DuplicateLinkFails(t *testing.T) {
	t.Parallel()
	outputDir := t.TempDir()
	target := filepath.Join(outputDir, "doc.pdf")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	mgr := paporgStorage.NewSymlinkManager(outputDir)
	_, err := mgr.CreateSymlink(target, "links")
	require.NoError(t, err)

	_, err = mgr.CreateSymlink(target, "links")
	require.Error(t, err)
}
