// Copyright (c) 2025 Justin Cranford

// Package storage implements FileStorage (atomic create-new output
// writes with numbered-conflict resolution, source archival) and
// SymlinkManager (best-effort mirror links into the output tree),
// spec §4.4.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// ErrConflictExhausted is returned when Store/archiving can't find a
// free name within MaxNameConflicts attempts.
var ErrConflictExhausted = errors.New("storage: no available filename after max conflict attempts")

// FileStorage writes canonical artifacts under a fixed output root.
type FileStorage struct {
	OutputDirectory string
}

// New builds a FileStorage rooted at outputDirectory.
func New(outputDirectory string) *FileStorage {
	return &FileStorage{OutputDirectory: outputDirectory}
}

// Store creates relativeDirectory under the output root if needed,
// then atomically creates "filename.extension", resolving conflicts
// as name_2.ext, name_3.ext, ... up to magic.MaxNameConflicts (spec
// §4.4: "this loop is the conflict-resolution contract; tests assert
// the numeric suffix sequence").
func (s *FileStorage) Store(content []byte, relativeDirectory, filename, extension string) (string, error) {
	dirPath := filepath.Join(s.OutputDirectory, relativeDirectory)
	if err := ensureDirectory(dirPath); err != nil {
		return "", err
	}

	fullFilename := filename
	if extension != "" {
		fullFilename = filename + "." + extension
	}

	for counter := 1; counter <= paporgMagic.MaxNameConflicts; counter++ {
		candidate := fullFilename
		if counter > 1 {
			candidate = fmt.Sprintf("%s_%d", filename, counter)
			if extension != "" {
				candidate += "." + extension
			}
		}
		tryPath := filepath.Join(dirPath, candidate)

		f, err := os.OpenFile(tryPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, paporgMagic.DefaultFilePermissions)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("storage: creating %s: %w", tryPath, err)
		}
		_, writeErr := f.Write(content)
		closeErr := f.Close()
		if writeErr != nil {
			return "", fmt.Errorf("storage: writing %s: %w", tryPath, writeErr)
		}
		if closeErr != nil {
			return "", fmt.Errorf("storage: closing %s: %w", tryPath, closeErr)
		}
		return tryPath, nil
	}

	return "", fmt.Errorf("%w: %s", ErrConflictExhausted, filepath.Join(dirPath, fullFilename))
}

// ArchiveSource moves sourcePath into {inputDirectory}/archive/,
// prefixed with today's YYYY-MM-DD, resolving name conflicts the
// same way Store does.
func (s *FileStorage) ArchiveSource(sourcePath, inputDirectory string) (string, error) {
	archiveDir := filepath.Join(inputDirectory, paporgMagic.ArchiveDirName)
	if err := ensureDirectory(archiveDir); err != nil {
		return "", err
	}

	datePrefix := time.Now().UTC().Format("2006-01-02")
	archiveFilename := fmt.Sprintf("%s_%s", datePrefix, filepath.Base(sourcePath))

	archivePath, err := resolveConflict(archiveDir, archiveFilename)
	if err != nil {
		return "", err
	}

	if err := moveFile(sourcePath, archivePath); err != nil {
		return "", err
	}
	return archivePath, nil
}

func ensureDirectory(path string) error {
	if err := os.MkdirAll(path, paporgMagic.DefaultDirPermissions); err != nil {
		return fmt.Errorf("storage: creating directory %s: %w", path, err)
	}
	return nil
}

// resolveConflict returns a non-colliding candidate path, checking
// symlink_metadata-equivalent (os.Lstat) so a broken symlink still
// counts as occupying the name.
func resolveConflict(directory, filename string) (string, error) {
	path := filepath.Join(directory, filename)
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path, nil
	}

	base, ext := splitExt(filename)
	for counter := 2; counter <= paporgMagic.MaxNameConflicts; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		candidatePath := filepath.Join(directory, candidate)
		if _, err := os.Lstat(candidatePath); errors.Is(err, os.ErrNotExist) {
			return candidatePath, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrConflictExhausted, path)
}

func splitExt(filename string) (base, ext string) {
	if dot := lastIndexByte(filename, '.'); dot >= 0 {
		return filename[:dot], filename[dot:]
	}
	return filename, ""
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// moveFile renames src to dst, falling back to copy+delete so
// cross-device moves succeed (spec §4.4).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("storage: moving %s to %s: %w", src, dst, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, paporgMagic.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("storage: moving %s to %s: %w", src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("storage: moving %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("storage: moving %s to %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("storage: removing %s after copy: %w", src, err)
	}
	return nil
}
