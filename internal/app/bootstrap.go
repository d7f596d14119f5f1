// Copyright (c) 2025 Justin Cranford

package app

import (
	"fmt"
	"os"
	"path/filepath"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// DefaultConfigDir returns the platform-appropriate config directory
// (os.UserConfigDir()/paporg), mirroring the original's
// default_config_dir (dirs::config_dir().join("paporg")) without
// pulling in a third-party "dirs" crate-equivalent — os.UserConfigDir
// already resolves to the same per-OS locations (%AppData%,
// ~/Library/Application Support, $XDG_CONFIG_HOME) the original's
// `dirs` crate does.
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("app: resolving user config dir: %w", err)
	}
	return filepath.Join(base, "paporg"), nil
}

// EnsureConfigInitialized creates configDir and its rules/sources
// subdirectories, a minimal settings.yaml, a sample rule, and a
// .gitignore, when they don't already exist (spec §4.10's "a fresh
// config directory is usable without hand-authoring every resource").
// Grounded on state.rs's ensure_config_initialized.
func EnsureConfigInitialized(configDir string) error {
	for _, dir := range []string{configDir, filepath.Join(configDir, paporgMagic.RulesDirName), filepath.Join(configDir, paporgMagic.SourcesDirName)} {
		if err := os.MkdirAll(dir, paporgMagic.DefaultDirPermissions); err != nil {
			return fmt.Errorf("app: creating %s: %w", dir, err)
		}
	}

	settingsPath := filepath.Join(configDir, paporgMagic.SettingsFileName)
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		inputDir, outputDir := defaultInputOutputDirs()
		if err := os.MkdirAll(inputDir, paporgMagic.DefaultDirPermissions); err != nil {
			return fmt.Errorf("app: creating default input dir: %w", err)
		}
		if err := os.MkdirAll(outputDir, paporgMagic.DefaultDirPermissions); err != nil {
			return fmt.Errorf("app: creating default output dir: %w", err)
		}

		settings := fmt.Sprintf(`apiVersion: %s
kind: Settings
metadata:
  name: settings
spec:
  inputDir: %q
  outputDir: %q
  workerCount: %d
  ocrDpi: %d
  defaultCategory: unsorted
  defaultOutputTemplate:
    directory: unsorted
    filename: "$original"
`, paporgMagic.APIVersion, inputDir, outputDir, paporgMagic.DefaultWorkerCnt, paporgMagic.DefaultOCRDPI)
		if err := os.WriteFile(settingsPath, []byte(settings), paporgMagic.DefaultFilePermissions); err != nil {
			return fmt.Errorf("app: writing default settings.yaml: %w", err)
		}
	}

	gitignorePath := filepath.Join(configDir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		gitignore := "logs/\n*.db\n*.db-wal\n*.db-shm\ninbox/\n"
		if err := os.WriteFile(gitignorePath, []byte(gitignore), paporgMagic.DefaultFilePermissions); err != nil {
			return fmt.Errorf("app: writing .gitignore: %w", err)
		}
	}

	rulesDir := filepath.Join(configDir, paporgMagic.RulesDirName)
	entries, err := os.ReadDir(rulesDir)
	if err != nil {
		return fmt.Errorf("app: reading rules dir: %w", err)
	}
	if len(entries) == 0 {
		sampleRule := fmt.Sprintf(`apiVersion: %s
kind: Rule
metadata:
  name: sample-invoice
spec:
  priority: 50
  category: invoices
  match:
    containsAny:
      - Invoice
      - invoice
      - Rechnung
  output:
    directory: "invoices/$y"
    filename: "$y-$m-$d_$original"
`, paporgMagic.APIVersion)
		samplePath := filepath.Join(rulesDir, "sample-invoice.yaml")
		if err := os.WriteFile(samplePath, []byte(sampleRule), paporgMagic.DefaultFilePermissions); err != nil {
			return fmt.Errorf("app: writing sample rule: %w", err)
		}
	}

	return nil
}

// defaultInputOutputDirs returns $HOME/Documents/Paporg/{Input,Output},
// falling back to relative ./input and ./output when the home
// directory can't be resolved (mirrors get_default_directories).
func defaultInputOutputDirs() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./input", "./output"
	}
	base := filepath.Join(home, "Documents", "Paporg")
	return filepath.Join(base, "Input"), filepath.Join(base, "Output")
}
