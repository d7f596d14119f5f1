// Copyright (c) 2025 Justin Cranford

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// Error is the ConfigError taxonomy member (spec §7): load/validate
// failures. Validation errors are aggregated (see Validate), so Error
// can wrap a multi-error joined with errors.Join.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("config: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func newError(op string, err error) *Error { return &Error{Op: op, Err: err} }

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Load walks dir (spec §4.10), skipping hidden files/directories,
// parses every YAML resource file, and routes it by Kind into a
// RawTree. It does not validate cross-resource invariants — call
// Validate on the result for that.
func Load(dir string) (RawTree, error) {
	var tree RawTree
	var settingsCount int
	seenNames := map[string]map[string]bool{} // kind -> name -> seen

	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." {
			for _, part := range strings.Split(rel, string(filepath.Separator)) {
				if isHidden(part) {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", path, readErr)
		}

		var env Envelope
		if err := yaml.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if env.APIVersion != paporgMagic.APIVersion {
			return fmt.Errorf("%s: apiVersion must be %q, got %q", path, paporgMagic.APIVersion, env.APIVersion)
		}

		if seenNames[env.Kind] == nil {
			seenNames[env.Kind] = map[string]bool{}
		}
		if seenNames[env.Kind][env.Metadata.Name] {
			return fmt.Errorf("%s: duplicate %s name %q", path, env.Kind, env.Metadata.Name)
		}
		seenNames[env.Kind][env.Metadata.Name] = true

		specBytes, err := yaml.Marshal(env.Spec)
		if err != nil {
			return fmt.Errorf("%s: re-marshaling spec: %w", path, err)
		}

		switch env.Kind {
		case paporgMagic.KindSettings:
			settingsCount++
			if settingsCount > 1 {
				return fmt.Errorf("%s: more than one Settings resource found", path)
			}
			var spec SettingsSpec
			if err := yaml.Unmarshal(specBytes, &spec); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			tree.Settings = SettingsResource{Name: env.Metadata.Name, Spec: spec}
		case paporgMagic.KindVariable:
			var spec VariableSpec
			if err := yaml.Unmarshal(specBytes, &spec); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			tree.Variables = append(tree.Variables, VariableResource{Name: env.Metadata.Name, Spec: spec})
		case paporgMagic.KindRule:
			var spec RuleSpec
			if err := yaml.Unmarshal(specBytes, &spec); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			tree.Rules = append(tree.Rules, RuleResource{Name: env.Metadata.Name, Spec: spec})
		case paporgMagic.KindImportSource:
			var spec ImportSourceSpec
			if err := yaml.Unmarshal(specBytes, &spec); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			tree.Sources = append(tree.Sources, ImportSourceResource{Name: env.Metadata.Name, Spec: spec})
		default:
			return fmt.Errorf("%s: unknown kind %q", path, env.Kind)
		}
		return nil
	})
	if walkErr != nil {
		return RawTree{}, newError("load", walkErr)
	}
	if settingsCount == 0 {
		return RawTree{}, newError("load", errors.New("exactly one Settings resource is required, found none"))
	}

	return tree, nil
}

// WriteResource serializes a resource to path with the schema-hint
// comment the spec's writer prepends (spec §6).
func WriteResource(path, kind, name string, spec any) error {
	env := Envelope{APIVersion: paporgMagic.APIVersion, Kind: kind, Metadata: Metadata{Name: name}, Spec: spec}
	body, err := yaml.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling %s/%s: %w", kind, name, err)
	}
	header := fmt.Sprintf("%s./schema/%s.json\n", paporgMagic.SchemaCommentPrefix, strings.ToLower(kind))
	return os.WriteFile(path, append([]byte(header), body...), paporgMagic.DefaultFilePermissions)
}
