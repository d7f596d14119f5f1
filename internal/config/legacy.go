// Copyright (c) 2025 Justin Cranford

package config

import (
	"fmt"
	"regexp"

	paporgCategorizer "github.com/iperka/paporg-sub000/internal/categorizer"
)

// Settings is the engine-ready form of SettingsSpec: paths cleaned and
// tilde-expanded.
type Settings struct {
	InputDir              string
	OutputDir             string
	WorkerCount           int
	OCRDPI                int
	DefaultCategory       string
	DefaultOutputTemplate OutputTemplateSpec
	DefaultSymlinks       []string
	GitSync               *GitSyncSpec
}

// ExtractedVariable is the engine-ready form of VariableSpec, with its
// regex pre-compiled (spec §3).
type ExtractedVariable struct {
	Name      string
	Regex     *regexp.Regexp
	Transform string
	Default   *string
}

// ImportSource is the engine-ready form of an enabled ImportSourceSpec
// (disabled sources are skipped at load, per spec §3).
type ImportSource struct {
	Name  string
	Type  string
	Local *LocalSourceSpec
	Email *EmailSourceSpec
}

// LoadedConfig is everything the pipeline/scanner/worker layer needs,
// assembled from a validated RawTree (spec §4.10: "The loader emits a
// LoadedConfig with rules pre-sorted by descending priority").
type LoadedConfig struct {
	Settings    Settings
	Categorizer *paporgCategorizer.Categorizer
	Variables   []ExtractedVariable
	Sources     []ImportSource
}

func convertMatch(m MatchSpec) paporgCategorizer.MatchCondition {
	if !m.IsCompoundShape() {
		return &paporgCategorizer.Simple{
			Contains:    m.Contains,
			ContainsAny: m.ContainsAny,
			ContainsAll: m.ContainsAll,
			Pattern:     m.Pattern,
		}
	}
	c := &paporgCategorizer.Compound{}
	for _, sub := range m.All {
		c.All = append(c.All, convertMatch(sub))
	}
	for _, sub := range m.Any {
		c.Any = append(c.Any, convertMatch(sub))
	}
	if m.Not != nil {
		c.Not = convertMatch(*m.Not)
	}
	return c
}

// ToLoadedConfig converts a (previously validated) RawTree into a
// LoadedConfig. It is a pure function of its input (spec §8 invariant:
// "ConfigLoader.load(dir).to_legacy_config() is a pure function").
func ToLoadedConfig(tree RawTree) (*LoadedConfig, error) {
	variables := make([]ExtractedVariable, 0, len(tree.Variables))
	for _, v := range tree.Variables {
		re, err := regexp.Compile(v.Spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("config: variable %q: %w", v.Name, err)
		}
		variables = append(variables, ExtractedVariable{
			Name:      v.Spec.Name,
			Regex:     re,
			Transform: v.Spec.Transform,
			Default:   v.Spec.Default,
		})
	}

	rules := make([]paporgCategorizer.Rule, 0, len(tree.Rules))
	for _, r := range tree.Rules {
		rules = append(rules, paporgCategorizer.Rule{
			ID:               r.Name,
			Priority:         r.Spec.Priority,
			Match:            convertMatch(r.Spec.Match),
			Category:         r.Spec.Category,
			OutputDirectory:  r.Spec.Output.Directory,
			OutputFilename:   r.Spec.Output.Filename,
			SymlinkTemplates: r.Spec.Symlinks,
		})
	}

	defaultCategory := tree.Settings.Spec.DefaultCategory
	if defaultCategory == "" {
		defaultCategory = "unsorted"
	}
	cat, err := paporgCategorizer.New(rules, paporgCategorizer.Defaults{
		Category:         defaultCategory,
		OutputDirectory:  tree.Settings.Spec.DefaultOutputTemplate.Directory,
		OutputFilename:   tree.Settings.Spec.DefaultOutputTemplate.Filename,
		SymlinkTemplates: tree.Settings.Spec.DefaultSymlinks,
	})
	if err != nil {
		return nil, fmt.Errorf("config: building categorizer: %w", err)
	}

	sources := make([]ImportSource, 0, len(tree.Sources))
	for _, s := range tree.Sources {
		if !s.Spec.Enabled {
			continue
		}
		sources = append(sources, ImportSource{Name: s.Name, Type: s.Spec.Type, Local: s.Spec.Local, Email: s.Spec.Email})
	}

	return &LoadedConfig{
		Settings: Settings{
			InputDir:              cleanPath(tree.Settings.Spec.InputDir),
			OutputDir:             cleanPath(tree.Settings.Spec.OutputDir),
			WorkerCount:           tree.Settings.Spec.WorkerCount,
			OCRDPI:                tree.Settings.Spec.OCRDPI,
			DefaultCategory:       defaultCategory,
			DefaultOutputTemplate: tree.Settings.Spec.DefaultOutputTemplate,
			DefaultSymlinks:       tree.Settings.Spec.DefaultSymlinks,
			GitSync:               tree.Settings.Spec.GitSync,
		},
		Categorizer: cat,
		Variables:   variables,
		Sources:     sources,
	}, nil
}
