// Copyright (c) 2025 Justin Cranford

// Package config parses, validates, and assembles the versioned YAML
// resource tree (spec §3, §4.10, §6) into a ready-to-use LoadedConfig.
package config

import "time"

// Metadata is the common envelope metadata every resource carries.
type Metadata struct {
	Name string `yaml:"name"`
}

// Envelope is the outer shape every resource file must have
// (spec §6): apiVersion, kind, metadata.name, spec.
type Envelope struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       any      `yaml:"spec"`
}

// OutputTemplateSpec is the {directory, filename} template pair used
// by both Settings defaults and Rule output/symlink declarations.
type OutputTemplateSpec struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
}

// SettingsSpec is the single required Settings resource.
type SettingsSpec struct {
	InputDir              string             `yaml:"inputDir"`
	OutputDir             string             `yaml:"outputDir"`
	WorkerCount           int                `yaml:"workerCount"`
	OCRDPI                int                `yaml:"ocrDpi"`
	DefaultCategory       string             `yaml:"defaultCategory"`
	DefaultOutputTemplate OutputTemplateSpec `yaml:"defaultOutputTemplate"`
	DefaultSymlinks       []string           `yaml:"defaultSymlinkTemplates"`
	GitSync               *GitSyncSpec       `yaml:"gitSync"`
}

// GitSyncSpec configures the reconciler/scheduler (spec §4.11).
type GitSyncSpec struct {
	RemoteURL    string        `yaml:"remoteUrl"`
	Branch       string        `yaml:"branch"`
	SyncInterval time.Duration `yaml:"syncInterval"`
	AuthMethod   string        `yaml:"authMethod"` // "token" | "ssh" | "none"
	TokenEnvVar  string        `yaml:"tokenEnvVar,omitempty"`
	SSHKeyPath   string        `yaml:"sshKeyPath,omitempty"`
	UserName     string        `yaml:"userName,omitempty"`
	UserEmail    string        `yaml:"userEmail,omitempty"`
}

// VariableSpec declares one ExtractedVariable (spec §3).
type VariableSpec struct {
	Name      string  `yaml:"name"`
	Pattern   string  `yaml:"pattern"`
	Transform string  `yaml:"transform,omitempty"`
	Default   *string `yaml:"default,omitempty"`
}

// MatchSpec is the YAML-friendly mirror of categorizer.MatchCondition
// (a recursive union type; only one "shape" of fields should be
// populated per node, enforced by the validator, not by the YAML
// schema itself).
type MatchSpec struct {
	Contains    *string     `yaml:"contains,omitempty"`
	ContainsAny []string    `yaml:"containsAny,omitempty"`
	ContainsAll []string    `yaml:"containsAll,omitempty"`
	Pattern     *string     `yaml:"pattern,omitempty"`
	All         []MatchSpec `yaml:"all,omitempty"`
	Any         []MatchSpec `yaml:"any,omitempty"`
	Not         *MatchSpec  `yaml:"not,omitempty"`
}

// IsSimpleShape reports whether m carries only Simple-condition fields.
func (m MatchSpec) IsSimpleShape() bool {
	return len(m.All) == 0 && len(m.Any) == 0 && m.Not == nil
}

// IsCompoundShape reports whether m carries only Compound-condition fields.
func (m MatchSpec) IsCompoundShape() bool {
	return m.Contains == nil && len(m.ContainsAny) == 0 && len(m.ContainsAll) == 0 && m.Pattern == nil
}

// IsEmpty reports whether m has nothing populated at all.
func (m MatchSpec) IsEmpty() bool {
	return m.IsSimpleShape() && m.IsCompoundShape()
}

// RuleSpec declares one prioritized (match -> category, templates) rule.
type RuleSpec struct {
	Priority int                `yaml:"priority"`
	Match    MatchSpec          `yaml:"match"`
	Category string             `yaml:"category"`
	Output   OutputTemplateSpec `yaml:"output"`
	Symlinks []string           `yaml:"symlinks,omitempty"`
}

// LocalSourceSpec configures a local-directory ImportSource.
type LocalSourceSpec struct {
	Path         string        `yaml:"path"`
	Recursive    bool          `yaml:"recursive"`
	Include      []string      `yaml:"include,omitempty"`
	Exclude      []string      `yaml:"exclude,omitempty"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

// EmailAuthSpec describes password or OAuth2 mailbox auth.
type EmailAuthSpec struct {
	Password *string         `yaml:"password,omitempty"`
	OAuth2   *EmailOAuthSpec `yaml:"oauth2,omitempty"`
}

// EmailOAuthSpec configures an OAuth2 device-flow provider.
type EmailOAuthSpec struct {
	Provider      string   `yaml:"provider"` // "google" | "microsoft" | "custom"
	ClientID      string   `yaml:"clientId"`
	ClientSecret  string   `yaml:"clientSecret,omitempty"`
	DeviceAuthURL string   `yaml:"deviceAuthUrl,omitempty"`
	TokenURL      string   `yaml:"tokenUrl,omitempty"`
	Scopes        []string `yaml:"scopes,omitempty"`
}

// EmailSourceSpec configures an IMAP ImportSource.
type EmailSourceSpec struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Auth            EmailAuthSpec `yaml:"auth"`
	Folder          string        `yaml:"folder"`
	MIMEFilters     []string      `yaml:"mimeFilters,omitempty"`
	FilenameFilters []string      `yaml:"filenameFilters,omitempty"`
	MinSizeBytes    int64         `yaml:"minSizeBytes,omitempty"`
	MaxSizeBytes    int64         `yaml:"maxSizeBytes,omitempty"`
	BatchSize       int           `yaml:"batchSize"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	SinceDate       *time.Time    `yaml:"sinceDate,omitempty"`
}

// ImportSourceSpec is a tagged local/email source (spec §3).
type ImportSourceSpec struct {
	Type    string           `yaml:"type"` // "local" | "email"
	Enabled bool             `yaml:"enabled"`
	Local   *LocalSourceSpec `yaml:"local,omitempty"`
	Email   *EmailSourceSpec `yaml:"email,omitempty"`
}

// VariableResource, RuleResource, ImportSourceResource, SettingsResource
// pair an Envelope's identity with its typed spec, post-routing by kind.
type VariableResource struct {
	Name string
	Spec VariableSpec
}

type RuleResource struct {
	Name string
	Spec RuleSpec
}

type ImportSourceResource struct {
	Name string
	Spec ImportSourceSpec
}

type SettingsResource struct {
	Name string
	Spec SettingsSpec
}

// RawTree is everything ConfigLoader.Load parses from disk, before
// validation and before legacy.go converts it into engine types.
type RawTree struct {
	Settings  SettingsResource
	Variables []VariableResource
	Rules     []RuleResource
	Sources   []ImportSourceResource
}
