// Copyright (c) 2025 Justin Cranford

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	paporgTemplate "github.com/iperka/paporg-sub000/internal/template"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks everything spec §4.10 describes, collecting every
// error across the full pass rather than stopping at the first
// (spec §7 policy: "validation errors are aggregated... surfaced
// together"). The returned error, when non-nil, is an errors.Join of
// every individual failure.
func Validate(tree RawTree) error {
	var errs []error

	errs = append(errs, validateSettings(tree.Settings.Spec)...)

	declaredVars := map[string]bool{}
	for _, v := range tree.Variables {
		errs = append(errs, validateVariable(v)...)
		declaredVars[v.Spec.Name] = true
	}

	knownName := func(name string) bool {
		return paporgTemplate.IsBuiltinName(name) || declaredVars[name]
	}

	for _, r := range tree.Rules {
		errs = append(errs, validateRule(r, knownName)...)
	}

	for _, s := range tree.Sources {
		errs = append(errs, validateSource(s)...)
	}

	errs = append(errs, validateDirectorySeparation(tree)...)

	return errors.Join(errs...)
}

func validateSettings(s SettingsSpec) []error {
	var errs []error
	if s.InputDir == "" {
		errs = append(errs, errors.New("settings: inputDir is required"))
	}
	if s.OutputDir == "" {
		errs = append(errs, errors.New("settings: outputDir is required"))
	}
	if s.WorkerCount <= 0 {
		errs = append(errs, errors.New("settings: workerCount must be positive"))
	}
	if s.OCRDPI <= 0 {
		errs = append(errs, errors.New("settings: ocrDpi must be positive"))
	}
	if s.DefaultOutputTemplate.Directory == "" || s.DefaultOutputTemplate.Filename == "" {
		errs = append(errs, errors.New("settings: defaultOutputTemplate.directory and .filename are required"))
	}
	if s.GitSync != nil {
		errs = append(errs, validateGitSync(*s.GitSync)...)
	}
	return errs
}

func validateGitSync(g GitSyncSpec) []error {
	var errs []error
	if g.RemoteURL == "" {
		errs = append(errs, errors.New("settings.gitSync: remoteUrl is required"))
	}
	if g.Branch == "" {
		errs = append(errs, errors.New("settings.gitSync: branch is required"))
	}
	switch g.AuthMethod {
	case "none":
	case "token":
		if g.TokenEnvVar == "" {
			errs = append(errs, errors.New("settings.gitSync: authMethod token requires tokenEnvVar"))
		}
	case "ssh":
	default:
		errs = append(errs, fmt.Errorf("settings.gitSync: unknown authMethod %q", g.AuthMethod))
	}
	return errs
}

func validateVariable(v VariableResource) []error {
	var errs []error
	if !identifierPattern.MatchString(v.Spec.Name) {
		errs = append(errs, fmt.Errorf("variable %q: name must be a valid identifier", v.Name))
	}
	if paporgTemplate.IsBuiltinName(v.Spec.Name) {
		errs = append(errs, fmt.Errorf("variable %q: collides with a built-in variable name", v.Name))
	}
	if v.Spec.Pattern == "" {
		errs = append(errs, fmt.Errorf("variable %q: pattern is required", v.Name))
	} else if _, err := regexp.Compile(v.Spec.Pattern); err != nil {
		errs = append(errs, fmt.Errorf("variable %q: invalid regex: %w", v.Name, err))
	}
	return errs
}

func isPathSafe(tmpl string) []error {
	var errs []error
	if filepath.IsAbs(tmpl) {
		errs = append(errs, fmt.Errorf("template %q must not be an absolute path", tmpl))
	}
	for _, part := range strings.Split(filepath.ToSlash(tmpl), "/") {
		if part == ".." {
			errs = append(errs, fmt.Errorf("template %q must not contain \"..\" path segments (path traversal)", tmpl))
			break
		}
	}
	return errs
}

func validateMatch(m MatchSpec, ruleName string, path string) []error {
	var errs []error
	if m.IsEmpty() {
		errs = append(errs, fmt.Errorf("rule %q: match condition at %s is empty", ruleName, path))
		return errs
	}
	if !m.IsSimpleShape() && !m.IsCompoundShape() {
		errs = append(errs, fmt.Errorf("rule %q: match condition at %s mixes simple and compound fields", ruleName, path))
	}
	if m.Pattern != nil {
		if _, err := regexp.Compile(*m.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("rule %q: match at %s: invalid pattern regex: %w", ruleName, path, err))
		}
	}
	for i, sub := range m.All {
		errs = append(errs, validateMatch(sub, ruleName, fmt.Sprintf("%s.all[%d]", path, i))...)
	}
	for i, sub := range m.Any {
		errs = append(errs, validateMatch(sub, ruleName, fmt.Sprintf("%s.any[%d]", path, i))...)
	}
	if m.Not != nil {
		errs = append(errs, validateMatch(*m.Not, ruleName, path+".not")...)
	}
	return errs
}

func validateRule(r RuleResource, knownName func(string) bool) []error {
	var errs []error
	if r.Spec.Category == "" {
		errs = append(errs, fmt.Errorf("rule %q: category is required", r.Name))
	}
	if r.Spec.Output.Directory == "" || r.Spec.Output.Filename == "" {
		errs = append(errs, fmt.Errorf("rule %q: output.directory and output.filename are required", r.Name))
	} else {
		errs = append(errs, isPathSafe(r.Spec.Output.Directory)...)
		if strings.ContainsAny(r.Spec.Output.Filename, "/\\") {
			errs = append(errs, fmt.Errorf("rule %q: output.filename must not contain '/' or '\\\\'", r.Name))
		}
	}
	errs = append(errs, validateMatch(r.Spec.Match, r.Name, "match")...)

	allTemplates := append([]string{r.Spec.Output.Directory, r.Spec.Output.Filename}, r.Spec.Symlinks...)
	for _, tmpl := range allTemplates {
		for _, ref := range paporgTemplate.ExtractReferences(tmpl, knownName) {
			if !knownName(ref) {
				errs = append(errs, fmt.Errorf("rule %q: template %q references unknown variable %q", r.Name, tmpl, ref))
			}
		}
	}
	return errs
}

func validateSource(s ImportSourceResource) []error {
	var errs []error
	if !s.Spec.Enabled {
		return nil
	}
	switch s.Spec.Type {
	case "local":
		if s.Spec.Local == nil {
			errs = append(errs, fmt.Errorf("source %q: type local requires a local block", s.Name))
			break
		}
		if s.Spec.Local.Path == "" {
			errs = append(errs, fmt.Errorf("source %q: local.path is required", s.Name))
		}
		for _, pat := range append(append([]string{}, s.Spec.Local.Include...), s.Spec.Local.Exclude...) {
			if _, err := doublestar.Match(pat, "probe"); err != nil {
				errs = append(errs, fmt.Errorf("source %q: invalid glob %q: %w", s.Name, pat, err))
			}
		}
	case "email":
		if s.Spec.Email == nil {
			errs = append(errs, fmt.Errorf("source %q: type email requires an email block", s.Name))
			break
		}
		e := s.Spec.Email
		if e.Host == "" || e.Username == "" {
			errs = append(errs, fmt.Errorf("source %q: email.host and email.username are required (TLS is always enforced)", s.Name))
		}
		if e.Auth.Password == nil && e.Auth.OAuth2 == nil {
			errs = append(errs, fmt.Errorf("source %q: email.auth requires password or oauth2", s.Name))
		}
		if e.Auth.OAuth2 != nil && e.Auth.OAuth2.Provider == "custom" && e.Auth.OAuth2.TokenURL == "" {
			errs = append(errs, fmt.Errorf("source %q: custom OAuth2 provider requires an explicit tokenUrl", s.Name))
		}
		for _, pat := range e.MIMEFilters {
			if !isValidMIMEPattern(pat) {
				errs = append(errs, fmt.Errorf("source %q: invalid MIME pattern %q", s.Name, pat))
			}
		}
		for _, pat := range e.FilenameFilters {
			if _, err := doublestar.Match(pat, "probe"); err != nil {
				errs = append(errs, fmt.Errorf("source %q: invalid filename glob %q: %w", s.Name, pat, err))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("source %q: unknown type %q", s.Name, s.Spec.Type))
	}
	return errs
}

// isValidMIMEPattern enforces the "type/subtype" or "type/*" grammar.
func isValidMIMEPattern(p string) bool {
	parts := strings.SplitN(p, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return true
}

func validateDirectorySeparation(tree RawTree) []error {
	var errs []error
	roots := map[string]string{"input": tree.Settings.Spec.InputDir, "output": tree.Settings.Spec.OutputDir}
	for _, s := range tree.Sources {
		if s.Spec.Enabled && s.Spec.Type == "local" && s.Spec.Local != nil {
			roots["source:"+s.Name] = s.Spec.Local.Path
		}
	}
	names := make([]string, 0, len(roots))
	for k := range roots {
		names = append(names, k)
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := cleanPath(roots[names[i]]), cleanPath(roots[names[j]])
			if a == "" || b == "" {
				continue
			}
			if a == b || strings.HasPrefix(a+string(filepath.Separator), b+string(filepath.Separator)) || strings.HasPrefix(b+string(filepath.Separator), a+string(filepath.Separator)) {
				errs = append(errs, fmt.Errorf("directory separation: %q (%s) overlaps %q (%s)", names[i], a, names[j], b))
			}
		}
	}
	return errs
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(expandTilde(p))
}

func expandTilde(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := homeDir()
		if err == nil {
			if p == "~" {
				return home
			}
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
