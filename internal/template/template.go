// Copyright (c) 2025 Justin Cranford

// Package template implements the PathTemplate engine (spec §4.1):
// built-in clock/filename substitution followed by user-extracted
// variable substitution, in a single non-recursive pass, then
// filesystem sanitization.
package template

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// Context carries the forward-only state a template substitution
// needs: the original source filename, the extracted-variable map,
// and the captured "now" (spec §4.1: "a captured now").
type Context struct {
	OriginalFilename string
	Variables        map[string]string
	Now              time.Time
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// builtins returns the built-in lookup table for ctx, computed once
// per Substitute call so $uuid is stable within one template.
func (ctx Context) builtins() map[string]string {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	original := ctx.OriginalFilename
	original = strings.TrimSuffix(original, filepath.Ext(original))

	return map[string]string{
		paporgMagic.VarYear:      now.Format("2006"),
		paporgMagic.VarMonth:     now.Format("01"),
		paporgMagic.VarDay:       now.Format("02"),
		paporgMagic.VarHour:      now.Format("15"),
		paporgMagic.VarMinute:    now.Format("04"),
		paporgMagic.VarSecond:    now.Format("05"),
		paporgMagic.VarTimestamp: strconv.FormatInt(now.Unix(), 10),
		paporgMagic.VarUUID:      uuid.NewString(),
		paporgMagic.VarOriginal:  original,
	}
}

// resolveWithFallback looks up name in lookup, falling back to
// progressively shorter names by trimming a trailing underscore —
// this is what makes "$foo_$bar" extract variables "foo" and "bar"
// rather than "foo_" and "bar" (spec §8 boundary behavior).
func resolveWithFallback(name string, lookup map[string]string) (value string, matchedLen int, ok bool) {
	for len(name) > 0 {
		if v, found := lookup[name]; found {
			return v, len(name), true
		}
		if !strings.HasSuffix(name, "_") {
			break
		}
		name = name[:len(name)-1]
	}
	return "", 0, false
}

func substitutePass(tmpl string, lookup map[string]string) string {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '$' {
			out.WriteByte(tmpl[i])
			i++
			continue
		}
		j := i + 1
		for j < len(tmpl) && isIdentChar(tmpl[j]) {
			j++
		}
		name := tmpl[i+1 : j]
		if name == "" {
			out.WriteByte('$')
			i++
			continue
		}
		if value, consumed, ok := resolveWithFallback(name, lookup); ok {
			out.WriteString(value)
			i += 1 + consumed
			continue
		}
		// Unresolved this pass: leave the '$' and let the next pass
		// (or, if none remain, final validation) deal with it.
		out.WriteByte('$')
		i++
	}
	return out.String()
}

// Substitute resolves built-ins first, then user variables, in a
// single pass each (no fixed point), then sanitizes the result for
// filesystem use. The template is split on '/' first and each segment
// is substituted and sanitized on its own, so the template's own
// separators survive while a '/' inside a substituted value becomes
// '_'. Unknown variable references are left verbatim; catching them
// is the validator's job (spec §4.11), not this function's.
func Substitute(tmpl string, ctx Context) string {
	builtins := ctx.builtins()
	segments := strings.Split(tmpl, "/")
	for i, segment := range segments {
		afterBuiltins := substitutePass(segment, builtins)
		segments[i] = Sanitize(substitutePass(afterBuiltins, ctx.Variables))
	}
	return strings.Join(segments, "/")
}

// SubstituteRaw behaves like Substitute but skips the final
// sanitization pass — used by pre-substitution path-safety checks
// that need the raw resolved string (spec §4.5 step "ResolveAndStore"
// applies two different check sets: raw-template checks before
// substitution, and post-substitution checks on the resolved string).
func SubstituteRaw(tmpl string, ctx Context) string {
	afterBuiltins := substitutePass(tmpl, ctx.builtins())
	return substitutePass(afterBuiltins, ctx.Variables)
}

// Sanitize replaces any character outside ASCII alphanumerics, '-',
// '_', '.' with '_', then strips leading/trailing '_'.
func Sanitize(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out.WriteRune(r)
		default:
			out.WriteRune('_')
		}
	}
	return strings.Trim(out.String(), "_")
}

// Slugify lowercases s, replaces runs of non-alphanumerics with a
// single '-', and strips leading/trailing '-'.
func Slugify(s string) string {
	var out strings.Builder
	prevDash := false
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
			prevDash = false
			continue
		}
		if !prevDash {
			out.WriteByte('-')
			prevDash = true
		}
	}
	return strings.Trim(out.String(), "-")
}

// ApplyTransform applies the named ExtractedVariable transform.
func ApplyTransform(transform, value string) string {
	switch transform {
	case "slugify":
		return Slugify(value)
	case "uppercase":
		return strings.ToUpper(value)
	case "lowercase":
		return strings.ToLower(value)
	case "trim":
		return strings.TrimSpace(value)
	default:
		return value
	}
}

// knownBuiltins is the reserved built-in variable name set (spec §3:
// ExtractedVariable names are forbidden to collide with these).
var knownBuiltins = map[string]bool{
	paporgMagic.VarYear: true, paporgMagic.VarMonth: true, paporgMagic.VarDay: true,
	paporgMagic.VarHour: true, paporgMagic.VarMinute: true, paporgMagic.VarSecond: true,
	paporgMagic.VarLiteralL: true, paporgMagic.VarOriginal: true,
	paporgMagic.VarTimestamp: true, paporgMagic.VarUUID: true,
}

// IsBuiltinName reports whether name is a reserved built-in.
func IsBuiltinName(name string) bool {
	return knownBuiltins[name]
}

// ExtractReferences returns every "$name" reference in tmpl, applying
// the same trailing-underscore fallback Substitute uses, so that
// "$foo_$bar" yields ["foo", "bar"] rather than ["foo_", "bar"].
// known is consulted to decide where a name boundary falls; a name
// is accepted as-is if known(name) is true, otherwise trailing
// underscores are stripped one at a time until known matches or no
// trailing underscore remains; in the latter case the stripped name is
// returned and the caller reports it as unresolved.
func ExtractReferences(tmpl string, known func(name string) bool) []string {
	var refs []string
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '$' {
			i++
			continue
		}
		j := i + 1
		for j < len(tmpl) && isIdentChar(tmpl[j]) {
			j++
		}
		name := tmpl[i+1 : j]
		if name == "" {
			i++
			continue
		}
		resolved := name
		for len(resolved) > 0 && !known(resolved) && strings.HasSuffix(resolved, "_") {
			resolved = resolved[:len(resolved)-1]
		}
		refs = append(refs, resolved)
		i = j
	}
	return refs
}
