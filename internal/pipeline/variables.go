// Copyright (c) 2025 Justin Cranford

package pipeline

import (
	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
	paporgTemplate "github.com/iperka/paporg-sub000/internal/template"
)

// extractVariables runs every ExtractedVariable's regex against text
// (spec §4.5 step 3: "run each user variable regex against the text;
// apply transform; store in map; apply default only when the pattern
// does not match"). A variable whose pattern neither matches nor has
// a default is simply absent from the result map.
func extractVariables(text string, vars []paporgConfig.ExtractedVariable) map[string]string {
	result := make(map[string]string, len(vars))
	for _, v := range vars {
		value, found := matchNamedGroup(text, v)
		if !found {
			if v.Default == nil {
				continue
			}
			value = *v.Default
		}
		result[v.Name] = paporgTemplate.ApplyTransform(v.Transform, value)
	}
	return result
}

// matchNamedGroup runs v.Regex against text and returns the capture
// group named v.Name, if the pattern matched anywhere in the text.
func matchNamedGroup(text string, v paporgConfig.ExtractedVariable) (string, bool) {
	match := v.Regex.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	for i, name := range v.Regex.SubexpNames() {
		if name == v.Name && i < len(match) && match[i] != "" {
			return match[i], true
		}
	}
	return "", false
}
