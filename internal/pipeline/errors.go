// Copyright (c) 2025 Justin Cranford

package pipeline

import "errors"

// ErrInvalidOutputPath covers every pre- and post-substitution
// path-safety rejection in step 5 (spec §4.5/§4.9's containment
// invariants): absolute directory templates, "..", path separators in
// the resolved filename, an empty/dots-only resolved filename, or a
// resolved path that escapes the canonicalized output root.
var ErrInvalidOutputPath = errors.New("pipeline: invalid output path")
