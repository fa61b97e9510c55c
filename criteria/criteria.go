// Package criteria compiles override file patterns into reusable matchers.
//
// A Matcher decides whether a configuration fragment applies to a given
// file. It is built from the files/excludedFiles patterns of an overrides
// entry plus a base path the target is relativized against. Matchers
// compose conjunctively with And, so criteria accumulate as overrides nest.
package criteria

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Errors returned by criteria operations.
var (
	// ErrAbsolutePath indicates a path that must be absolute was not.
	ErrAbsolutePath = errors.New("path must be absolute")

	// ErrInvalidPattern indicates a files/excludedFiles pattern is not usable.
	ErrInvalidPattern = errors.New("invalid override pattern")
)

// Matcher tests absolute file paths against compiled pattern groups.
// A nil *Matcher means "no criteria": callers treat it as matching
// everything without calling Test.
type Matcher struct {
	basePath string
	groups   []patternGroup
}

// patternGroup is one compiled files/excludedFiles pair. A path matches the
// group when at least one include matches (if any exist) and no exclude does.
type patternGroup struct {
	includes []pattern
	excludes []pattern
}

// pattern is a single compiled glob.
type pattern struct {
	raw  string
	glob string
	// base selects base-name matching for patterns without a separator.
	base bool
}

// New compiles files and excludedFiles into a Matcher. Each argument accepts
// a string, a list of strings, or nil; empty entries are dropped. When no
// patterns remain the result is a nil Matcher. Patterns follow shell glob
// semantics (doublestar); a pattern without a slash matches the target's
// base name, and a "./"-prefixed pattern matches the full relative path.
// Absolute patterns, patterns containing "..", and patterns starting with
// "!" are rejected.
func New(files, excludedFiles any, basePath string) (*Matcher, error) {
	includes, err := normalizePatterns(files)
	if err != nil {
		return nil, err
	}
	excludes, err := normalizePatterns(excludedFiles)
	if err != nil {
		return nil, err
	}
	if len(includes) == 0 && len(excludes) == 0 {
		return nil, nil
	}

	group := patternGroup{}
	if group.includes, err = compilePatterns(includes); err != nil {
		return nil, err
	}
	if group.excludes, err = compilePatterns(excludes); err != nil {
		return nil, err
	}

	return &Matcher{
		basePath: basePath,
		groups:   []patternGroup{group},
	}, nil
}

// And composes two matchers conjunctively: the result matches a path only
// when both operands do. A nil operand is identity. The result is always a
// fresh Matcher carrying the left operand's base path.
func And(a, b *Matcher) *Matcher {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return &Matcher{basePath: b.basePath, groups: b.groups}
	case b == nil:
		return &Matcher{basePath: a.basePath, groups: a.groups}
	}

	groups := make([]patternGroup, 0, len(a.groups)+len(b.groups))
	groups = append(groups, a.groups...)
	groups = append(groups, b.groups...)
	return &Matcher{basePath: a.basePath, groups: groups}
}

// Test reports whether the absolute path satisfies every pattern group.
func (m *Matcher) Test(filePath string) (bool, error) {
	if filePath == "" || !filepath.IsAbs(filePath) {
		return false, fmt.Errorf("%w: got %q", ErrAbsolutePath, filePath)
	}

	rel, err := filepath.Rel(m.basePath, filePath)
	if err != nil {
		return false, err
	}
	rel = filepath.ToSlash(rel)

	for _, group := range m.groups {
		if !group.match(rel) {
			return false, nil
		}
	}
	return true, nil
}

// BasePath returns the directory patterns are resolved against.
func (m *Matcher) BasePath() string {
	return m.basePath
}

// WithBasePath returns a matcher with the same patterns anchored at
// basePath. The receiver is returned unchanged when the base path already
// matches.
func (m *Matcher) WithBasePath(basePath string) *Matcher {
	if m == nil || m.basePath == basePath {
		return m
	}
	return &Matcher{basePath: basePath, groups: m.groups}
}

// MarshalJSON renders the matcher for diagnostics. A single pattern group
// flattens to its pattern lists; composed matchers nest under "AND".
func (m *Matcher) MarshalJSON() ([]byte, error) {
	if len(m.groups) == 1 {
		return json.Marshal(groupJSON(m.groups[0], m.basePath))
	}

	groups := make([]map[string]any, len(m.groups))
	for i, group := range m.groups {
		groups[i] = groupJSON(group, "")
		delete(groups[i], "basePath")
	}
	return json.Marshal(map[string]any{
		"AND":      groups,
		"basePath": m.basePath,
	})
}

func groupJSON(group patternGroup, basePath string) map[string]any {
	out := map[string]any{
		"includes": rawPatterns(group.includes),
		"excludes": rawPatterns(group.excludes),
	}
	if basePath != "" {
		out["basePath"] = basePath
	}
	return out
}

func rawPatterns(patterns []pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.raw
	}
	return out
}

// match reports whether the slash-normalized relative path satisfies the
// group.
func (g patternGroup) match(rel string) bool {
	if len(g.includes) > 0 {
		matched := false
		for _, p := range g.includes {
			if p.match(rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, p := range g.excludes {
		if p.match(rel) {
			return false
		}
	}
	return true
}

// match reports whether the relative path satisfies the pattern.
func (p pattern) match(rel string) bool {
	target := rel
	if p.base {
		target = path.Base(rel)
	}
	ok, err := doublestar.Match(p.glob, target)
	return err == nil && ok
}

// normalizePatterns coerces a string-or-list value into a pattern slice,
// dropping empty entries.
func normalizePatterns(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("%w: pattern must be a string, got %T", ErrInvalidPattern, entry)
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected a string or list of strings, got %T", ErrInvalidPattern, value)
	}
}

// compilePatterns validates and compiles raw patterns.
func compilePatterns(raws []string) ([]pattern, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	out := make([]pattern, 0, len(raws))
	for _, raw := range raws {
		if filepath.IsAbs(raw) || strings.Contains(raw, "..") {
			return nil, fmt.Errorf("%w (expected relative path not containing '..'): %s", ErrInvalidPattern, raw)
		}
		if strings.HasPrefix(raw, "!") {
			return nil, fmt.Errorf("%w (patterns must not start with '!'): %s", ErrInvalidPattern, raw)
		}

		p := pattern{raw: raw, glob: raw}
		if hasDotSlashPrefix(raw) {
			// "./foo/*.js" pins the pattern to the base path root.
			p.glob = raw[2:]
		} else {
			p.base = !strings.Contains(raw, "/")
		}
		if !doublestar.ValidatePattern(p.glob) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, raw)
		}
		out = append(out, p)
	}
	return out, nil
}

// hasDotSlashPrefix reports whether the pattern starts with "./" or ".\".
func hasDotSlashPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '.' && (s[1] == '/' || s[1] == '\\')
}
