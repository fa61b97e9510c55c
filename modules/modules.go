// Package modules locates the modules a configuration refers to: parsers,
// plugins, and shareable configs.
//
// The Resolver interface is the capability the resolution engine consumes;
// NodeResolver is the default implementation and follows the node module
// convention (relative requests against the importer, bare package requests
// through node_modules directories walking upward). Naming helpers translate
// between shorthand and conventional package names.
package modules

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates no module satisfies a request. Resolution failures
// that wrap it are soft for deferred parser/plugin loads and fatal for
// extends targets; callers distinguish via errors.Is.
var ErrNotFound = errors.New("module not found")

// Resolver maps a module request plus a resolution base directory to an
// absolute module path.
type Resolver interface {
	// Resolve returns the absolute file path of the module satisfying
	// request, resolved from fromDir. The returned error wraps ErrNotFound
	// when no module matches.
	Resolve(request, fromDir string) (string, error)
}

// IsFilePath reports whether the name is a path rather than a package name:
// absolute, or explicitly relative with a "./" or "../" prefix.
func IsFilePath(name string) bool {
	if filepath.IsAbs(name) {
		return true
	}
	if len(name) >= 2 && name[0] == '.' && (name[1] == '/' || name[1] == '\\') {
		return true
	}
	return len(name) >= 3 && name[0] == '.' && name[1] == '.' && (name[2] == '/' || name[2] == '\\')
}

// NormalizePackageName expands a possibly shorthand module name into its
// conventional package form using prefix:
//
//	react                  -> <prefix>-react
//	<prefix>-react         -> <prefix>-react
//	@scope                 -> @scope/<prefix>
//	@scope/<prefix>        -> @scope/<prefix>
//	@scope/react           -> @scope/<prefix>-react
func NormalizePackageName(name, prefix string) string {
	normalized := name
	if strings.Contains(normalized, "\\") {
		normalized = strings.ReplaceAll(normalized, "\\", "/")
	}

	if strings.HasPrefix(normalized, "@") {
		scope, rest, hasRest := strings.Cut(normalized, "/")
		if !hasRest || rest == "" || rest == prefix {
			return scope + "/" + prefix
		}
		if !strings.HasPrefix(rest, prefix+"-") {
			return scope + "/" + prefix + "-" + rest
		}
		return normalized
	}

	if !strings.HasPrefix(normalized, prefix+"-") {
		return prefix + "-" + normalized
	}
	return normalized
}

// ShorthandName reduces a conventional package name back to its shorthand
// id, the inverse of NormalizePackageName:
//
//	<prefix>-react         -> react
//	@scope/<prefix>        -> @scope
//	@scope/<prefix>-react  -> @scope/react
func ShorthandName(name, prefix string) string {
	if strings.HasPrefix(name, "@") {
		scope, rest, hasRest := strings.Cut(name, "/")
		if hasRest {
			if rest == prefix {
				return scope
			}
			if strings.HasPrefix(rest, prefix+"-") && len(rest) > len(prefix)+1 {
				return scope + "/" + rest[len(prefix)+1:]
			}
		}
		return name
	}

	if strings.HasPrefix(name, prefix+"-") {
		return name[len(prefix)+1:]
	}
	return name
}
