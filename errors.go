package eslintrc

import (
	"errors"
	"fmt"
)

// Sentinel errors returned during resolution.
var (
	// ErrFilePathPlugin indicates a plugins list entry was a file path
	// rather than a package name.
	ErrFilePathPlugin = errors.New("plugins list cannot include file paths")

	// ErrFilePathExtend indicates a plugin extends target named the plugin
	// by file path rather than by package name.
	ErrFilePathExtend = errors.New("'extends' cannot use a file path for plugins")

	// ErrRootBoundary indicates an attempt to prepend parent fragments to a
	// sequence that opens with an explicit root config.
	ErrRootBoundary = errors.New("cannot prepend parent fragments to a root config")
)

// Dependency kinds carried by DependencyLoadError.
const (
	DependencyParser = "parser"
	DependencyPlugin = "plugin"
)

// SchemaError reports config data whose shape is not a valid config. It is
// fatal and aborts the resolution that encountered it.
type SchemaError struct {
	// Name identifies the offending config source.
	Name string
	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Name == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration in %s: %s", e.Name, e.Message)
}

// MissingExtendError reports an extends entry that did not resolve to any
// config. Extends failures are always fatal.
type MissingExtendError struct {
	// Name is the extends entry as written.
	Name string
	// Importer identifies the config that referenced it.
	Importer string
}

// Error implements the error interface.
func (e *MissingExtendError) Error() string {
	return fmt.Sprintf("failed to load config %q to extend from", e.Name)
}

// WhitespaceInNameError reports a plugin name containing whitespace. It is
// raised before any resolution attempt.
type WhitespaceInNameError struct {
	// Name is the offending plugin name.
	Name string
}

// Error implements the error interface.
func (e *WhitespaceInNameError) Error() string {
	return fmt.Sprintf("whitespace found in plugin name '%s'", e.Name)
}

// DependencyLoadError reports a parser or plugin module that could not be
// resolved or loaded. When it originates from a parser declaration or a
// plugins list entry it is captured inside the Dependency and surfaces only
// on dereference; when it originates from a plugin extends target it is
// returned immediately.
type DependencyLoadError struct {
	// Kind is DependencyParser or DependencyPlugin.
	Kind string
	// Name is the requested module name.
	Name string
	// Importer identifies the config that declared the dependency.
	Importer string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DependencyLoadError) Error() string {
	return fmt.Sprintf("failed to load %s '%s' declared in '%s': %v", e.Kind, e.Name, e.Importer, e.Err)
}

// Unwrap returns the underlying error.
func (e *DependencyLoadError) Unwrap() error {
	return e.Err
}
