// Package source reads a single configuration source into a plain data tree.
//
// The format is chosen by file extension: JS modules go through an injected
// Evaluator, package.json contributes its nested config field, JSON allows
// JS-style comments, YAML parses directly, and anything else is treated as
// the legacy combined format (comment-stripped YAML, which covers JSON as a
// subset). Content is read fresh from disk on every call; nothing is cached.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrConfigFieldNotFound indicates the project manifest exists but carries
// no config field. Directory search treats it as "keep looking", not as a
// failure.
var ErrConfigFieldNotFound = errors.New("config field not found")

// ManifestName is the project manifest file name.
const ManifestName = "package.json"

// ManifestConfigField is the manifest member holding config data.
const ManifestConfigField = "eslintConfig"

// Evaluator evaluates a script module at a path and returns its exported
// value. Implementations must re-read the file on every call.
type Evaluator interface {
	Evaluate(path string) (any, error)
}

// ReadError wraps any failure to read or parse a config source with the
// source path.
type ReadError struct {
	// Path is the config source that failed.
	Path string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read config file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Reader reads config sources by format.
type Reader struct {
	eval Evaluator
}

// NewReader creates a Reader. The evaluator handles .js/.cjs sources and may
// be nil when script configs are not used.
func NewReader(eval Evaluator) *Reader {
	return &Reader{eval: eval}
}

// Read loads and parses the config source at path. The result is always a
// string-keyed map; any parse or I/O failure is wrapped in a *ReadError.
// For package.json the nested config field is extracted, and its absence is
// reported as a *ReadError wrapping ErrConfigFieldNotFound.
func (r *Reader) Read(path string) (map[string]any, error) {
	switch filepath.Ext(path) {
	case ".js", ".cjs":
		return r.readScript(path)
	case ".json":
		if filepath.Base(path) == ManifestName {
			return r.readManifest(path)
		}
		return r.readJSON(path)
	case ".yaml", ".yml":
		return r.readYAML(path)
	default:
		return r.readLegacy(path)
	}
}

// readScript evaluates a JS module and coerces its export to a config map.
func (r *Reader) readScript(path string) (map[string]any, error) {
	if r.eval == nil {
		return nil, &ReadError{Path: path, Err: errors.New("no script evaluator configured")}
	}
	value, err := r.eval.Evaluate(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	m, ok := value.(map[string]any)
	if !ok || m == nil {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("config must export an object, got %T", value)}
	}
	return m, nil
}

// readManifest extracts the config field from package.json.
func (r *Reader) readManifest(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, &ReadError{Path: path, Err: errors.New("invalid JSON")}
	}
	field := gjson.GetBytes(data, ManifestConfigField)
	if !field.Exists() {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("%w: %s", ErrConfigFieldNotFound, ManifestConfigField)}
	}
	m, ok := field.Value().(map[string]any)
	if !ok {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("%s must be an object", ManifestConfigField)}
	}
	return m, nil
}

// readJSON parses JSON after removing JS-style comments.
func (r *Reader) readJSON(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(stripJSONComments(data), &out); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if out == nil {
		return nil, &ReadError{Path: path, Err: errors.New("config must be an object")}
	}
	return out, nil
}

// readYAML parses a YAML document; an empty document is an empty config.
func (r *Reader) readYAML(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return unmarshalYAML(path, data)
}

// readLegacy handles extension-less sources such as .eslintrc, which
// historically allowed JSON with comments or YAML in the same file. YAML
// being a JSON superset, comment-stripped YAML parsing covers both.
func (r *Reader) readLegacy(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return unmarshalYAML(path, stripJSONComments(data))
}

func unmarshalYAML(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// readFile reads the source and strips a leading UTF-8 byte-order mark.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), nil
}
