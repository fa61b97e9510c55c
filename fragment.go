package eslintrc

import (
	"github.com/dshills/eslintrc/criteria"
)

// ConfigData is raw configuration data as parsed from a source, before
// validation and normalization. It is consumed once and never retained.
type ConfigData map[string]any

// RootSetting is the tri-state root flag carried by a fragment. Absence is
// distinct from an explicit false: only an explicit true terminates the
// upward cascade, and scoped fragments have the flag forced back to unset.
type RootSetting uint8

// Root flag states.
const (
	RootUnset RootSetting = iota
	RootFalse
	RootTrue
)

// String implements fmt.Stringer.
func (r RootSetting) String() string {
	switch r {
	case RootFalse:
		return "false"
	case RootTrue:
		return "true"
	default:
		return "unset"
	}
}

// MarshalJSON encodes the explicit states as booleans and the unset state
// as null.
func (r RootSetting) MarshalJSON() ([]byte, error) {
	switch r {
	case RootFalse:
		return []byte("false"), nil
	case RootTrue:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

// rootSettingOf maps a raw root value to its tri-state form.
func rootSettingOf(value any) RootSetting {
	b, ok := value.(bool)
	if !ok {
		return RootUnset
	}
	if b {
		return RootTrue
	}
	return RootFalse
}

// Fragment is one normalized unit of configuration attributable to a single
// origin. Fragments are produced in ascending precedence order and are not
// modified after the sequence holding them is built.
type Fragment struct {
	// Name is the human-readable origin, such as
	// ".eslintrc.json » eslint:recommended".
	Name string `json:"name"`
	// FilePath is the absolute source path, or "" for virtual origins such
	// as built-in configs and pooled plugins.
	FilePath string `json:"filePath"`
	// Criteria restricts the fragment to matching file paths. Nil applies
	// unconditionally.
	Criteria *criteria.Matcher `json:"criteria"`
	// Env toggles named environments.
	Env map[string]any `json:"env,omitempty"`
	// Globals declares global variables.
	Globals map[string]any `json:"globals,omitempty"`
	// Parser is the declared parser dependency, nil when absent.
	Parser *Dependency[any] `json:"parser,omitempty"`
	// ParserOptions tunes parsing.
	ParserOptions map[string]any `json:"parserOptions,omitempty"`
	// Plugins maps shorthand plugin ids to their load outcomes.
	Plugins map[string]*Dependency[*Plugin] `json:"plugins,omitempty"`
	// Processor names a processor as "<pluginId>/<name>".
	Processor string `json:"processor,omitempty"`
	// Root marks the cascade boundary. Always RootUnset on fragments with
	// non-nil criteria.
	Root RootSetting `json:"root"`
	// Rules configures rules by id.
	Rules map[string]any `json:"rules,omitempty"`
	// Settings carries shared settings.
	Settings map[string]any `json:"settings,omitempty"`
}

// cloneConfigData deep-copies raw config data so shared definitions, such as
// built-in configs and plugin-provided configs, cannot be mutated through a
// normalization pass.
func cloneConfigData(data ConfigData) ConfigData {
	if data == nil {
		return nil
	}
	return ConfigData(cloneMap(data))
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		return cloneSlice(t)
	default:
		return v
	}
}
