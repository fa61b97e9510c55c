package eslintrc

import "encoding/json"

// Dependency records the outcome of resolving and loading a named module a
// config declared. A failed load is carried as data in the sequence and
// surfaces only when the definition is dereferenced.
type Dependency[T any] struct {
	// ID identifies the dependency within its namespace: the shorthand
	// plugin id, or the parser name as written.
	ID string
	// FilePath is the resolved module path, or "" for pooled and bundled
	// definitions.
	FilePath string
	// ImporterName names the config that declared the dependency.
	ImporterName string
	// ImporterPath is the declaring config's file path.
	ImporterPath string
	// Err is the deferred load failure, nil on success.
	Err error

	definition T
}

// Definition returns the loaded definition, or the deferred load error when
// loading failed.
func (d *Dependency[T]) Definition() (T, error) {
	if d.Err != nil {
		var zero T
		return zero, d.Err
	}
	return d.definition, nil
}

// MarshalJSON encodes the dependency's metadata. The definition itself is
// omitted; it is a loaded module, not data.
func (d *Dependency[T]) MarshalJSON() ([]byte, error) {
	var errMsg string
	if d.Err != nil {
		errMsg = d.Err.Error()
	}
	return json.Marshal(struct {
		ID           string `json:"id"`
		FilePath     string `json:"filePath"`
		ImporterName string `json:"importerName"`
		ImporterPath string `json:"importerPath"`
		Error        string `json:"error,omitempty"`
	}{d.ID, d.FilePath, d.ImporterName, d.ImporterPath, errMsg})
}

// Plugin is the portion of a plugin module the resolver consumes.
type Plugin struct {
	// Configs holds shareable configs by name, targeted by
	// "plugin:<id>/<name>" extends entries.
	Configs map[string]ConfigData
	// Rules holds rule definitions by name.
	Rules map[string]any
	// Processors holds processor definitions by name. Names starting with
	// "." bind the processor to that file extension.
	Processors map[string]any
	// Environments holds environment definitions by name.
	Environments map[string]any
}

// decodePlugin extracts the recognized plugin members from an evaluated
// module export. Members with unexpected shapes are ignored rather than
// rejected; a plugin is only as broken as the parts actually used.
func decodePlugin(value any) *Plugin {
	p := &Plugin{}
	m, ok := value.(map[string]any)
	if !ok {
		return p
	}
	if configs, ok := m["configs"].(map[string]any); ok {
		p.Configs = make(map[string]ConfigData, len(configs))
		for name, raw := range configs {
			if data, ok := raw.(map[string]any); ok {
				p.Configs[name] = ConfigData(data)
			}
		}
	}
	if rules, ok := m["rules"].(map[string]any); ok {
		p.Rules = rules
	}
	if processors, ok := m["processors"].(map[string]any); ok {
		p.Processors = processors
	}
	if environments, ok := m["environments"].(map[string]any); ok {
		p.Environments = environments
	}
	return p
}
