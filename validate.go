package eslintrc

import "fmt"

// configKeys are the recognized config properties, shared by top-level
// configs and override entries. Override entries additionally carry file
// criteria keys.
var configKeys = map[string]bool{
	"env":           true,
	"extends":       true,
	"globals":       true,
	"overrides":     true,
	"parser":        true,
	"parserOptions": true,
	"plugins":       true,
	"processor":     true,
	"root":          true,
	"rules":         true,
	"settings":      true,
}

// validateConfigData rejects config data with unrecognized or malformed
// properties, covering nested override entries. Extended configs are
// validated separately when their own data is normalized. Any violation is
// a fatal *SchemaError.
func validateConfigData(data ConfigData, name string) error {
	return validateConfigObject(map[string]any(data), name, "")
}

// validateConfigObject checks one config object. at is "" for the top level
// and the property path (e.g. "overrides[0]") for override entries, which
// both widens the key set and requires "files".
func validateConfigObject(data map[string]any, name, at string) error {
	override := at != ""
	for _, key := range sortedKeys(data) {
		if configKeys[key] || (override && (key == "files" || key == "excludedFiles")) {
			continue
		}
		if override {
			return &SchemaError{Name: name, Message: fmt.Sprintf("unexpected property %q", at+"."+key)}
		}
		return &SchemaError{Name: name, Message: fmt.Sprintf("unexpected top-level property %q", key)}
	}

	if override {
		if _, ok := data["files"]; !ok {
			return &SchemaError{Name: name, Message: fmt.Sprintf("%s must specify %q", at, "files")}
		}
	}

	for _, key := range sortedKeys(data) {
		value := data[key]
		if value == nil && key != "files" {
			// Null-valued properties read as absent; only the required
			// "files" key must hold a real value.
			continue
		}
		switch key {
		case "extends":
			if !isStringOrStringList(value) {
				return shapeError(name, at, key, "a string or an array of strings")
			}
		case "plugins":
			if !isStringList(value) {
				return shapeError(name, at, key, "an array of strings")
			}
		case "parser", "processor":
			if _, ok := value.(string); !ok {
				return shapeError(name, at, key, "a string")
			}
		case "root":
			if _, ok := value.(bool); !ok {
				return shapeError(name, at, key, "a boolean")
			}
		case "env", "globals", "parserOptions", "rules", "settings":
			if _, ok := value.(map[string]any); !ok {
				return shapeError(name, at, key, "an object")
			}
		case "files", "excludedFiles":
			if !isStringOrStringList(value) {
				return shapeError(name, at, key, "a glob pattern or an array of glob patterns")
			}
		case "overrides":
			list, ok := value.([]any)
			if !ok {
				return shapeError(name, at, key, "an array")
			}
			for i, entry := range list {
				childAt := fmt.Sprintf("overrides[%d]", i)
				if at != "" {
					childAt = at + "." + childAt
				}
				m, ok := entry.(map[string]any)
				if !ok {
					return &SchemaError{Name: name, Message: fmt.Sprintf("%s must be an object", childAt)}
				}
				if err := validateConfigObject(m, name, childAt); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func shapeError(name, at, key, want string) error {
	prop := key
	if at != "" {
		prop = at + "." + key
	}
	return &SchemaError{Name: name, Message: fmt.Sprintf("%q must be %s", prop, want)}
}

func isStringOrStringList(value any) bool {
	switch t := value.(type) {
	case string:
		return true
	case []any:
		for _, v := range t {
			if _, ok := v.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isStringList(value any) bool {
	t, ok := value.([]any)
	if !ok {
		return false
	}
	for _, v := range t {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}
