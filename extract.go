package eslintrc

// Config is the effective configuration for one file path, produced on
// demand by Sequence.Extract and not retained by the sequence.
type Config struct {
	// Env holds the merged environment toggles.
	Env map[string]any `json:"env"`
	// Globals holds the merged global declarations.
	Globals map[string]any `json:"globals"`
	// Parser is the winning parser dependency, nil when never declared.
	Parser *Dependency[any] `json:"parser"`
	// ParserOptions holds the merged parser options.
	ParserOptions map[string]any `json:"parserOptions"`
	// Plugins holds every contributed plugin by id, later entries winning.
	Plugins map[string]*Dependency[*Plugin] `json:"plugins"`
	// Processor is the winning processor name, "" when never declared.
	Processor string `json:"processor"`
	// Root reports whether the winning explicit root setting was true.
	Root bool `json:"root"`
	// Rules holds the merged rule entries in canonical [severity, ...opts]
	// form.
	Rules map[string][]any `json:"rules"`
	// Settings holds the merged shared settings.
	Settings map[string]any `json:"settings"`
	// PluginRules looks up rule definitions by "<pluginId>/<ruleId>" across
	// every plugin the selected fragments contributed.
	PluginRules map[string]any `json:"-"`
}

// Extract folds the fragments applying to filePath into one effective
// Config. A fragment applies when its criteria is nil or matches filePath;
// an empty filePath selects only unscoped fragments, and matching a scoped
// fragment requires an absolute path. Later fragments win: scalars replace,
// object fields merge shallowly per key, plugins union by id, and rule
// entries are canonicalized before replacing.
func (s *Sequence) Extract(filePath string) (*Config, error) {
	selected := make([]*Fragment, 0, len(s.fragments))
	for _, fr := range s.fragments {
		if fr.Criteria != nil {
			if filePath == "" {
				continue
			}
			ok, err := fr.Criteria.Test(filePath)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		selected = append(selected, fr)
	}

	out := &Config{
		Env:           map[string]any{},
		Globals:       map[string]any{},
		ParserOptions: map[string]any{},
		Plugins:       map[string]*Dependency[*Plugin]{},
		Rules:         map[string][]any{},
		Settings:      map[string]any{},
	}
	root := RootUnset
	for _, fr := range selected {
		mergeShallow(out.Env, fr.Env)
		mergeShallow(out.Globals, fr.Globals)
		mergeShallow(out.ParserOptions, fr.ParserOptions)
		mergeShallow(out.Settings, fr.Settings)
		if fr.Parser != nil {
			out.Parser = fr.Parser
		}
		if fr.Processor != "" {
			out.Processor = fr.Processor
		}
		if fr.Root != RootUnset {
			root = fr.Root
		}
		for id, dep := range fr.Plugins {
			out.Plugins[id] = dep
		}
		for id, value := range fr.Rules {
			out.Rules[id] = canonicalRuleValue(value)
		}
	}
	out.Root = root == RootTrue
	out.PluginRules = pluginMembers(selected, func(p *Plugin) map[string]any { return p.Rules })
	return out, nil
}

// mergeShallow assigns src's entries into dst, later calls winning per key.
// Values are copied so the extracted config never aliases fragment data.
func mergeShallow(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
}

// canonicalRuleValue normalizes a rule entry to its array form
// [severity, ...options]; a bare severity becomes a one-element array.
func canonicalRuleValue(value any) []any {
	if list, ok := value.([]any); ok {
		return cloneSlice(list)
	}
	return []any{cloneValue(value)}
}
