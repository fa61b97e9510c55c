// Package eslintrc resolves cascading linter configuration into ordered
// fragment sequences and per-file effective configurations.
//
// A configuration source (an .eslintrc.* file, a package.json eslintConfig
// field, or in-memory data) flattens into fragments: the configs it extends,
// processor bindings contributed by its plugins, the source's own settings,
// and its overrides entries. Sequence order is precedence, with later
// fragments overriding earlier ones:
//
//	┌──────────────────────────────┐
//	│  4. overrides entries        │  ← Highest precedence
//	├──────────────────────────────┤
//	│  3. the config's own body    │
//	├──────────────────────────────┤
//	│  2. plugin processor scopes  │  ← e.g. *.md → markdown/.md
//	├──────────────────────────────┤
//	│  1. extends results          │  ← Lowest precedence
//	└──────────────────────────────┘
//
// Extends entries flatten recursively, so a shared config's own extends land
// below it. Extraction selects the fragments whose file criteria accept a
// target path and folds them in order into one effective Config.
//
// # Sub-packages
//
//   - criteria: Glob-based file matching for scoped fragments
//   - source: Config source reading (JS, JSON, YAML, package.json field)
//   - modules: Node-convention module resolution and package naming
//   - jseval: CommonJS evaluation of .js config sources and modules
//   - watcher: File watching for config live reload
//
// # Basic Usage
//
// Resolve a config file and extract the configuration for one file:
//
//	factory, err := eslintrc.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	seq, err := factory.LoadFile(".eslintrc.json", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg, err := seq.Extract("/project/src/app.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Rules["semi"])
//
// Walk a directory cascade by loading each level with the previous result as
// parent:
//
//	parent, _ := factory.LoadInDirectory("/project", nil)
//	seq, err := factory.LoadInDirectory("/project/src",
//	    &eslintrc.LoadOptions{Parent: parent})
//
// # Error Handling
//
// Schema violations and extends failures abort resolution immediately;
// extends failures name each importer on the chain. Parser and plugin load
// failures are captured inside the returned Dependency values and surface
// only when a definition is dereferenced, so a config naming an uninstalled
// plugin still resolves for files the plugin never touches.
//
// The package defines several error types:
//
//   - SchemaError: config data shape violation
//   - MissingExtendError: extends target did not resolve
//   - WhitespaceInNameError: plugin name contains whitespace
//   - DependencyLoadError: parser or plugin module failed to load
//   - ErrFilePathPlugin: plugins list entry was a file path
//   - ErrFilePathExtend: plugin extends target named a file path
//   - ErrRootBoundary: parent prepended to an explicit root config
package eslintrc
