package eslintrc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/eslintrc/criteria"
	"github.com/dshills/eslintrc/jseval"
	"github.com/dshills/eslintrc/modules"
	"github.com/dshills/eslintrc/source"
)

// DefaultParserName is the parser a config gets when it declares none, and
// the identifier whose resolution falls back to the bundled definition.
const DefaultParserName = "espree"

// configFileNames is the directory search order. Earlier entries win.
var configFileNames = []string{
	".eslintrc.js",
	".eslintrc.yaml",
	".eslintrc.yml",
	".eslintrc.json",
	".eslintrc",
	source.ManifestName,
}

// Factory resolves declarative config data into fragment sequences. It owns
// the module resolver, the script evaluator, and the in-memory pools of
// programmatically supplied plugins and parsers.
//
// A Factory is safe for concurrent use: resolution itself is synchronous and
// allocates per call, and the only shared mutable state is the
// directory-search memo.
type Factory struct {
	cwd             string
	resolver        modules.Resolver
	evaluator       source.Evaluator
	reader          *source.Reader
	log             *zap.SugaredLogger
	pluginBase      string
	defaultParserID string
	defaultParser   any

	mu         sync.RWMutex
	pluginPool map[string]*Plugin
	parserPool map[string]any
	dirMemo    map[string]string
}

// Option configures a Factory.
type Option func(*Factory)

// WithCwd sets the working directory used for relative paths, default
// diagnostic names, and as the resolution base for in-memory configs.
// Defaults to os.Getwd.
func WithCwd(dir string) Option {
	return func(f *Factory) {
		f.cwd = dir
	}
}

// WithResolver sets the module resolution capability. Defaults to the
// node_modules resolver.
func WithResolver(r modules.Resolver) Option {
	return func(f *Factory) {
		f.resolver = r
	}
}

// WithEvaluator sets the script evaluation capability used for .js config
// sources and for loading parser and plugin modules. Defaults to a jseval
// evaluator wired to the factory's resolver. Evaluated modules run arbitrary
// code; callers needing isolation inject their own implementation.
func WithEvaluator(e source.Evaluator) Option {
	return func(f *Factory) {
		f.evaluator = e
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(f *Factory) {
		if log != nil {
			f.log = log
		}
	}
}

// WithPlugin registers a plugin definition in the in-memory pool. The pool
// is consulted before disk resolution; name may be the shorthand id or the
// full package name.
func WithPlugin(name string, def *Plugin) Option {
	return func(f *Factory) {
		f.pluginPool[name] = def
	}
}

// WithParser registers a parser definition in the in-memory pool under its
// exact name.
func WithParser(name string, def any) Option {
	return func(f *Factory) {
		f.parserPool[name] = def
	}
}

// WithPluginBasePath pins plugin resolution to one directory instead of the
// declaring config's directory.
func WithPluginBasePath(dir string) Option {
	return func(f *Factory) {
		f.pluginBase = dir
	}
}

// WithBundledParser replaces the bundled default parser: the identifier that
// loads even when module resolution fails, and the definition it loads as.
func WithBundledParser(id string, def any) Option {
	return func(f *Factory) {
		f.defaultParserID = id
		f.defaultParser = def
	}
}

// New creates a Factory.
func New(opts ...Option) (*Factory, error) {
	f := &Factory{
		log:             zap.NewNop().Sugar(),
		defaultParserID: DefaultParserName,
		pluginPool:      map[string]*Plugin{},
		parserPool:      map[string]any{},
		dirMemo:         map[string]string{},
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		f.cwd = cwd
	}
	if f.resolver == nil {
		f.resolver = modules.NewNodeResolver()
	}
	if f.evaluator == nil {
		f.evaluator = jseval.New(jseval.WithResolver(f.resolver))
	}
	f.reader = source.NewReader(f.evaluator)
	return f, nil
}

// LoadOptions adjust a single load call.
type LoadOptions struct {
	// Name overrides the default diagnostic name, which is the source path
	// relative to the factory working directory.
	Name string
	// FilePath attributes in-memory config data to a file location; it sets
	// the resolution base and the override match base. Create only.
	FilePath string
	// Parent is prepended below the loaded fragments, per the Concat rule.
	Parent *Sequence
}

// resolveContext travels down one resolution. name and filePath track the
// config source currently being flattened; matchBasePath is fixed at the
// entry level and threads unchanged through extends and overrides recursion,
// so override patterns always resolve against the entry source's directory.
type resolveContext struct {
	name          string
	filePath      string
	matchBasePath string
}

// withName returns the context renamed for a nested scope.
func (ctx resolveContext) withName(name string) resolveContext {
	ctx.name = name
	return ctx
}

// Create resolves in-memory config data, e.g. assembled from CLI flags.
// Nil data yields an empty (or parent-only) sequence.
func (f *Factory) Create(data ConfigData, opts *LoadOptions) (*Sequence, error) {
	o := loadOptions(opts)
	if data == nil {
		return Concat(o.Parent, nil)
	}
	ctx := f.newContext(o.Name, o.FilePath)
	f.log.Debugw("creating config", "name", ctx.name)
	fragments, err := f.normalizeConfigData(cloneConfigData(data), ctx)
	if err != nil {
		return nil, err
	}
	return concatFragments(o.Parent, fragments)
}

// LoadFile resolves the config source at path. Every read failure is fatal,
// including a project manifest missing its config field.
func (f *Factory) LoadFile(path string, opts *LoadOptions) (*Sequence, error) {
	o := loadOptions(opts)
	ctx := f.newContext(o.Name, path)
	f.log.Debugw("loading config file", "path", ctx.filePath)
	fragments, err := f.loadConfigData(ctx)
	if err != nil {
		return nil, err
	}
	return concatFragments(o.Parent, fragments)
}

// LoadInDirectory resolves the conventional config source in dir, trying
// each recognized filename in order. A missing file and a manifest without
// the config field continue the scan; when nothing matches the result is an
// empty (or parent-only) sequence, so cascade walking can continue upward.
func (f *Factory) LoadInDirectory(dir string, opts *LoadOptions) (*Sequence, error) {
	o := loadOptions(opts)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(f.cwd, dir)
	}

	if winner, ok := f.memoizedFile(dir); ok {
		fragments, stale, err := f.loadMemoized(winner, o.Name)
		if err != nil {
			return nil, err
		}
		if !stale {
			return concatFragments(o.Parent, fragments)
		}
		f.forgetMemo(dir)
	}

	for _, filename := range configFileNames {
		path := filepath.Join(dir, filename)
		st, err := os.Stat(path)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		ctx := f.newContext(o.Name, path)
		f.log.Debugw("loading config in directory", "path", ctx.filePath)
		fragments, err := f.loadConfigData(ctx)
		if err != nil {
			if errors.Is(err, source.ErrConfigFieldNotFound) {
				continue
			}
			return nil, err
		}
		f.rememberMemo(dir, path)
		return concatFragments(o.Parent, fragments)
	}

	f.log.Debugw("no config found in directory", "dir", dir)
	return Concat(o.Parent, nil)
}

// ClearCache drops the directory-search memoization. Callers that register
// plugins or parsers at runtime call this so later loads run a fresh search.
// Source contents are never cached, so this affects only which file a
// directory search inspects first.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	f.dirMemo = map[string]string{}
	f.mu.Unlock()
}

// RegisterPlugin adds a plugin definition to the in-memory pool under name,
// affecting subsequent loads. Pair with ClearCache when loads already ran.
func (f *Factory) RegisterPlugin(name string, def *Plugin) {
	f.mu.Lock()
	f.pluginPool[name] = def
	f.mu.Unlock()
}

// RegisterParser adds a parser definition to the in-memory pool under name,
// affecting subsequent loads. Pair with ClearCache when loads already ran.
func (f *Factory) RegisterParser(name string, def any) {
	f.mu.Lock()
	f.parserPool[name] = def
	f.mu.Unlock()
}

// newContext builds the entry-level resolve context for a load call. The
// match base path is fixed here: the source's directory, or the working
// directory for in-memory data.
func (f *Factory) newContext(name, filePath string) resolveContext {
	if filePath != "" && !filepath.IsAbs(filePath) {
		filePath = filepath.Join(f.cwd, filePath)
	}
	matchBasePath := f.cwd
	if filePath != "" {
		matchBasePath = filepath.Dir(filePath)
	}
	if name == "" && filePath != "" {
		if rel, err := filepath.Rel(f.cwd, filePath); err == nil {
			name = rel
		} else {
			name = filePath
		}
	}
	return resolveContext{name: name, filePath: filePath, matchBasePath: matchBasePath}
}

// loadConfigData reads the config source named by the context and flattens
// its data.
func (f *Factory) loadConfigData(ctx resolveContext) ([]*Fragment, error) {
	data, err := f.reader.Read(ctx.filePath)
	if err != nil {
		return nil, err
	}
	return f.normalizeConfigData(ConfigData(data), ctx)
}

// normalizeConfigData validates and flattens config data arriving from a
// source boundary: an entry point, a built-in config, a plugin-provided
// config, or a shareable config file.
func (f *Factory) normalizeConfigData(data ConfigData, ctx resolveContext) ([]*Fragment, error) {
	if err := validateConfigData(data, ctx.name); err != nil {
		return nil, err
	}
	return f.normalizeScope(data, ctx)
}

// normalizeScope flattens one config object and applies its file criteria to
// every produced fragment. Override entries and processor pseudo-configs
// re-enter here; their files/excludedFiles become the scope.
//
// Each produced fragment's criteria is the conjunction of this scope's
// criteria and whatever the fragment already carried from deeper scopes. A
// fragment left with non-nil criteria can never mark the project root, and
// its criteria is re-anchored at the entry-level match base path.
func (f *Factory) normalizeScope(data ConfigData, ctx resolveContext) ([]*Fragment, error) {
	level, err := criteria.New(data["files"], data["excludedFiles"], ctx.matchBasePath)
	if err != nil {
		return nil, err
	}

	fragments, err := f.normalizeBody(data, ctx)
	if err != nil {
		return nil, err
	}

	for _, fr := range fragments {
		combined := criteria.And(level, fr.Criteria)
		if combined == nil {
			continue
		}
		fr.Criteria = combined.WithBasePath(ctx.matchBasePath)
		fr.Root = RootUnset
	}
	return fragments, nil
}

// normalizeBody flattens the body of one config object in ascending
// precedence order: extends results first, then processor pseudo-fragments
// contributed by this level's plugins, then the object's own fragment, then
// overrides results.
func (f *Factory) normalizeBody(data ConfigData, ctx resolveContext) ([]*Fragment, error) {
	var out []*Fragment

	for _, entry := range extendsList(data["extends"]) {
		extended, err := f.loadExtends(entry, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, extended...)
	}

	var parser *Dependency[any]
	if name, ok := data["parser"].(string); ok {
		parser = f.loadParser(name, ctx)
	}

	plugins, err := f.loadPlugins(data["plugins"], ctx)
	if err != nil {
		return nil, err
	}

	if len(plugins) > 0 {
		pseudo, err := f.extensionProcessorFragments(plugins, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, pseudo...)
	}

	out = append(out, &Fragment{
		Name:          ctx.name,
		FilePath:      ctx.filePath,
		Env:           asMap(data["env"]),
		Globals:       asMap(data["globals"]),
		Parser:        parser,
		ParserOptions: asMap(data["parserOptions"]),
		Plugins:       plugins,
		Processor:     asString(data["processor"]),
		Root:          rootSettingOf(data["root"]),
		Rules:         asMap(data["rules"]),
		Settings:      asMap(data["settings"]),
	})

	if overrides, ok := data["overrides"].([]any); ok {
		for i, raw := range overrides {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name := fmt.Sprintf("%s#overrides[%d]", ctx.name, i)
			sub, err := f.normalizeScope(ConfigData(entry), ctx.withName(name))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// extensionProcessorFragments synthesizes one scoped pseudo-fragment per
// plugin processor keyed by a file extension, binding files matching that
// extension to the processor. Plugins whose load failed contribute nothing;
// their failure surfaces when the dependency itself is dereferenced.
func (f *Factory) extensionProcessorFragments(plugins map[string]*Dependency[*Plugin], ctx resolveContext) ([]*Fragment, error) {
	var out []*Fragment
	for _, pluginID := range sortedKeys(plugins) {
		def, err := plugins[pluginID].Definition()
		if err != nil || def == nil {
			continue
		}
		for _, processorID := range sortedKeys(def.Processors) {
			if !strings.HasPrefix(processorID, ".") {
				continue
			}
			processor := pluginID + "/" + processorID
			pseudo := ConfigData{
				"files":     []any{"*" + processorID},
				"processor": processor,
			}
			name := fmt.Sprintf("%s#processors[%q]", ctx.name, processor)
			sub, err := f.normalizeScope(pseudo, ctx.withName(name))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// loadMemoized re-runs a previous directory-search winner. stale reports
// that the memo entry no longer applies (the file is gone, or the manifest
// lost its config field) and the full scan must run again.
func (f *Factory) loadMemoized(path, name string) (fragments []*Fragment, stale bool, err error) {
	st, statErr := os.Stat(path)
	if statErr != nil || !st.Mode().IsRegular() {
		return nil, true, nil
	}
	fragments, err = f.loadConfigData(f.newContext(name, path))
	if err != nil {
		if errors.Is(err, source.ErrConfigFieldNotFound) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return fragments, false, nil
}

func (f *Factory) memoizedFile(dir string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	path, ok := f.dirMemo[dir]
	return path, ok
}

func (f *Factory) rememberMemo(dir, path string) {
	f.mu.Lock()
	f.dirMemo[dir] = path
	f.mu.Unlock()
}

func (f *Factory) forgetMemo(dir string) {
	f.mu.Lock()
	delete(f.dirMemo, dir)
	f.mu.Unlock()
}

func loadOptions(opts *LoadOptions) LoadOptions {
	if opts == nil {
		return LoadOptions{}
	}
	return *opts
}

// extendsList flattens an extends value into its non-empty entries, in
// declared order.
func extendsList(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}
