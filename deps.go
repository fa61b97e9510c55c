package eslintrc

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/dshills/eslintrc/modules"
)

var whitespacePattern = regexp.MustCompile(`\s`)

// loadParser resolves a parser declaration into a dependency. The pool is
// consulted first, then disk resolution from the importer's directory, then
// the bundled default parser when the name matches its id. Failures are
// captured in the dependency, never returned.
func (f *Factory) loadParser(name string, ctx resolveContext) *Dependency[any] {
	if def, ok := f.pooledParser(name); ok {
		return &Dependency[any]{
			ID:           name,
			ImporterName: ctx.name,
			ImporterPath: ctx.filePath,
			definition:   def,
		}
	}

	filePath, err := f.resolver.Resolve(name, f.importerDir(ctx))
	if err == nil {
		var def any
		def, err = f.evaluator.Evaluate(filePath)
		if err == nil {
			f.log.Debugw("loaded parser", "name", name, "path", filePath)
			return &Dependency[any]{
				ID:           name,
				FilePath:     filePath,
				ImporterName: ctx.name,
				ImporterPath: ctx.filePath,
				definition:   def,
			}
		}
	}

	if name == f.defaultParserID {
		return &Dependency[any]{
			ID:           name,
			ImporterName: ctx.name,
			ImporterPath: ctx.filePath,
			definition:   f.defaultParser,
		}
	}

	f.log.Debugw("parser load failed", "name", name, "importer", ctx.name, "error", err)
	return &Dependency[any]{
		ID:           name,
		ImporterName: ctx.name,
		ImporterPath: ctx.filePath,
		Err: &DependencyLoadError{
			Kind:     DependencyParser,
			Name:     name,
			Importer: ctx.name,
			Err:      err,
		},
	}
}

// loadPlugin resolves one plugin name into a dependency. The name is
// normalized to its package form and the pool is consulted under both the
// package and shorthand forms before disk resolution. Only a whitespace
// name is an immediate error; load failures are captured in the dependency.
func (f *Factory) loadPlugin(name string, ctx resolveContext) (*Dependency[*Plugin], error) {
	if whitespacePattern.MatchString(name) {
		return nil, &WhitespaceInNameError{Name: name}
	}

	request := modules.NormalizePackageName(name, "eslint-plugin")
	id := modules.ShorthandName(request, "eslint-plugin")

	if p, ok := f.pooledPlugin(request, id); ok {
		return &Dependency[*Plugin]{
			ID:           id,
			ImporterName: ctx.name,
			ImporterPath: ctx.filePath,
			definition:   p,
		}, nil
	}

	baseDir := f.pluginBaseDir(ctx)
	filePath, err := f.resolver.Resolve(request, baseDir)
	if err == nil {
		var raw any
		raw, err = f.evaluator.Evaluate(filePath)
		if err == nil {
			f.log.Debugw("loaded plugin", "id", id, "path", filePath)
			return &Dependency[*Plugin]{
				ID:           id,
				FilePath:     filePath,
				ImporterName: ctx.name,
				ImporterPath: ctx.filePath,
				definition:   decodePlugin(raw),
			}, nil
		}
	}

	f.log.Debugw("plugin load failed", "id", id, "request", request, "base", baseDir, "error", err)
	return &Dependency[*Plugin]{
		ID:           id,
		ImporterName: ctx.name,
		ImporterPath: ctx.filePath,
		Err: &DependencyLoadError{
			Kind:     DependencyPlugin,
			Name:     request,
			Importer: ctx.name,
			Err:      fmt.Errorf("%w (resolved from %s)", err, baseDir),
		},
	}, nil
}

// loadPlugins loads a plugins list into a dependency map keyed by shorthand
// id. File-path entries are rejected outright; everything else defers its
// failures.
func (f *Factory) loadPlugins(value any, ctx resolveContext) (map[string]*Dependency[*Plugin], error) {
	list, ok := value.([]any)
	if !ok {
		return nil, nil
	}
	out := make(map[string]*Dependency[*Plugin], len(list))
	for _, raw := range list {
		name, ok := raw.(string)
		if !ok {
			continue
		}
		if modules.IsFilePath(name) {
			return nil, fmt.Errorf("%w: %q", ErrFilePathPlugin, name)
		}
		dep, err := f.loadPlugin(name, ctx)
		if err != nil {
			return nil, err
		}
		out[dep.ID] = dep
	}
	return out, nil
}

// pooledParser looks a parser up in the in-memory pool by exact name.
func (f *Factory) pooledParser(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	def, ok := f.parserPool[name]
	return def, ok
}

// pooledPlugin looks a plugin up in the in-memory pool, accepting either
// the full package name or the shorthand id as the registration key.
func (f *Factory) pooledPlugin(request, id string) (*Plugin, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if p, ok := f.pluginPool[request]; ok {
		return p, true
	}
	p, ok := f.pluginPool[id]
	return p, ok
}

// importerDir is the module resolution base: the declaring config's
// directory, or the working directory for in-memory configs.
func (f *Factory) importerDir(ctx resolveContext) string {
	if ctx.filePath != "" {
		return filepath.Dir(ctx.filePath)
	}
	return f.cwd
}

// pluginBaseDir is the plugin resolution base, which a fixed base path
// configured on the factory takes over entirely.
func (f *Factory) pluginBaseDir(ctx resolveContext) string {
	if f.pluginBase != "" {
		return f.pluginBase
	}
	return f.importerDir(ctx)
}
