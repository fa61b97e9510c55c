package eslintrc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/eslintrc/modules"
)

// extendsError annotates a failure under an extends entry with the config
// that referenced it. Annotations stack as a failure unwinds a chain of
// nested extends, so the report names every importer on the path.
type extendsError struct {
	err      error
	referrer string
}

// Error implements the error interface.
func (e *extendsError) Error() string {
	return fmt.Sprintf("%v (referenced from %s)", e.err, e.referrer)
}

// Unwrap returns the underlying error.
func (e *extendsError) Unwrap() error {
	return e.err
}

// referrer identifies the config a failure points back at: its file path
// when it has one, its diagnostic name otherwise.
func referrer(ctx resolveContext) string {
	if ctx.filePath != "" {
		return ctx.filePath
	}
	return ctx.name
}

// loadExtends resolves one extends entry and flattens the config it names.
// Failures here are always fatal: an extended config's contents are needed
// to finish flattening the importer.
func (f *Factory) loadExtends(name string, ctx resolveContext) ([]*Fragment, error) {
	f.log.Debugw("loading extends", "entry", name, "importer", referrer(ctx))

	var (
		fragments []*Fragment
		err       error
	)
	switch {
	case strings.HasPrefix(name, "eslint:"):
		fragments, err = f.loadExtendedBuiltin(name, ctx)
	case strings.HasPrefix(name, "plugin:"):
		fragments, err = f.loadExtendedPluginConfig(name, ctx)
	default:
		fragments, err = f.loadExtendedShareableConfig(name, ctx)
	}
	if err != nil {
		return nil, &extendsError{err: err, referrer: referrer(ctx)}
	}
	return fragments, nil
}

// loadExtendedBuiltin resolves eslint:-prefixed targets against the bundled
// config table. The table data is cloned before flattening so resolution
// never mutates the shared copy.
func (f *Factory) loadExtendedBuiltin(name string, ctx resolveContext) ([]*Fragment, error) {
	data, ok := builtInConfigs[name]
	if !ok {
		return nil, &MissingExtendError{Name: name, Importer: referrer(ctx)}
	}
	sub := ctx.withName(ctx.name + " » " + name)
	sub.filePath = ""
	return f.normalizeConfigData(cloneConfigData(data), sub)
}

// loadExtendedPluginConfig resolves plugin:-prefixed targets. The plugin
// name runs to the last slash, so scoped plugins keep their scope and the
// config name cannot itself contain a slash. The plugin is needed now, so a
// load failure that a plugins list entry would defer is fatal here.
func (f *Factory) loadExtendedPluginConfig(name string, ctx resolveContext) ([]*Fragment, error) {
	slash := strings.LastIndex(name, "/")
	if slash < 0 {
		return nil, &MissingExtendError{Name: name, Importer: referrer(ctx)}
	}
	pluginName := name[len("plugin:"):slash]
	configName := name[slash+1:]

	if modules.IsFilePath(pluginName) {
		return nil, fmt.Errorf("%w: %q", ErrFilePathExtend, pluginName)
	}

	dep, err := f.loadPlugin(pluginName, ctx)
	if err != nil {
		return nil, err
	}
	if def, derr := dep.Definition(); derr == nil && def != nil {
		if data, ok := def.Configs[configName]; ok {
			sub := ctx.withName(ctx.name + " » plugin:" + dep.ID + "/" + configName)
			if dep.FilePath != "" {
				sub.filePath = dep.FilePath
			}
			return f.normalizeConfigData(cloneConfigData(data), sub)
		}
	}
	if dep.Err != nil {
		return nil, dep.Err
	}
	return nil, &MissingExtendError{Name: name, Importer: referrer(ctx)}
}

// loadExtendedShareableConfig resolves bare targets as shareable configs: a
// file path reads directly, a leading-dot name is treated as a relative path
// for compatibility, and anything else goes through the eslint-config
// package naming convention and module resolution.
func (f *Factory) loadExtendedShareableConfig(name string, ctx resolveContext) ([]*Fragment, error) {
	var request string
	switch {
	case modules.IsFilePath(name):
		request = name
	case strings.HasPrefix(name, "."):
		request = "./" + name
	default:
		request = modules.NormalizePackageName(name, "eslint-config")
	}

	filePath, err := f.resolver.Resolve(request, f.importerDir(ctx))
	if err != nil {
		if errors.Is(err, modules.ErrNotFound) {
			return nil, &MissingExtendError{Name: name, Importer: referrer(ctx)}
		}
		return nil, err
	}
	f.log.Debugw("resolved shareable config", "request", request, "path", filePath)

	sub := ctx.withName(ctx.name + " » " + request)
	sub.filePath = filePath
	return f.loadConfigData(sub)
}
