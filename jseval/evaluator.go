// Package jseval evaluates CommonJS config modules with an embedded
// JavaScript engine.
//
// Each Evaluate call builds a fresh runtime, so edits to a config module or
// anything it requires are always picked up. Modules see the usual CommonJS
// surface (module, exports, require, __filename, __dirname) plus a no-op
// console and a minimal process object. require resolution is delegated to
// a modules.Resolver, and required .json files are parsed as JSON.
package jseval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dop251/goja"

	"github.com/dshills/eslintrc/modules"
	"github.com/dshills/eslintrc/source"
)

// Evaluator runs JS config modules. The zero value is not usable; call New.
type Evaluator struct {
	resolver modules.Resolver
}

var _ source.Evaluator = (*Evaluator)(nil)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithResolver sets the resolver used by require. Defaults to the
// node_modules resolver.
func WithResolver(r modules.Resolver) Option {
	return func(e *Evaluator) {
		e.resolver = r
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		resolver: modules.NewNodeResolver(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the module at path and returns its exported value as plain
// Go data. Objects export as map[string]any, arrays as []any.
func (e *Evaluator) Evaluate(path string) (value any, err error) {
	// The engine reports script errors as Go errors, but resolver callbacks
	// surface through panics; keep those contained.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script evaluation panicked: %v", r)
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	if err := e.setupGlobals(vm); err != nil {
		return nil, err
	}

	// Module registry for this call only. Filled before a module body runs
	// so require cycles resolve to the partially built exports.
	loaded := map[string]*goja.Object{}
	exported, err := e.loadModule(vm, abs, loaded)
	if err != nil {
		return nil, err
	}
	return exported.Export(), nil
}

// setupGlobals installs the host objects every module can see.
func (e *Evaluator) setupGlobals(vm *goja.Runtime) error {
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, noop); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	process := vm.NewObject()
	if err := process.Set("env", env); err != nil {
		return err
	}
	if err := process.Set("platform", jsPlatform()); err != nil {
		return err
	}
	return vm.Set("process", process)
}

// loadModule evaluates one module file, registering it in loaded.
func (e *Evaluator) loadModule(vm *goja.Runtime, path string, loaded map[string]*goja.Object) (goja.Value, error) {
	if module, ok := loaded[path]; ok {
		return module.Get("exports"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if filepath.Ext(path) == ".json" {
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		module := vm.NewObject()
		if err := module.Set("exports", vm.ToValue(out)); err != nil {
			return nil, err
		}
		loaded[path] = module
		return module.Get("exports"), nil
	}

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	loaded[path] = module

	src := "(function(module, exports, require, __filename, __dirname) {\n" + string(data) + "\n})"
	wrapper, err := vm.RunScript(path, src)
	if err != nil {
		delete(loaded, path)
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	call, ok := goja.AssertFunction(wrapper)
	if !ok {
		delete(loaded, path)
		return nil, fmt.Errorf("evaluate %s: wrapper is not a function", path)
	}

	dir := filepath.Dir(path)
	req := e.newRequire(vm, dir, loaded)
	if _, err := call(goja.Undefined(), module, exports, req, vm.ToValue(path), vm.ToValue(dir)); err != nil {
		delete(loaded, path)
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	return module.Get("exports"), nil
}

// newRequire builds the require function for a module in fromDir. Failures
// are thrown into the running script as exceptions, matching how a missing
// module behaves for the script author.
func (e *Evaluator) newRequire(vm *goja.Runtime, fromDir string, loaded map[string]*goja.Object) goja.Value {
	return vm.ToValue(func(call goja.FunctionCall) goja.Value {
		request := call.Argument(0).String()
		resolved, err := e.resolver.Resolve(request, fromDir)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		exported, err := e.loadModule(vm, resolved, loaded)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return exported
	})
}

func jsPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "win32"
	default:
		return runtime.GOOS
	}
}
