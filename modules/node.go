package modules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// NodeResolver resolves requests the way the node module system does.
// Relative and absolute requests resolve against the base directory with
// extension and directory fallbacks; bare package requests walk
// node_modules directories upward from the base.
type NodeResolver struct{}

// NewNodeResolver creates a NodeResolver.
func NewNodeResolver() *NodeResolver {
	return &NodeResolver{}
}

// Resolve implements Resolver.
func (r *NodeResolver) Resolve(request, fromDir string) (string, error) {
	if request == "" {
		return "", fmt.Errorf("%w: empty request", ErrNotFound)
	}

	if IsFilePath(request) {
		target := request
		if !filepath.IsAbs(target) {
			target = filepath.Join(fromDir, request)
		}
		if p, ok := r.loadAsFile(target); ok {
			return p, nil
		}
		if p, ok := r.loadAsDirectory(target); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s (from %s)", ErrNotFound, request, fromDir)
	}

	for dir := fromDir; ; {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(request))
		if p, ok := r.loadAsFile(candidate); ok {
			return p, nil
		}
		if p, ok := r.loadAsDirectory(candidate); ok {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s (from %s)", ErrNotFound, request, fromDir)
}

// loadAsFile tries the path itself, then with .js and .json extensions.
func (r *NodeResolver) loadAsFile(p string) (string, bool) {
	for _, candidate := range []string{p, p + ".js", p + ".json"} {
		if isRegularFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// loadAsDirectory honors a package.json "main" entry, then falls back to
// index files.
func (r *NodeResolver) loadAsDirectory(dir string) (string, bool) {
	if !isDir(dir) {
		return "", false
	}

	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		if main := gjson.GetBytes(data, "main"); main.Type == gjson.String && main.Str != "" {
			target := filepath.Join(dir, filepath.FromSlash(main.Str))
			if p, ok := r.loadAsFile(target); ok {
				return p, true
			}
			if p, ok := r.loadIndex(target); ok {
				return p, true
			}
		}
	}
	return r.loadIndex(dir)
}

func (r *NodeResolver) loadIndex(dir string) (string, bool) {
	for _, name := range []string{"index.js", "index.json"} {
		candidate := filepath.Join(dir, name)
		if isRegularFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isRegularFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
