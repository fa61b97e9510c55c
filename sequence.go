package eslintrc

import (
	"fmt"
	"slices"
)

// Sequence is an ordered series of config fragments. Order encodes
// precedence: earlier fragments yield to later ones during extraction.
// A sequence is immutable once built.
type Sequence struct {
	fragments []*Fragment
}

// NewSequence builds a sequence from fragments in ascending precedence
// order.
func NewSequence(fragments ...*Fragment) *Sequence {
	return &Sequence{fragments: slices.Clone(fragments)}
}

// Fragments returns the fragments in order. The returned slice is a copy.
func (s *Sequence) Fragments() []*Fragment {
	return slices.Clone(s.fragments)
}

// Len returns the number of fragments.
func (s *Sequence) Len() int {
	return len(s.fragments)
}

// IsRoot reports whether the sequence terminates the upward cascade: the
// highest-precedence fragment carrying an explicit root setting has it set
// to true.
func (s *Sequence) IsRoot() bool {
	for i := len(s.fragments) - 1; i >= 0; i-- {
		switch s.fragments[i].Root {
		case RootTrue:
			return true
		case RootFalse:
			return false
		}
	}
	return false
}

// PluginRules aggregates rule definitions across every plugin contributed
// by any fragment, keyed "<pluginId>/<ruleId>".
func (s *Sequence) PluginRules() map[string]any {
	return pluginMembers(s.fragments, func(p *Plugin) map[string]any { return p.Rules })
}

// PluginProcessors aggregates processor definitions across every plugin
// contributed by any fragment, keyed "<pluginId>/<processorId>".
func (s *Sequence) PluginProcessors() map[string]any {
	return pluginMembers(s.fragments, func(p *Plugin) map[string]any { return p.Processors })
}

// PluginEnvironments aggregates environment definitions across every plugin
// contributed by any fragment, keyed "<pluginId>/<envId>".
func (s *Sequence) PluginEnvironments() map[string]any {
	return pluginMembers(s.fragments, func(p *Plugin) map[string]any { return p.Environments })
}

// Concat prepends parent's fragments to child's. The child keeps precedence.
// Concatenation is refused with ErrRootBoundary when the child opens with an
// explicit root config; a root config does not inherit.
func Concat(parent, child *Sequence) (*Sequence, error) {
	if child == nil {
		return NewSequence(parentFragments(parent)...), nil
	}
	return concatFragments(parent, child.fragments)
}

// concatFragments implements Concat over a freshly built fragment slice.
func concatFragments(parent *Sequence, fragments []*Fragment) (*Sequence, error) {
	if parent == nil || len(parent.fragments) == 0 {
		return &Sequence{fragments: slices.Clone(fragments)}, nil
	}
	if len(fragments) > 0 && fragments[0].Root == RootTrue {
		return nil, fmt.Errorf("%w: %s", ErrRootBoundary, fragments[0].Name)
	}
	merged := make([]*Fragment, 0, len(parent.fragments)+len(fragments))
	merged = append(merged, parent.fragments...)
	merged = append(merged, fragments...)
	return &Sequence{fragments: merged}, nil
}

func parentFragments(parent *Sequence) []*Fragment {
	if parent == nil {
		return nil
	}
	return parent.fragments
}

// pluginMembers builds one aggregate member map over fragments in order.
// The first successfully loaded occurrence of a plugin id contributes its
// members; repeats are ignored and failed loads are skipped, surfacing only
// when dereferenced directly.
func pluginMembers(fragments []*Fragment, member func(*Plugin) map[string]any) map[string]any {
	out := map[string]any{}
	seen := map[string]bool{}
	for _, fr := range fragments {
		for _, id := range sortedKeys(fr.Plugins) {
			if seen[id] {
				continue
			}
			def, err := fr.Plugins[id].Definition()
			if err != nil || def == nil {
				continue
			}
			seen[id] = true
			members := member(def)
			for _, name := range sortedKeys(members) {
				out[id+"/"+name] = members[name]
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
