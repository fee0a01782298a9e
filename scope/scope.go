// Package scope resolves dotted target specifiers such as "strip.left" to
// live objects.
package scope

import (
	"strings"
)

// A Lookup finds host objects by identifier when the scope's own map has no
// entry for the first specifier segment.
type Lookup interface {
	Element(id string) (interface{}, bool)
}

// A Container exposes named members for path traversal.
type Container interface {
	Member(name string) (interface{}, bool)
}

// Scope is a target lookup scope used for resolving animation targets.
type Scope struct {
	lookup  Lookup
	targets map[string]interface{}
}

// New creates a scope. lookup may be nil to disable the host fallback.
// targets is copied.
func New(lookup Lookup, targets map[string]interface{}) *Scope {
	s := new(Scope)
	s.lookup = lookup
	s.targets = make(map[string]interface{}, len(targets))
	for k, v := range targets {
		s.targets[k] = v
	}
	return s
}

// Set registers or replaces a named target.
func (s *Scope) Set(name string, target interface{}) {
	s.targets[name] = target
}

// Get resolves a specifier like "foo" or "foo.member.child".
func (s *Scope) Get(specifier string) (interface{}, bool) {
	segments := strings.Split(specifier, ".")
	if segments[0] == "" {
		return nil, false
	}

	value, ok := s.targets[segments[0]]
	if (!ok || value == nil) && s.lookup != nil {
		value, ok = s.lookup.Element(segments[0])
	}
	if !ok || value == nil {
		return nil, false
	}

	for _, name := range segments[1:] {
		value, ok = member(value, name)
		if !ok || value == nil {
			return nil, false
		}
	}
	return value, true
}

func member(value interface{}, name string) (interface{}, bool) {
	switch v := value.(type) {
	case Container:
		return v.Member(name)
	case map[string]interface{}:
		m, ok := v[name]
		return m, ok
	}
	return nil, false
}
