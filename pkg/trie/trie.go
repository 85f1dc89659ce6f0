// Package trie provides a generic trie keyed by slash-separated paths, with
// MQTT-style wildcards:
//   - "a/b/c" - exact path match
//   - "a/+/c" - single-level wildcard (matches any one segment)
//   - "a/#"   - multi-level wildcard (matches all remaining segments)
//
// The node registry routes names like "elevenlabs/text-to-speech" through
// it; the wildcards allow catch-all entries alongside exact ones.
package trie

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidPattern is returned when "#" appears anywhere but the final
// segment of a path.
var ErrInvalidPattern = errors.New(`invalid path pattern: "#" must be the final segment`)

// Trie stores values of type T under slash-separated paths. Lookups prefer
// exact segment matches over "+" matches over "#" matches, following MQTT
// topic subscription rules.
type Trie[T any] struct {
	exact   map[string]*Trie[T] // children by literal segment
	wildOne *Trie[T]            // "+" single-level wildcard
	wildAll *Trie[T]            // "#" multi-level wildcard
	has     bool                // whether this node holds a value
	val     T
}

// New creates an empty Trie.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

// split breaks a path into segments. One trailing slash is ignored, so
// "a/b/" addresses the same node as "a/b". Interior empty segments are
// kept: "a//b" has an empty segment in the middle.
func split(path string) []string {
	if path == "" {
		return nil
	}
	segs := strings.Split(path, "/")
	if segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	return segs
}

func (t *Trie[T]) store(fn func(ptr *T, existed bool) error) error {
	if err := fn(&t.val, t.has); err != nil {
		return err
	}
	t.has = true
	return nil
}

// Set stores a value at path through setFunc, which receives a pointer to
// the slot and whether a value was already present. This lets callers
// detect replacement or merge into an existing value.
//
// Path patterns:
//   - "a/b/c"   - exact segments
//   - "a/b/c/"  - same as "a/b/c"
//   - "a/b//c/" - adds a child named "" under "a/b"
//   - "a/+/c"   - single-level wildcard
//   - "a/#"     - multi-level wildcard (must be the last segment)
//
// Returns ErrInvalidPattern for a misplaced "#", or any error from setFunc.
func (t *Trie[T]) Set(path string, setFunc func(ptr *T, existed bool) error) error {
	node := t
	segs := split(path)
	for i, seg := range segs {
		switch seg {
		case "+":
			if node.wildOne == nil {
				node.wildOne = &Trie[T]{}
			}
			node = node.wildOne
		case "#":
			if i != len(segs)-1 {
				return ErrInvalidPattern
			}
			if node.wildAll == nil {
				node.wildAll = &Trie[T]{}
			}
			node = node.wildAll
		default:
			child, ok := node.exact[seg]
			if !ok {
				child = &Trie[T]{}
				if node.exact == nil {
					node.exact = make(map[string]*Trie[T])
				}
				node.exact[seg] = child
			}
			node = child
		}
	}
	return node.store(setFunc)
}

// SetValue stores value at path, replacing any existing value.
func (t *Trie[T]) SetValue(path string, value T) error {
	return t.Set(path, func(ptr *T, _ bool) error {
		*ptr = value
		return nil
	})
}

// Get returns a pointer to the value matching path, preferring exact
// matches over wildcard matches.
func (t *Trie[T]) Get(path string) (*T, bool) {
	_, val, ok := t.lookup(nil, split(path))
	return val, ok
}

// GetValue returns the value matching path, or the zero value and false.
func (t *Trie[T]) GetValue(path string) (T, bool) {
	if ptr, ok := t.Get(path); ok {
		return *ptr, true
	}
	var zero T
	return zero, false
}

// Match returns the pattern that matched path along with the value, e.g.
// Match("a/x/c") may report the route "/a/+/c".
func (t *Trie[T]) Match(path string) (route string, value *T, ok bool) {
	return t.lookup(nil, split(path))
}

// lookup walks segs depth-first, trying the exact child first, then "+",
// then "#". A failed branch backtracks to the next alternative, so an
// exact prefix with no matching tail still falls through to a wildcard.
func (t *Trie[T]) lookup(route, segs []string) (string, *T, bool) {
	if len(segs) == 0 {
		if !t.has {
			return "", nil, false
		}
		return routeString(route), &t.val, true
	}
	head, tail := segs[0], segs[1:]
	if child := t.exact[head]; child != nil {
		if r, v, ok := child.lookup(append(route, head), tail); ok {
			return r, v, true
		}
	}
	if t.wildOne != nil {
		if r, v, ok := t.wildOne.lookup(append(route, "+"), tail); ok {
			return r, v, true
		}
	}
	if t.wildAll != nil {
		if r, v, ok := t.wildAll.lookup(append(route, "#"), nil); ok {
			return r, v, true
		}
	}
	return "", nil, false
}

func routeString(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	return "/" + strings.Join(segs, "/")
}

// Walk calls f for every node in the trie, set or not. Iteration order is
// unspecified.
func (t *Trie[T]) Walk(f func(path string, value T, set bool)) {
	t.walk("", f)
}

func (t *Trie[T]) walk(path string, f func(string, T, bool)) {
	f(path, t.val, t.has)
	for seg, child := range t.exact {
		child.walk(childPath(path, seg), f)
	}
	if t.wildOne != nil {
		t.wildOne.walk(childPath(path, "+"), f)
	}
	if t.wildAll != nil {
		t.wildAll.walk(childPath(path, "#"), f)
	}
}

func childPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "/" + seg
}

// String lists all stored values as "path: value" lines, sorted. For
// debugging.
func (t *Trie[T]) String() string {
	var lines []string
	t.Walk(func(path string, value T, set bool) {
		if set {
			lines = append(lines, fmt.Sprintf("%s: %v", path, value))
		}
	})
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}

// Len returns the number of stored values.
func (t *Trie[T]) Len() int {
	n := 0
	if t.has {
		n = 1
	}
	for _, child := range t.exact {
		n += child.Len()
	}
	if t.wildOne != nil {
		n += t.wildOne.Len()
	}
	if t.wildAll != nil {
		n += t.wildAll.Len()
	}
	return n
}
