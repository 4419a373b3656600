// Package depset provides an immutable, order-preserving, deduplicated set
// that is assembled from direct elements and other sets. Building a set is
// O(direct + children); the flattened view is computed once, on first use,
// so deep dependency chains do not copy their ancestors' elements at every
// level.
package depset

import "sync"

// Set is an immutable ordered set. The zero value is an empty set.
// A Set is safe for concurrent use.
type Set[T comparable] struct {
	n *node[T]
}

type node[T comparable] struct {
	direct     []T
	transitive []*node[T]

	once sync.Once
	flat []T
}

// New builds a set whose iteration order is the direct elements first, then
// the elements of each transitive set in the order given. Duplicates keep
// their first position.
func New[T comparable](direct []T, transitive ...Set[T]) Set[T] {
	var children []*node[T]
	for _, t := range transitive {
		if t.n != nil {
			children = append(children, t.n)
		}
	}
	if len(direct) == 0 {
		switch len(children) {
		case 0:
			return Set[T]{}
		case 1:
			return Set[T]{n: children[0]}
		}
	}
	d := make([]T, len(direct))
	copy(d, direct)
	return Set[T]{n: &node[T]{direct: d, transitive: children}}
}

// Of is shorthand for New(elems).
func Of[T comparable](elems ...T) Set[T] {
	return New(elems)
}

// ToList returns the flattened elements. The returned slice must not be
// modified.
func (s Set[T]) ToList() []T {
	if s.n == nil {
		return nil
	}
	return s.n.flatten()
}

// Len returns the number of distinct elements.
func (s Set[T]) Len() int {
	return len(s.ToList())
}

// IsEmpty reports whether the set has no elements.
func (s Set[T]) IsEmpty() bool {
	return s.Len() == 0
}

// Contains reports whether v is an element of the set.
func (s Set[T]) Contains(v T) bool {
	for _, e := range s.ToList() {
		if e == v {
			return true
		}
	}
	return false
}

func (n *node[T]) flatten() []T {
	n.once.Do(func() {
		seen := make(map[T]struct{})
		var out []T
		var visitedNodes = make(map[*node[T]]struct{})
		var walk func(cur *node[T])
		walk = func(cur *node[T]) {
			if _, ok := visitedNodes[cur]; ok {
				return
			}
			visitedNodes[cur] = struct{}{}
			for _, v := range cur.direct {
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, v)
			}
			for _, child := range cur.transitive {
				walk(child)
			}
		}
		walk(n)
		n.flat = out
	})
	return n.flat
}
