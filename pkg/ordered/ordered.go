// Package ordered provides an insertion-ordered keyed container.
//
// The planner relies on declaration order for reproducible SQL: column
// order in CREATE TABLE, seed-insert column order, and so on (see the
// Invariants in the data model). A plain Go map gives no order guarantee,
// so every YAML entity collection (columns, triggers, grants, tables,
// schemas) is built on Map instead.
package ordered

import (
	"container/list"
	"fmt"
)

// Named is implemented by anything that can be the value of a Map; its
// name is the map key.
type Named interface {
	GetName() string
}

// Map is an append-only-during-construction, insertion-ordered container
// keyed by name. It is not safe for concurrent use: the planner's
// concurrency model (single-threaded cooperative, one LiveModel owner per
// invocation) never requires it to be.
type Map[T Named] struct {
	index map[string]*list.Element
	order *list.List
}

// New returns an empty Map.
func New[T Named]() *Map[T] {
	return &Map[T]{
		index: make(map[string]*list.Element),
		order: list.New(),
	}
}

// Append adds value under its own name. It fails if the name is empty or
// already present, matching the Invariants in the data model ("Column
// names, table names, ... are unique within their parent").
func (m *Map[T]) Append(value T) error {
	name := value.GetName()
	if name == "" {
		return fmt.Errorf("ordered.Map: empty name")
	}
	if _, ok := m.index[name]; ok {
		return fmt.Errorf("ordered.Map: duplicate %q", name)
	}
	elem := m.order.PushBack(value)
	m.index[name] = elem
	return nil
}

// Set inserts value under name, overwriting any existing entry of that
// name in place (its position in iteration order is preserved). Used by
// template merge ("same-named entries in the consuming table override").
func (m *Map[T]) Set(value T) {
	name := value.GetName()
	if elem, ok := m.index[name]; ok {
		elem.Value = value
		return
	}
	elem := m.order.PushBack(value)
	m.index[name] = elem
}

// Get returns the value for name, if present.
func (m *Map[T]) Get(name string) (T, bool) {
	var zero T
	elem, ok := m.index[name]
	if !ok {
		return zero, false
	}
	return elem.Value.(T), true
}

// Has reports whether name is present.
func (m *Map[T]) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Len returns the number of entries.
func (m *Map[T]) Len() int {
	return len(m.index)
}

// Values returns every value in insertion order.
func (m *Map[T]) Values() []T {
	values := make([]T, 0, m.order.Len())
	for e := m.order.Front(); e != nil; e = e.Next() {
		values = append(values, e.Value.(T))
	}
	return values
}
