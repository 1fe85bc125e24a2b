// Package statemachine provides a minimal state-function machine following
// Rob Pike's lexer pattern: states are functions and each returns the next
// state, or nil to terminate.
package statemachine

import (
	"reflect"
	"sync"
)

// StateFn is a state. It inspects the entity and returns the state to move
// to, which may be itself.
type StateFn[T any] func(*T) StateFn[T]

// Machine drives an entity through StateFns. Safe for concurrent use.
type Machine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mu      sync.RWMutex
}

// New creates a machine for entity starting in initial.
func New[T any](entity *T, initial StateFn[T]) *Machine[T] {
	return &Machine[T]{entity: entity, stateFn: initial}
}

// Dispatch enters the given state and runs it once, transitioning to
// whatever it returns.
func (m *Machine[T]) Dispatch(stateFn StateFn[T]) {
	m.mu.Lock()
	m.stateFn = stateFn
	m.mu.Unlock()

	if stateFn == nil {
		return
	}
	next := stateFn(m.entity)

	m.mu.Lock()
	m.stateFn = next
	m.mu.Unlock()
}

// Set replaces the current state without running it.
func (m *Machine[T]) Set(stateFn StateFn[T]) {
	m.mu.Lock()
	m.stateFn = stateFn
	m.mu.Unlock()
}

// Is reports whether the machine currently sits in the given state.
// Function values are not comparable in Go, so the check goes through the
// function pointer.
func (m *Machine[T]) Is(stateFn StateFn[T]) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stateFn == nil || stateFn == nil {
		return m.stateFn == nil && stateFn == nil
	}
	return reflect.ValueOf(m.stateFn).Pointer() == reflect.ValueOf(stateFn).Pointer()
}

// Terminated reports whether the machine has reached the nil state.
func (m *Machine[T]) Terminated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateFn == nil
}
