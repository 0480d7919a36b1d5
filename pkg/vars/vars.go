// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vars implements the macro variable store. A variable holds either
// an integer or a 2-D screen position; its kind may change on reassignment.
package vars

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFound is returned when a variable name has never been set.
	ErrNotFound = errors.New("variable not found in store")
	// ErrTypeMismatch is returned when an operation is applied to a value
	// of the wrong kind, e.g. increase on a position.
	ErrTypeMismatch = errors.New("variable holds a value of the wrong type")
)

// Kind is the tag of a stored Value.
type Kind int

const (
	// Integer is a scalar int64 value.
	Integer Kind = iota
	// Position is a 2-D screen coordinate pair.
	Position
)

// Value is the tagged union stored per variable name.
type Value struct {
	Kind Kind
	Int  int64
	X, Y int64
}

// IntValue builds an Integer Value.
func IntValue(i int64) Value {
	return Value{Kind: Integer, Int: i}
}

// PosValue builds a Position Value.
func PosValue(x, y int64) Value {
	return Value{Kind: Position, X: x, Y: y}
}

// String renders the textual form used by condition substitution:
// a decimal for integers, a parenthesized pair for positions.
func (v Value) String() string {
	if v.Kind == Position {
		return fmt.Sprintf("(%d, %d)", v.X, v.Y)
	}
	return fmt.Sprintf("%d", v.Int)
}

// Store maps variable names (without the $ sigil) to their values.
type Store struct {
	values map[string]Value
}

// NewStore returns an empty variable store.
func NewStore() *Store {
	return &Store{values: make(map[string]Value)}
}

// Set stores value under name, replacing any previous value of any kind.
func (s *Store) Set(name string, value Value) {
	s.values[name] = value
}

// Get returns the value stored under name, or ErrNotFound.
func (s *Store) Get(name string) (Value, error) {
	v, ok := s.values[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: $%s", ErrNotFound, name)
	}
	return v, nil
}

// Increase adds delta to the integer stored under name. An absent name is
// initialized to 0 first. Increase on a position is a type error.
func (s *Store) Increase(name string, delta int64) (int64, error) {
	v, ok := s.values[name]
	if !ok {
		v = IntValue(0)
	}
	if v.Kind != Integer {
		return 0, fmt.Errorf("%w: cannot increase position $%s", ErrTypeMismatch, name)
	}
	v.Int += delta
	s.values[name] = v
	return v.Int, nil
}

// Names returns all defined variable names sorted by descending length.
// The condition evaluator substitutes longer names first so that a name
// that is a prefix of another never corrupts it.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// Len returns the number of defined variables.
func (s *Store) Len() int {
	return len(s.values)
}
