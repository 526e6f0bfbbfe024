// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package register implements the single-register transition function that
// the linearizability search engine uses to decide whether an operation's
// recorded outcome is consistent with a given register state.
package register

// Value is the opaque, comparable value a register holds. A nil Value
// represents "never written" / "uninitialized" (the register's initial
// state, and the expected read value before any write has landed).
type Value = any

// Kind identifies which operation variant a Payload carries.
type Kind int

const (
	Read Kind = iota
	Write
	CAS
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case CAS:
		return "cas"
	default:
		return "unknown"
	}
}

// Payload is the operation's type and data, mirroring the three-shape
// tagged variant in the data model: Read(key, value?), Write(key, value),
// CAS(key, expected?, new?). Only the fields relevant to Kind are
// meaningful; the others are left zero.
type Payload struct {
	Kind Kind
	Key  any

	// Read: Val is the observed value (nil if not yet known / read nil).
	// Write: Val is the value written.
	Val any

	// CAS: Expected and New are the compare value and the swap value.
	Expected any
	New      any
}

// Apply computes (accepts, next) for applying payload p against the current
// register state. It never mutates p or state; callers construct a new
// state from the returned value.
//
//   - Read(v) accepts iff state == v; next = state.
//   - Write(v) always accepts; next = v.
//   - CAS(expected, new) accepts iff state == expected; next = new.
//
// A Read's recorded value may be nil, meaning "nil" / uninitialized; this
// matches a state of nil.
func Apply(state Value, p Payload) (accepts bool, next Value) {
	switch p.Kind {
	case Read:
		if state == p.Val {
			return true, state
		}
		return false, state
	case Write:
		return true, p.Val
	case CAS:
		if state == p.Expected {
			return true, p.New
		}
		return false, state
	default:
		return false, state
	}
}
