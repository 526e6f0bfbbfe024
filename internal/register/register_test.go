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

package register

import "testing"

func TestApply_Read(t *testing.T) {
	cases := []struct {
		name    string
		state   Value
		val     Value
		accepts bool
	}{
		{"matches_value", uint64(1), uint64(1), true},
		{"mismatches_value", uint64(1), uint64(2), false},
		{"matches_nil", nil, nil, true},
		{"mismatches_nil_state", nil, uint64(1), false},
		{"mismatches_nonnil_state", uint64(1), nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			accepts, next := Apply(c.state, Payload{Kind: Read, Val: c.val})
			if accepts != c.accepts {
				t.Fatalf("accepts = %v, want %v", accepts, c.accepts)
			}
			if accepts && next != c.state {
				t.Fatalf("next = %v, want unchanged state %v", next, c.state)
			}
		})
	}
}

func TestApply_Write(t *testing.T) {
	accepts, next := Apply(uint64(5), Payload{Kind: Write, Val: uint64(9)})
	if !accepts {
		t.Fatalf("write must always accept")
	}
	if next != uint64(9) {
		t.Fatalf("next = %v, want 9", next)
	}

	// Write from the initial nil state still always accepts.
	accepts, next = Apply(nil, Payload{Kind: Write, Val: uint64(1)})
	if !accepts || next != uint64(1) {
		t.Fatalf("write from nil state: accepts=%v next=%v", accepts, next)
	}
}

func TestApply_CAS(t *testing.T) {
	cases := []struct {
		name     string
		state    Value
		expected Value
		new      Value
		accepts  bool
		next     Value
	}{
		{"precondition_met", uint64(1), uint64(1), uint64(2), true, uint64(2)},
		{"precondition_unmet", uint64(1), uint64(2), uint64(3), false, uint64(1)},
		{"precondition_nil_met", nil, nil, uint64(1), true, uint64(1)},
		{"precondition_nil_unmet", uint64(1), nil, uint64(2), false, uint64(1)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			accepts, next := Apply(c.state, Payload{Kind: CAS, Expected: c.expected, New: c.new})
			if accepts != c.accepts {
				t.Fatalf("accepts = %v, want %v", accepts, c.accepts)
			}
			if next != c.next {
				t.Fatalf("next = %v, want %v", next, c.next)
			}
		})
	}
}
