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

package search

import (
	"fmt"
	"strconv"
	"strings"

	"lincheck/internal/history"
	"lincheck/internal/register"
)

// feedIdx indexes a single span within a client's queue; it identifies one
// edge of the witness ordering graph.
type feedIdx struct {
	client int
	index  int
}

// possibility is a search node: the register state and per-client
// consumption pointer after some linearized prefix, plus the auxiliary
// max-invoke-seen bookkeeping the real-time guard needs. graph is the
// witness ordering; it is tracked only to report Result.Witness and MUST NOT
// take part in node identity (spec.md §9).
type possibility struct {
	state     register.Value
	feed      []int
	maxInvoke history.Timestamp
	graph     []feedIdx
}

func initialPossibility(numClients int) possibility {
	return possibility{
		state: nil,
		feed:  make([]int, numClients),
	}
}

// key returns the canonical dedup identity of p: (state, feed_progress).
// Two possibilities are equivalent iff their keys are equal, because any
// two prefixes yielding the same register state and the same per-client
// consumption point have identical futures.
func (p possibility) key() string {
	var b strings.Builder
	// %v would also work but allocates via reflection; state is always a
	// uint64 or nil coming out of the loader, so a direct type switch
	// keeps this on the fast path without losing generality for other
	// comparable Value types (they just fall back to fmt.Fprintf).
	switch v := p.state.(type) {
	case nil:
		b.WriteString("-|")
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
		b.WriteByte('|')
	default:
		fmt.Fprintf(&b, "%v|", v)
	}
	for i, n := range p.feed {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
