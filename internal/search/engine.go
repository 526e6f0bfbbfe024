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

// Package search implements the linearizability search engine: a
// breadth-first exploration of per-key operation orderings that prunes by
// canonicalized reachable state. This is the core of the checker; see
// spec.md §4.4.
package search

import (
	"context"
	"time"

	"lincheck/internal/history"
	"lincheck/internal/partition"
	"lincheck/internal/register"
)

// Bound limits the search so it is guaranteed to terminate even when the
// history is not linearizable (the worst case is exponential in the number
// of overlapping operations). Zero fields mean "unbounded" on that axis.
type Bound struct {
	MaxExpanded int           // cap on the number of possibilities popped and expanded
	Deadline    time.Duration // wall-clock budget for this key's search
}

// Metrics receives a search's totals (possibilities expanded, seen-set
// size) once, when the search ends Linearizable or Weak; a search that ends
// Inconclusive reports nothing. A nil Metrics is valid and simply disables
// telemetry.
type Metrics interface {
	ObserveExpanded(n int)
	ObserveSeenSetSize(n int)
}

// RunOptions configures a single sub-timeline search.
type RunOptions struct {
	Bound   Bound
	Metrics Metrics
	// Verbose, when true, keeps the witness ordering graph on each
	// possibility so a human-readable trace can be printed on return. It
	// never affects the decision (spec.md §9: the graph is not part of
	// node identity).
	Verbose bool
}

// Result is everything a caller might want out of one key's search.
type Result struct {
	Verdict    Verdict
	Expanded   int
	SeenUnique int
	// Witness is the accepting possibility's ordering graph, only
	// populated when RunOptions.Verbose is set and Verdict is
	// Linearizable.
	Witness []feedIdx
}

// Run decides whether sub is linearizable: is there a total order of its
// spans respecting per-client order, the real-time rule, and register
// semantics? It returns Inconclusive (not Weak) if ctx is cancelled or the
// Bound is exhausted before a decision is reached.
func Run(ctx context.Context, sub *partition.SubTimeline, opts RunOptions) Result {
	numClients := len(sub.Queues)
	if totalSpans(sub) == 0 {
		// A sub-timeline with no spans is vacuously linearizable.
		return Result{Verdict: Linearizable}
	}

	start := initialPossibility(numClients)
	pending := []possibility{start}
	seen := map[string]struct{}{start.key(): {}}

	deadline := time.Time{}
	if opts.Bound.Deadline > 0 {
		deadline = time.Now().Add(opts.Bound.Deadline)
	}

	expanded := 0
	for len(pending) > 0 {
		if opts.Bound.MaxExpanded > 0 && expanded >= opts.Bound.MaxExpanded {
			return Result{Verdict: Inconclusive, Expanded: expanded, SeenUnique: len(seen)}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return Result{Verdict: Inconclusive, Expanded: expanded, SeenUnique: len(seen)}
		}
		select {
		case <-ctx.Done():
			return Result{Verdict: Inconclusive, Expanded: expanded, SeenUnique: len(seen)}
		default:
		}

		p := pending[0]
		pending = pending[1:]
		expanded++

		done := true
		for client, idx := range p.feed {
			if idx == len(sub.Queues[client]) {
				continue
			}
			done = false
			feeding := sub.Queues[client][idx]

			// Real-time guard: a span that had already completed before
			// something already-placed had even been invoked cannot come
			// after it.
			if feeding.FinishTS < p.maxInvoke {
				continue
			}

			// Semantic guard: the register transition function.
			accepts, next := register.Apply(p.state, feeding.Payload)
			if !accepts {
				continue
			}

			succ := possibility{
				state:     next,
				feed:      append([]int(nil), p.feed...),
				maxInvoke: maxTimestamp(p.maxInvoke, feeding.InvokeTS),
			}
			succ.feed[client]++
			if opts.Verbose {
				succ.graph = append(append([]feedIdx(nil), p.graph...), feedIdx{client: client, index: idx})
			}

			k := succ.key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			pending = append(pending, succ)
		}

		if done {
			if opts.Metrics != nil {
				opts.Metrics.ObserveExpanded(expanded)
				opts.Metrics.ObserveSeenSetSize(len(seen))
			}
			return Result{Verdict: Linearizable, Expanded: expanded, SeenUnique: len(seen), Witness: p.graph}
		}
	}

	if opts.Metrics != nil {
		opts.Metrics.ObserveExpanded(expanded)
		opts.Metrics.ObserveSeenSetSize(len(seen))
	}
	return Result{Verdict: Weak, Expanded: expanded, SeenUnique: len(seen)}
}

func totalSpans(sub *partition.SubTimeline) int {
	n := 0
	for _, q := range sub.Queues {
		n += len(q)
	}
	return n
}

func maxTimestamp(a, b history.Timestamp) history.Timestamp {
	if a > b {
		return a
	}
	return b
}
