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

// Verdict is the per-key (or overall) outcome of a search. The public
// taxonomy is the total order Weak < Inconclusive < Linearizable; today
// only the endpoints are actually decided by the engine, Inconclusive
// being reserved for a search aborted by its Bound (spec.md §5, §9).
type Verdict int

const (
	Weak Verdict = iota
	Inconclusive
	Linearizable
)

func (v Verdict) String() string {
	switch v {
	case Weak:
		return "weak"
	case Inconclusive:
		return "inconclusive"
	case Linearizable:
		return "linearizable"
	default:
		return "unknown"
	}
}

// Min returns the weaker of two verdicts.
func Min(a, b Verdict) Verdict {
	if a < b {
		return a
	}
	return b
}

// KeyVerdict pairs a key's verdict with the key itself, for per-key
// diagnostics (the aggregator needs to name which key broke, not just that
// one did).
type KeyVerdict struct {
	Key     any
	Verdict Verdict
}

// Aggregate combines independent per-key verdicts into one overall verdict:
// the minimum (weakest) across keys (spec.md §4.5). Per Testable Property
// 1, the order in which keys are supplied must not change the result.
func Aggregate(results []KeyVerdict) Verdict {
	overall := Linearizable
	for _, r := range results {
		overall = Min(overall, r.Verdict)
	}
	return overall
}
