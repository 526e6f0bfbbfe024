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

// Package partition splits a Timeline into one independent sub-timeline per
// key, since the register model has no cross-key coupling: every key can be
// checked on its own.
package partition

import "lincheck/internal/history"

// SubTimeline is a Timeline filtered to the spans touching one key, with
// per-client relative order preserved.
type SubTimeline struct {
	Key    any
	Queues []history.Queue
}

// Split groups every completed span in tl by key, preserving per-client
// order within each group. The returned map's iteration order is therefore
// irrelevant to correctness (Testable Property 1): callers that need a
// stable order should sort the keys themselves.
func Split(tl *history.Timeline) map[any]*SubTimeline {
	out := make(map[any]*SubTimeline)
	numClients := tl.NumClients()

	for client, queue := range tl.Queues {
		for _, span := range queue {
			key := span.Payload.Key
			sub, ok := out[key]
			if !ok {
				sub = &SubTimeline{
					Key:    key,
					Queues: make([]history.Queue, numClients),
				}
				out[key] = sub
			}
			sub.Queues[client] = append(sub.Queues[client], span)
		}
	}

	return out
}
