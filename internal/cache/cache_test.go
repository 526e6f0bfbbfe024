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

package cache

import (
	"testing"

	"lincheck/internal/history"
	"lincheck/internal/partition"
	"lincheck/internal/register"
)

func TestBuild_EmptyAddrDisablesCache(t *testing.T) {
	if c := Build("", 0); c != nil {
		t.Fatalf("expected nil Cache for empty addr, got %#v", c)
	}
}

func TestCacheKey_DeterministicForIdenticalSubTimelines(t *testing.T) {
	mk := func() *partition.SubTimeline {
		return &partition.SubTimeline{
			Key: "k",
			Queues: []history.Queue{
				{history.OpSpan{InvokeTS: 1, FinishTS: 2, Payload: register.Payload{Kind: register.Write, Key: "k", Val: uint64(1)}}},
			},
		}
	}
	a, b := cacheKey("k", mk()), cacheKey("k", mk())
	if a != b {
		t.Fatalf("cacheKey not deterministic: %q vs %q", a, b)
	}
}

func TestCacheKey_DiffersOnDifferentPayload(t *testing.T) {
	base := &partition.SubTimeline{
		Key: "k",
		Queues: []history.Queue{
			{history.OpSpan{InvokeTS: 1, FinishTS: 2, Payload: register.Payload{Kind: register.Write, Key: "k", Val: uint64(1)}}},
		},
	}
	changed := &partition.SubTimeline{
		Key: "k",
		Queues: []history.Queue{
			{history.OpSpan{InvokeTS: 1, FinishTS: 2, Payload: register.Payload{Kind: register.Write, Key: "k", Val: uint64(2)}}},
		},
	}
	if cacheKey("k", base) == cacheKey("k", changed) {
		t.Fatalf("expected different cache keys for different payload values")
	}
}
