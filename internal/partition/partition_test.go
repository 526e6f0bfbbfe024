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

package partition

import (
	"testing"

	"lincheck/internal/history"
	"lincheck/internal/register"
)

func TestSplit_GroupsByKeyPreservingClientOrder(t *testing.T) {
	tl := &history.Timeline{
		Queues: []history.Queue{
			{
				{InvokeTS: 1, FinishTS: 2, Payload: register.Payload{Kind: register.Write, Key: uint64(1), Val: uint64(10)}},
				{InvokeTS: 3, FinishTS: 4, Payload: register.Payload{Kind: register.Write, Key: uint64(2), Val: uint64(20)}},
				{InvokeTS: 5, FinishTS: 6, Payload: register.Payload{Kind: register.Read, Key: uint64(1), Val: uint64(10)}},
			},
		},
	}

	subs := Split(tl)
	if len(subs) != 2 {
		t.Fatalf("len(subs) = %d, want 2", len(subs))
	}
	k1 := subs[uint64(1)]
	if k1 == nil || len(k1.Queues[0]) != 2 {
		t.Fatalf("key 1 sub-timeline = %+v", k1)
	}
	if k1.Queues[0][0].Payload.Val != uint64(10) || k1.Queues[0][1].Payload.Kind != register.Read {
		t.Fatalf("key 1 client order not preserved: %+v", k1.Queues[0])
	}

	k2 := subs[uint64(2)]
	if k2 == nil || len(k2.Queues[0]) != 1 {
		t.Fatalf("key 2 sub-timeline = %+v", k2)
	}
}
