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

// Package history holds the input data model for the checker: the flat
// Event log emitted by the loader, the per-client OpSpan timeline folded
// from it by the Builder, and the invariants both must satisfy.
package history

import (
	"fmt"

	"lincheck/internal/register"
)

// ClientID is a dense, non-negative client identifier.
type ClientID int

// Timestamp is a monotone, non-negative logical clock value. Zero is
// reserved for "not yet completed" on an OpSpan's FinishTS field.
type Timestamp int64

// EventKind is the tag of a raw history event.
type EventKind int

const (
	Invoke EventKind = iota
	Okay
	Fail
	Info
)

func (k EventKind) String() string {
	switch k {
	case Invoke:
		return "invoke"
	case Okay:
		return "ok"
	case Fail:
		return "fail"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Event is a single totally-ordered entry from the raw history: a
// timestamp, a kind, the client that issued it, and the operation payload
// (result fields populated only on Okay).
type Event struct {
	Time    Timestamp
	Kind    EventKind
	Client  ClientID
	Payload register.Payload
}

// OpSpan is a completed (or, transiently during construction, inflight)
// operation interval. FinishTS == 0 means inflight; the Builder never
// returns a Timeline containing an inflight span.
type OpSpan struct {
	InvokeTS Timestamp
	FinishTS Timestamp
	Payload  register.Payload
}

func (s OpSpan) String() string {
	return fmt.Sprintf("|%d-%d %s|", s.InvokeTS, s.FinishTS, s.Payload.Kind)
}

// Timeline is the Builder's output: one ordered span queue per client.
// Invariants (enforced during construction, not by this type):
//   - within a client's queue, spans are sorted by InvokeTS
//   - InvokeTS_i < FinishTS_i <= InvokeTS_{i+1} (single-flight per client)
//   - every retained span has FinishTS > 0
type Timeline struct {
	Queues []Queue
	Stats  Stats
}

// Queue is one client's ordered sequence of completed spans.
type Queue []OpSpan

// NumClients reports the number of client slots in the timeline (including
// clients that issued no retained operation).
func (t *Timeline) NumClients() int { return len(t.Queues) }

// Stats carries descriptive statistics computed while folding events into
// spans, printed by the CLI the way the original checker's
// print_timeline_stats did.
type Stats struct {
	TotalOps int

	// ReadCalls/ReadOkays/ReadFails and the write/cas equivalents count
	// Invoke/Okay/(Fail+Info) events observed per operation kind, prior to
	// Fail/Info spans being dropped.
	ReadCalls, ReadOkays, ReadFails   int
	WriteCalls, WriteOkays, WriteFail int
	CASCalls, CASOkays, CASFails      int

	Keys map[any]int // per-key retained op counts
}
