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

package history

import (
	"fmt"

	"lincheck/internal/checkerr"
	"lincheck/internal/register"
)

// Build folds a totally-ordered event sequence into a Timeline. events
// must be sorted and strictly increasing in Time; Build does not sort them.
// numClients is the number of client slots to allocate (the caller passes
// max observed client id + 1).
//
// Per event kind:
//   - Invoke requires the client's queue to be empty or its last span
//     completed; appends a new inflight span with any result fields
//     scrubbed to nil (the Invoke is not trusted to carry them).
//   - Okay requires an inflight span at the back of the client's queue,
//     with a payload matching variant/key (and, for Write, value); sets
//     FinishTS and overwrites the result-bearing fields with the
//     Okay-reported values.
//   - Fail/Info require an inflight span and drop it: a span that
//     definitely did not take effect (Fail) or whose effect is unknown
//     (Info, treated identically per the documented non-goal) need not be
//     linearized.
//
// Any invariant violation is fatal and returned wrapped in
// checkerr.ErrInvariantViolation.
func Build(events []Event, numClients int) (*Timeline, error) {
	tl := &Timeline{
		Queues: make([]Queue, numClients),
		Stats: Stats{
			Keys: make(map[any]int),
		},
	}

	for _, e := range events {
		if int(e.Client) < 0 || int(e.Client) >= numClients {
			return nil, fmt.Errorf("%w: client %d out of range [0,%d)", checkerr.ErrInvariantViolation, e.Client, numClients)
		}
		q := tl.Queues[e.Client]

		switch e.Kind {
		case Invoke:
			if len(q) > 0 && q[len(q)-1].FinishTS == 0 {
				return nil, fmt.Errorf("%w: client %d invoke @ %d when previous op flying", checkerr.ErrInvariantViolation, e.Client, e.Time)
			}
			countCall(&tl.Stats, e.Payload.Kind)
			payload := e.Payload
			scrubResult(&payload)
			tl.Queues[e.Client] = append(q, OpSpan{InvokeTS: e.Time, FinishTS: 0, Payload: payload})

		case Okay:
			if len(q) == 0 || q[len(q)-1].FinishTS != 0 {
				return nil, fmt.Errorf("%w: client %d ok @ %d when no op is flying", checkerr.ErrInvariantViolation, e.Client, e.Time)
			}
			idx := len(q) - 1
			if !matchesPrevious(e.Payload, q[idx].Payload) {
				return nil, fmt.Errorf("%w: client %d ok @ %d payload mismatches invoke", checkerr.ErrInvariantViolation, e.Client, e.Time)
			}
			q[idx].FinishTS = e.Time
			overwriteResult(&q[idx].Payload, e.Payload)
			countOkay(&tl.Stats, e.Payload.Kind)
			tl.Stats.Keys[q[idx].Payload.Key]++
			tl.Stats.TotalOps++

		case Fail, Info:
			if len(q) == 0 || q[len(q)-1].FinishTS != 0 {
				return nil, fmt.Errorf("%w: client %d fail/info @ %d when no op is flying", checkerr.ErrInvariantViolation, e.Client, e.Time)
			}
			countFail(&tl.Stats, q[len(q)-1].Payload.Kind)
			// Drop: the span never gets a retained FinishTS. This is the
			// later-revision choice documented in spec.md §9, tested by
			// Testable Property 2 (monotonicity in failures).
			tl.Queues[e.Client] = q[:len(q)-1]

		default:
			return nil, fmt.Errorf("%w: unknown event kind %v", checkerr.ErrInvariantViolation, e.Kind)
		}
	}

	// Any span still inflight when the recorded history ends (no matching
	// Okay/Fail/Info) is dropped: the Timeline invariant guarantees every
	// retained span has FinishTS > 0, and an operation whose outcome was
	// never recorded can't be linearized any more soundly than a Fail can.
	for c, q := range tl.Queues {
		if len(q) > 0 && q[len(q)-1].FinishTS == 0 {
			tl.Queues[c] = q[:len(q)-1]
		}
	}

	return tl, nil
}

// scrubResult clears result-bearing fields so an Invoke event can never
// smuggle a result value into the timeline.
func scrubResult(p *register.Payload) {
	switch p.Kind {
	case register.Read:
		p.Val = nil
	case register.CAS:
		p.Expected = nil
		p.New = nil
	}
}

// overwriteResult copies the Okay-reported result fields onto the inflight
// span's payload (trusting the Okay over the Invoke; see spec.md §9).
func overwriteResult(dst *register.Payload, src register.Payload) {
	switch dst.Kind {
	case register.Read:
		dst.Val = src.Val
	case register.CAS:
		dst.Expected = src.Expected
		dst.New = src.New
	}
}

// matchesPrevious reports whether an Okay/Fail/Info payload forms a
// matching pair with the inflight Invoke payload: same variant, same key,
// and for Write the same value (writes carry their intended value at
// Invoke already).
func matchesPrevious(reported, inflight register.Payload) bool {
	if reported.Kind != inflight.Kind || reported.Key != inflight.Key {
		return false
	}
	if reported.Kind == register.Write && reported.Val != inflight.Val {
		return false
	}
	return true
}

func countCall(s *Stats, k register.Kind) {
	switch k {
	case register.Read:
		s.ReadCalls++
	case register.Write:
		s.WriteCalls++
	case register.CAS:
		s.CASCalls++
	}
}

func countOkay(s *Stats, k register.Kind) {
	switch k {
	case register.Read:
		s.ReadOkays++
	case register.Write:
		s.WriteOkays++
	case register.CAS:
		s.CASOkays++
	}
}

func countFail(s *Stats, k register.Kind) {
	switch k {
	case register.Read:
		s.ReadFails++
	case register.Write:
		s.WriteFail++
	case register.CAS:
		s.CASFails++
	}
}
