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
	"context"
	"sync/atomic"
	"time"

	"lincheck/internal/partition"
)

// KeyResult is one key's full search result, named, for per-key
// diagnostics and the result cache.
type KeyResult struct {
	Key    any
	Result Result
}

// Cache is the optional verdict memoization hook (internal/cache
// implements this against Redis). A nil Cache disables memoization.
type Cache interface {
	Get(key any, sub *partition.SubTimeline) (Verdict, bool)
	Put(key any, sub *partition.SubTimeline, v Verdict)
}

// DurationVerdictObserver is an optional extension of Metrics: a collector
// that also wants per-key wall-clock duration and the final verdict
// distribution (internal/telemetry's Telemetry implements both). RunAll
// type-asserts for it rather than widening Metrics itself, since a plain
// per-step Metrics (e.g. in tests) shouldn't have to stub these out.
type DurationVerdictObserver interface {
	ObserveKeyDuration(d time.Duration)
	ObserveVerdict(v Verdict)
}

// RunAll checks every sub-timeline in subs, using a worker pool of the
// given size, and returns one KeyResult per key plus the aggregated
// overall verdict. Per spec.md §4.5, once any key is known Weak the
// overall verdict is already decided: a key whose search has not yet
// started is then skipped (reported Inconclusive) rather than launched,
// but a search already under way always runs to its true verdict instead
// of being aborted mid-flight, so an already-decided sibling can never
// turn a key's real verdict into a spurious Inconclusive.
func RunAll(parent context.Context, subs map[any]*partition.SubTimeline, workers int, bound Bound, metrics Metrics, cache Cache) ([]KeyResult, Verdict) {
	pool := NewWorkerPool(workers)

	type namedResult struct {
		key any
		res Result
	}
	resultsCh := make(chan namedResult, len(subs))
	observer, _ := metrics.(DurationVerdictObserver)
	var decided atomic.Bool

	run := func(ctx context.Context, key any, sub *partition.SubTimeline) {
		if decided.Load() {
			resultsCh <- namedResult{key: key, res: Result{Verdict: Inconclusive}}
			return
		}
		if cache != nil {
			if v, ok := cache.Get(key, sub); ok {
				resultsCh <- namedResult{key: key, res: Result{Verdict: v}}
				if observer != nil {
					observer.ObserveVerdict(v)
				}
				if v == Weak {
					decided.Store(true)
				}
				return
			}
		}
		start := time.Now()
		res := Run(ctx, sub, RunOptions{Bound: bound, Metrics: metrics})
		if observer != nil {
			observer.ObserveKeyDuration(time.Since(start))
			observer.ObserveVerdict(res.Verdict)
		}
		if cache != nil && res.Verdict != Inconclusive {
			cache.Put(key, sub, res.Verdict)
		}
		resultsCh <- namedResult{key: key, res: res}
		if res.Verdict == Weak {
			decided.Store(true)
		}
	}

	pool.Start(parent, run)
	for key, sub := range subs {
		pool.Submit(key, sub)
	}
	pool.CloseAndWait()
	close(resultsCh)

	var out []KeyResult
	var kvs []KeyVerdict
	for nr := range resultsCh {
		out = append(out, KeyResult{Key: nr.key, Result: nr.res})
		kvs = append(kvs, KeyVerdict{Key: nr.key, Verdict: nr.res.Verdict})
	}

	return out, Aggregate(kvs)
}
