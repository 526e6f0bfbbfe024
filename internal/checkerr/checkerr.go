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

// Package checkerr defines the error taxonomy shared across the loader,
// timeline builder, and search engine, so the CLI can map any failure to
// the right exit code with errors.Is instead of string matching.
package checkerr

import "errors"

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", ErrX) to attach
// context; callers use errors.Is(err, checkerr.ErrX) to classify.
var (
	// ErrIO covers the history file missing or unreadable.
	ErrIO = errors.New("io error")

	// ErrMalformedHistory covers a parse failure on a single segment or
	// line. The loader may choose to skip the offending line with a
	// warning instead of treating this as fatal.
	ErrMalformedHistory = errors.New("malformed history")

	// ErrInvariantViolation covers non-monotone index/time, a double
	// invoke on one client, an ok/fail with no inflight op, or an
	// Invoke/Okay payload mismatch. The history is not a legal execution
	// trace and no verdict can be rendered.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrInconclusive marks a per-key search aborted by its bound (node
	// cap or deadline) rather than having exhausted its search space.
	ErrInconclusive = errors.New("inconclusive")
)

// ExitCode maps an error from the pipeline to the process exit code
// convention from the CLI surface:
//
//	0   linearizable (no error; caller checks the verdict, not this)
//	1   not linearizable (no error either; see verdict)
//	>=2 checker error (I/O, malformed history, internal invariant violation)
//	101 internal panic / crash convention
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrIO):
		return 2
	case errors.Is(err, ErrMalformedHistory):
		return 3
	case errors.Is(err, ErrInvariantViolation):
		return 4
	default:
		return 2
	}
}
