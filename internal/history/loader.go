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

// This file is the History Loader external collaborator: it reads the
// line-oriented history.edn textual log and emits a flat, validated Event
// sequence. Its guarantees (strictly increasing index/time, well-formed
// payloads) are what the Timeline Builder relies on.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lincheck/internal/checkerr"
	"lincheck/internal/register"
)

// HistoryFileName is the expected file name inside a test directory.
const HistoryFileName = "history.edn"

// LoadDir opens testDir/history.edn and parses it. It is the entry point
// the CLI calls for the --test-dir flag.
func LoadDir(testDir string) ([]Event, int, error) {
	f, err := os.Open(filepath.Join(testDir, HistoryFileName))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", checkerr.ErrIO, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a history.edn stream into a flat sequence of Events, plus the
// number of client slots needed (max observed client id + 1).
//
// Each line is a map literal `{field stuff, field stuff, ...}`. Fields
// whose key begins with ':' are recognized; all others are ignored. Lines
// whose :process is a keyword (begins with ':') are not from real clients
// and are skipped silently (nemesis/scheduler events, etc). A line that
// fails to parse is skipped with a warning to stderr rather than aborting
// the whole load, except for the structural violations (an unparsable or
// non-monotone :index/:time, or a line missing one of :time, :type,
// :process, :f) which are fatal per spec.md §7.
func Parse(r io.Reader) ([]Event, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var events []Event
	lastIndex := int64(-1)
	var lastTime Timestamp
	maxClient := ClientID(0)
	seenAny := false

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "{")
		line = strings.TrimSuffix(line, "}")
		if line == "" {
			continue
		}

		var (
			haveTime   bool
			haveKind   bool
			haveClient bool
			havePayld  bool
			time       Timestamp
			kind       EventKind
			client     ClientID
			payload    register.Payload
		)

		skip := false
		for _, seg := range strings.Split(line, ",") {
			seg = strings.TrimSpace(seg)
			if seg == "" || !strings.HasPrefix(seg, ":") {
				continue
			}
			field, stuff, ok := strings.Cut(seg, " ")
			if !ok {
				fmt.Fprintf(os.Stderr, "line %d: skip due to invalid segment: %s\n", lineNo, seg)
				skip = true
				break
			}
			stuff = strings.TrimSpace(stuff)

			switch field {
			case ":index":
				n, err := strconv.ParseInt(stuff, 10, 64)
				if err != nil {
					return nil, 0, fmt.Errorf("%w: line %d: bad :index %q: %v", checkerr.ErrInvariantViolation, lineNo, stuff, err)
				}
				if n <= lastIndex {
					return nil, 0, fmt.Errorf("%w: line %d: index %d <= last index %d", checkerr.ErrInvariantViolation, lineNo, n, lastIndex)
				}
				lastIndex = n

			case ":time":
				n, err := strconv.ParseInt(stuff, 10, 64)
				if err != nil {
					return nil, 0, fmt.Errorf("%w: line %d: bad :time %q: %v", checkerr.ErrInvariantViolation, lineNo, stuff, err)
				}
				t := Timestamp(n)
				if t <= lastTime {
					return nil, 0, fmt.Errorf("%w: line %d: timestamp %d <= last timestamp %d", checkerr.ErrInvariantViolation, lineNo, t, lastTime)
				}
				lastTime = t
				time = t
				haveTime = true

			case ":type":
				k, err := parseEventKind(stuff)
				if err != nil {
					fmt.Fprintf(os.Stderr, "line %d: skip due to :type: %v\n", lineNo, err)
					skip = true
				} else {
					kind = k
					haveKind = true
				}

			case ":process":
				if strings.HasPrefix(stuff, ":") {
					skip = true
					break
				}
				n, err := strconv.Atoi(stuff)
				if err != nil {
					fmt.Fprintf(os.Stderr, "line %d: skip due to :process: %v\n", lineNo, err)
					skip = true
					break
				}
				client = ClientID(n)
				if client > maxClient {
					maxClient = client
				}
				haveClient = true

			case ":f":
				p, err := parsePayloadKind(stuff)
				if err != nil {
					fmt.Fprintf(os.Stderr, "line %d: skip due to :f: %v\n", lineNo, err)
					skip = true
				} else {
					payload = p
					havePayld = true
				}

			case ":value":
				if !havePayld {
					fmt.Fprintf(os.Stderr, "line %d: skip: :value before :f\n", lineNo)
					skip = true
					break
				}
				if err := fillValue(&payload, stuff); err != nil {
					fmt.Fprintf(os.Stderr, "line %d: skip due to :value: %v\n", lineNo, err)
					skip = true
				}

			default:
				// :tstag and any other field are ignored; tags are opaque
				// debugging aids the core never requires for correctness.
			}

			if skip {
				break
			}
		}

		if skip {
			continue
		}
		if !(haveTime && haveKind && haveClient && havePayld) {
			return nil, 0, fmt.Errorf("%w: line %d: missing event field(s)", checkerr.ErrInvariantViolation, lineNo)
		}

		seenAny = true
		events = append(events, Event{Time: time, Kind: kind, Client: client, Payload: payload})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", checkerr.ErrIO, err)
	}
	if !seenAny {
		return nil, 0, fmt.Errorf("%w: input history is empty", checkerr.ErrMalformedHistory)
	}

	return events, int(maxClient) + 1, nil
}

func parseEventKind(s string) (EventKind, error) {
	switch s {
	case ":invoke":
		return Invoke, nil
	case ":ok":
		return Okay, nil
	case ":fail":
		return Fail, nil
	case ":info":
		return Info, nil
	default:
		return 0, fmt.Errorf("unknown event type: %s", s)
	}
}

func parsePayloadKind(s string) (register.Payload, error) {
	switch s {
	case ":read":
		return register.Payload{Kind: register.Read}, nil
	case ":write":
		return register.Payload{Kind: register.Write}, nil
	case ":cas":
		return register.Payload{Kind: register.CAS}, nil
	default:
		return register.Payload{}, fmt.Errorf("unknown operation type: %s", s)
	}
}

// fillValue parses the :value field's bracketed cluster:
//
//	[k v]      for read/write
//	[k [rv wv]] for cas
//
// the literal nil represents the absence of a value.
func fillValue(p *register.Payload, s string) error {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	key, rest, ok := strings.Cut(s, " ")
	if !ok {
		return fmt.Errorf("invalid :value %q", s)
	}
	key = strings.TrimSpace(key)
	rest = strings.TrimSpace(rest)

	keyNum, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key %q: %v", key, err)
	}
	p.Key = keyNum

	switch p.Kind {
	case register.Read:
		v, err := parseOptionalValue(rest)
		if err != nil {
			return err
		}
		p.Val = v

	case register.Write:
		v, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid write value %q: %v", rest, err)
		}
		p.Val = v

	case register.CAS:
		rest = strings.TrimPrefix(rest, "[")
		rest = strings.TrimSuffix(rest, "]")
		rv, wv, ok := strings.Cut(rest, " ")
		if !ok {
			return fmt.Errorf("invalid cas value pair %q", rest)
		}
		rval, err := parseOptionalValue(strings.TrimSpace(rv))
		if err != nil {
			return err
		}
		wval, err := parseOptionalValue(strings.TrimSpace(wv))
		if err != nil {
			return err
		}
		p.Expected = rval
		p.New = wval
	}

	return nil
}

func parseOptionalValue(s string) (any, error) {
	if s == "nil" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %v", s, err)
	}
	return v, nil
}
