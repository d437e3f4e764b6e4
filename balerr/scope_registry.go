// Copyright 2015 Google Inc. All Rights Reserved.
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

package balerr

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Current returns the Scope bound to the calling goroutine, creating one on
// first use. This is what package bal's top-level functions use so that
// callers who never heard of Scope still get spec.md §4.1's "last error is
// per calling thread" behavior for free; callers who manage their own
// goroutines directly (not through bal's Register callbacks) can still take
// a Scope with NewScope and bypass this map entirely.
//
// The map is unbounded: a goroutine that calls into bal once and exits
// leaks one entry. Acceptable here since every real caller of this library
// is a long-lived worker or the reactor's own goroutine, never a
// fire-and-forget one per request.
func Current() *Scope {
	id := goroutineID()

	scopesMu.Lock()
	defer scopesMu.Unlock()

	s, ok := scopes[id]
	if !ok {
		s = NewScope()
		scopes[id] = s
	}
	return s
}

var (
	scopesMu sync.Mutex
	scopes   = map[int64]*Scope{}
)

func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
