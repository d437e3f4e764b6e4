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

package bal

import "time"

// Stats reports the size and liveness of the watch registry. It's a
// supplement to spec.md's explicit API surface, grounded on
// original_source/balinternal.c's last-activity bookkeeping (SPEC_FULL.md
// §4.6), useful for a caller that wants to detect a reactor that's stopped
// making progress without instrumenting every callback itself.
type Stats struct {
	// RegisteredCount is the number of descriptors currently watched.
	RegisteredCount int
	// OldestIdle is how long the least-recently-active registered
	// descriptor has gone without an Add/Touch. Zero if RegisteredCount
	// is zero.
	OldestIdle time.Duration
}

// GetStats returns a snapshot of the current registry state. Safe to call
// whether or not Init has been called; an uninitialized library reports
// zero values rather than ErrNotInit, since "no stats yet" isn't really an
// error condition for a diagnostic accessor.
func GetStats() Stats {
	globalMu.Lock()
	reg := globalReg
	globalMu.Unlock()

	if reg == nil {
		return Stats{}
	}

	entries := reg.Snapshot()
	if len(entries) == 0 {
		return Stats{}
	}

	now := time.Now().UnixNano()
	oldest := now
	for _, e := range entries {
		if ts := reg.LastActivityNanos(e.Key); ts != 0 && ts < oldest {
			oldest = ts
		}
	}

	return Stats{
		RegisteredCount: len(entries),
		OldestIdle:      time.Duration(now - oldest),
	}
}
