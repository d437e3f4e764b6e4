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

package registry

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// recursiveMutex is a mutex that the goroutine already holding it may
// re-lock without blocking. The registry must use one: callback dispatch
// (see the reactor) invokes user code while the registry lock is held, and
// that user code is permitted to call back into Add/Remove/Find from the
// same goroutine.
//
// Go has no built-in recursive mutex and no public goroutine-id API. This
// implementation pays the cost of parsing runtime.Stack's header to obtain
// one; that cost is acceptable here because registry operations are not on
// any per-byte hot path, only per-registration and per-reactor-pass.
type recursiveMutex struct {
	mu    sync.Mutex
	owner int64
	depth int32
}

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

func (m *recursiveMutex) Lock() {
	id := goroutineID()
	if atomic.LoadInt64(&m.owner) == id && atomic.LoadInt32(&m.depth) > 0 {
		atomic.AddInt32(&m.depth, 1)
		return
	}

	m.mu.Lock()
	atomic.StoreInt64(&m.owner, id)
	atomic.AddInt32(&m.depth, 1)
}

func (m *recursiveMutex) Unlock() {
	if atomic.AddInt32(&m.depth, -1) == 0 {
		atomic.StoreInt64(&m.owner, -2)
		m.mu.Unlock()
	}
}
