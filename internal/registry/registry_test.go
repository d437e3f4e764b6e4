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
	"sync"
	"testing"

	"github.com/aremmell/bal-go/internal/event"
	"github.com/jacobsa/timeutil"
)

type fakeHandle struct{ fd int }

func (h *fakeHandle) Descriptor() int             { return h.fd }
func (h *fakeHandle) StateMask() event.Mask       { return 0 }
func (h *fakeHandle) SetStateMask(event.Mask)     {}
func (h *fakeHandle) StateBits() event.StateBits  { return 0 }
func (h *fakeHandle) SetStateBits(event.StateBits) {}
func (h *fakeHandle) ClearStateBits(event.StateBits) {}
func (h *fakeHandle) Invoke(event.Mask)           {}

func newTestRegistry() *Registry {
	return New(timeutil.RealClock())
}

func TestAddFindRemove(t *testing.T) {
	r := newTestRegistry()
	h := &fakeHandle{fd: 7}

	if created := r.Add(7, h); !created {
		t.Fatalf("Add of new key reported created=false")
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}

	got, ok := r.Find(7)
	if !ok || got != Handle(h) {
		t.Fatalf("Find(7) = %v, %v; want %v, true", got, ok, h)
	}

	if !r.Remove(7) {
		t.Fatalf("Remove(7) = false, want true")
	}
	if _, ok := r.Find(7); ok {
		t.Fatalf("Find(7) after Remove reported ok=true")
	}
	if r.Count() != 0 {
		t.Fatalf("Count after Remove = %d, want 0", r.Count())
	}
}

func TestAddExistingKeyUpdatesHandleInPlace(t *testing.T) {
	r := newTestRegistry()
	h1 := &fakeHandle{fd: 1}
	h2 := &fakeHandle{fd: 1}

	if created := r.Add(1, h1); !created {
		t.Fatalf("first Add reported created=false")
	}
	if created := r.Add(1, h2); created {
		t.Fatalf("second Add for same key reported created=true")
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}

	got, _ := r.Find(1)
	if got != Handle(h2) {
		t.Fatalf("Find(1) = %v, want the updated handle %v", got, h2)
	}
}

func TestRemoveUnknownKeyIsNoop(t *testing.T) {
	r := newTestRegistry()
	if r.Remove(99) {
		t.Fatalf("Remove of absent key reported true")
	}
}

func TestIterationOrderIsInsertionOrder(t *testing.T) {
	r := newTestRegistry()
	for _, fd := range []int{3, 1, 4, 1, 5} {
		if fd == 1 {
			continue // avoid a duplicate key in this fixture
		}
		r.Add(fd, &fakeHandle{fd: fd})
	}
	r.Add(1, &fakeHandle{fd: 1})

	var got []int
	r.IterateFunc(func(key int, _ Handle) bool {
		got = append(got, key)
		return true
	})

	want := []int{3, 4, 5, 1}
	if len(got) != len(want) {
		t.Fatalf("IterateFunc order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IterateFunc order = %v, want %v", got, want)
		}
	}
}

func TestIterateFuncEarlyExit(t *testing.T) {
	r := newTestRegistry()
	for _, fd := range []int{1, 2, 3} {
		r.Add(fd, &fakeHandle{fd: fd})
	}

	var seen []int
	r.IterateFunc(func(key int, _ Handle) bool {
		seen = append(seen, key)
		return key != 2
	})

	if len(seen) != 2 {
		t.Fatalf("early exit saw %v, want 2 entries", seen)
	}
}

// TestAdvanceIteratorSurvivesRemovalOfCurrentNode exercises the cursor
// rewind rule from spec.md §4.3: removing the node the advance-style
// iterator currently sits on must not skip or repeat entries afterward.
func TestAdvanceIteratorSurvivesRemovalOfCurrentNode(t *testing.T) {
	r := newTestRegistry()
	for _, fd := range []int{1, 2, 3} {
		r.Add(fd, &fakeHandle{fd: fd})
	}

	k, _, ok := r.Iterate()
	if !ok || k != 1 {
		t.Fatalf("first Iterate = %d, %v; want 1, true", k, ok)
	}

	k, _, ok = r.Iterate()
	if !ok || k != 2 {
		t.Fatalf("second Iterate = %d, %v; want 2, true", k, ok)
	}

	// Remove the node the cursor is currently on.
	r.Remove(2)

	k, _, ok = r.Iterate()
	if !ok || k != 3 {
		t.Fatalf("Iterate after removing current node = %d, %v; want 3, true", k, ok)
	}

	_, _, ok = r.Iterate()
	if ok {
		t.Fatalf("Iterate past the end reported ok=true")
	}
}

func TestRemoveAll(t *testing.T) {
	r := newTestRegistry()
	for _, fd := range []int{1, 2, 3} {
		r.Add(fd, &fakeHandle{fd: fd})
	}
	r.RemoveAll()
	if r.Count() != 0 {
		t.Fatalf("Count after RemoveAll = %d, want 0", r.Count())
	}
	if _, ok := r.Find(1); ok {
		t.Fatalf("Find after RemoveAll reported ok=true")
	}
}

// TestRecursiveLockFromSameGoroutine exercises the reason the registry
// needs a recursive mutex: dispatch may call back into the registry while
// the goroutine already holds the lock (see internal/reactor).
func TestRecursiveLockFromSameGoroutine(t *testing.T) {
	r := newTestRegistry()

	r.Lock()
	defer r.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// A second goroutine must still block until the outer Unlock.
		r.mu.Lock()
		r.mu.Unlock()
	}()

	// Re-entrant lock/unlock from the owning goroutine must not deadlock.
	r.Lock()
	r.Add(42, &fakeHandle{fd: 42})
	r.Unlock()

	select {
	case <-done:
		t.Fatalf("second goroutine acquired the lock while the owner still held it")
	default:
	}
}

func TestConcurrentAddFindRemove(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(fd int) {
			defer wg.Done()
			r.Add(fd, &fakeHandle{fd: fd})
			r.Find(fd)
			r.Remove(fd)
		}(i)
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Fatalf("Count after concurrent add/remove = %d, want 0", r.Count())
	}
}
