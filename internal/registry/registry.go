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

// Package registry implements the watch registry (component C3): an
// ordered, mutex-guarded association from descriptor to socket handle.
package registry

import (
	"github.com/aremmell/bal-go/internal/event"
	"github.com/jacobsa/timeutil"
)

// Entry is a single (descriptor, handle) pair as seen by a snapshot or an
// iteration step.
type Entry struct {
	Key    int
	Handle event.Handle
}

// Handle is the value type stored per entry.
type Handle = event.Handle

type node struct {
	key          int
	val          Handle
	lastActivity int64 // UnixNano, per clock
	prev, next   *node
}

// Registry is a doubly linked list of (descriptor, handle) nodes guarded by
// a single recursive mutex, per spec.md §4.3. At most one entry exists per
// descriptor.
type Registry struct {
	mu recursiveMutex

	head, tail *node
	index      map[int]*node
	cursor     *node

	clock timeutil.Clock
}

// New returns an empty registry. clock is used only to stamp entries for
// the diagnostic last-activity reporting surfaced by Stats; pass
// timeutil.RealClock() in production and a fake in tests.
func New(clock timeutil.Clock) *Registry {
	return &Registry{
		index: make(map[int]*node),
		clock: clock,
	}
}

// Lock acquires the registry's recursive mutex. Exported so the reactor can
// hold it across a translate-and-dispatch pass, per spec.md §4.4/§4.6.
func (r *Registry) Lock() { r.mu.Lock() }

// Unlock releases the lock acquired by Lock.
func (r *Registry) Unlock() { r.mu.Unlock() }

// Add inserts a new tail entry for key, or updates the handle reference for
// an existing one. Returns true if a new entry was created.
func (r *Registry) Add(key int, v Handle) (created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.index[key]; ok {
		n.val = v
		n.lastActivity = r.clock.Now().UnixNano()
		return false
	}

	n := &node{key: key, val: v, lastActivity: r.clock.Now().UnixNano()}
	if r.tail == nil {
		r.head, r.tail = n, n
	} else {
		n.prev = r.tail
		r.tail.next = n
		r.tail = n
	}
	r.index[key] = n
	return true
}

// Find returns the handle registered for key, if any.
func (r *Registry) Find(key int) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return n.val, true
}

// Touch updates the last-activity timestamp for key without altering its
// handle. It is a no-op if key is not present.
func (r *Registry) Touch(key int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.index[key]; ok {
		n.lastActivity = r.clock.Now().UnixNano()
	}
}

// Remove unlinks and frees the node for key, if present. It does not touch
// the handle itself (the socket is owned by the user; see spec.md §4.3).
// If the removed node is the current iteration cursor, the cursor rewinds
// to the preceding node so that a subsequent Iterate call continues
// correctly.
func (r *Registry) Remove(key int) (removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.index[key]
	if !ok {
		return false
	}

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		r.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		r.tail = n.prev
	}

	if r.cursor == n {
		r.cursor = n.prev
	}

	delete(r.index, key)
	return true
}

// RemoveAll drops every entry without touching any handle.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.head, r.tail, r.cursor = nil, nil, nil
	r.index = make(map[int]*node)
}

// Count returns the number of registered entries.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.index)
}

// ResetIterator rewinds the advance-style iterator to just before the head.
func (r *Registry) ResetIterator() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = nil
}

// Iterate advances the cursor and returns the next (key, handle) pair in
// insertion order. ok is false once the list is exhausted.
func (r *Registry) Iterate() (key int, v Handle, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor == nil {
		r.cursor = r.head
	} else {
		r.cursor = r.cursor.next
	}

	if r.cursor == nil {
		return 0, nil, false
	}
	return r.cursor.key, r.cursor.val, true
}

// IterateFunc walks every entry in insertion order, calling f for each. It
// stops early if f returns false. Unlike Iterate it does not disturb the
// advance-style cursor.
func (r *Registry) IterateFunc(f func(key int, v Handle) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for n := r.head; n != nil; n = n.next {
		if !f(n.key, n.val) {
			return
		}
	}
}

// Snapshot copies out every (key, handle) pair in insertion order. Callers
// typically do this while holding the lock, then release it before
// blocking in the readiness primitive (spec.md §4.4 step 3-4).
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.index))
	for n := r.head; n != nil; n = n.next {
		out = append(out, Entry{Key: n.key, Handle: n.val})
	}
	return out
}

// LastActivityNanos returns the UnixNano timestamp of the last Add/Touch
// for key, or 0 if key is not present.
func (r *Registry) LastActivityNanos(key int) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.index[key]; ok {
		return n.lastActivity
	}
	return 0
}
