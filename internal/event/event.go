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

// Package event holds the semantic event vocabulary shared by the watch
// registry and the reactor, kept free of any dependency on the public
// socket type so that both can be imported without a cycle.
package event

// Mask is a bitset of semantic events a caller has registered interest in,
// or that the reactor is delivering to a callback.
type Mask uint32

const (
	Read Mask = 1 << iota
	Write
	Connect
	Accept
	Close
	ConnFail
	Priority
	Error
	Invalid
	OOBRead
	OOBWrite
)

// All is every event bit.
const All = Read | Write | Connect | Accept | Close | ConnFail | Priority | Error | Invalid | OOBRead | OOBWrite

// Normal is everything a long-lived passive socket wants: all events except
// write readiness, out-of-band write readiness, and priority data.
const Normal = All &^ (Write | OOBWrite | Priority)

// Has reports whether every bit in want is set in m.
func (m Mask) Has(want Mask) bool { return m&want == want }

// StateBits tracks the async lifecycle of a registered socket.
type StateBits uint32

const (
	// Connecting is set between issuing a non-blocking connect and the
	// first connect/connfail event.
	Connecting StateBits = 1 << iota
	// Listening is set between a successful listen call and shutdown/close.
	Listening
	// Closed is monotonic: once set it is never cleared.
	Closed
)

// Has reports whether every bit in want is set in b.
func (b StateBits) Has(want StateBits) bool { return b&want == want }

// Handle is the view of a registered socket that the registry and reactor
// need: enough to build a poll snapshot, translate and synthesize events,
// and invoke the user's callback. bal.Socket implements this.
type Handle interface {
	// Descriptor returns the underlying OS descriptor.
	Descriptor() int

	// StateMask returns the event mask the caller last registered.
	StateMask() Mask
	// SetStateMask updates it. Called by the reactor only to clear Write
	// after synthesizing a one-shot Connect (see dispatch rules).
	SetStateMask(Mask)

	// StateBits returns the CONNECTING/LISTENING/CLOSED bitset.
	StateBits() StateBits
	SetStateBits(StateBits)
	ClearStateBits(StateBits)

	// Invoke calls the user's callback, if any, with the delivered event
	// set. The registry mutex is held by the caller for the duration.
	Invoke(events Mask)
}
