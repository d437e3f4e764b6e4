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

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/aremmell/bal-go/internal/event"
)

// dispatcher applies the lifecycle/state-machine rules of spec.md §4.6 on
// top of the pure translation done by translate.go: ACCEPT-over-READ for
// listening sockets, CONNECT/CONNFAIL synthesis (with one-shot WRITE
// clearing) for connecting sockets, and recv-peek CLOSE synthesis on
// platforms that don't report peer hangup directly.
type dispatcher struct {
	pc platformPoll
}

// errnoIndicatesDeadConnection lists the errors spec.md §4.6 calls out as
// "connection is dead" when observed from a 1-byte, non-blocking,
// peek-mode recv used to detect a hung-up peer.
func errnoIndicatesDeadConnection(err error) bool {
	switch err {
	case unix.ENETDOWN, unix.ENOTCONN, unix.ECONNREFUSED, unix.ESHUTDOWN,
		unix.ECONNABORTED, unix.ECONNRESET, unix.EHOSTDOWN, unix.EHOSTUNREACH:
		return true
	default:
		return false
	}
}

// peekIndicatesClosed performs the non-blocking, 1-byte MSG_PEEK recv
// spec.md §4.6 specifies for platforms without POLLRDHUP.
func peekIndicatesClosed(fd int) bool {
	var buf [1]byte
	n, _, err := unix.Recvfrom(fd, buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	if err != nil {
		return errnoIndicatesDeadConnection(err)
	}
	return n == 0
}

// process turns the raw translated events for one ready descriptor into
// the final event set to deliver, applying every rule in spec.md §4.6 in
// order, and mutating the handle's CONNECTING bit / registered mask as a
// side effect where the spec requires it. The registry lock is assumed
// held by the caller for the duration (spec.md §4.4 step 6).
func (d *dispatcher) process(h event.Handle, raw event.Mask) event.Mask {
	events := raw
	var synthesized event.Mask

	// ACCEPT-over-READ, CONNECT/CONNFAIL, and peek-based CLOSE are all
	// synthesized from a *source* readiness bit (READ or WRITE) the
	// caller asked to watch; the synthesized bit itself need not be in
	// the registered mask to be delivered (spec.md §4.6, mirroring
	// original_source/balinternal.c's bal_isbitset(val->mask, BAL_E_READ)
	// gate followed by an unconditional ACCEPT/CONNECT/CONNFAIL delivery).
	if raw.Has(event.Read) && h.StateBits().Has(event.Listening) && h.StateMask().Has(event.Read) {
		events = events &^ event.Read
		synthesized |= event.Accept
	}

	if (raw.Has(event.Read) || raw.Has(event.Write)) && h.StateBits().Has(event.Connecting) &&
		(h.StateMask().Has(event.Read) || h.StateMask().Has(event.Write)) {
		if raw.Has(event.Error) {
			synthesized |= event.ConnFail
		} else {
			synthesized |= event.Connect
		}
		events = events &^ (event.Read | event.Write)
		h.ClearStateBits(event.Connecting)
		h.SetStateMask(h.StateMask() &^ event.Write)
	}

	if !d.pc.rdhupSupported() && events.Has(event.Read) && h.StateMask().Has(event.Read) &&
		peekIndicatesClosed(h.Descriptor()) {
		events = events &^ event.Read
		synthesized |= event.Close
	}

	// Everything else delivered is still filtered against the registered
	// mask (spec.md §4.6's final bullet); the synthesized bits above are
	// delivered unconditionally, since they stand in for a source bit the
	// mask already cleared them of.
	return (events & h.StateMask()) | synthesized
}
