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

// platformPoll bundles the one platform-varying bit the translator (C5)
// needs: the POLLRDHUP-equivalent flag, or 0 on platforms that don't
// report peer hangup directly (spec.md §4.5, §9's "platform-varying
// readiness semantics" design note).
type platformPoll struct {
	rdhup int16
}

// rdhupSupported reports whether this platform's poll primitive reports
// peer hangup directly, per spec.md §4.6's synthesis rule.
func (p platformPoll) rdhupSupported() bool { return p.rdhup != 0 }

// maskToPoll is the mask -> poll-flags half of the event translator
// (spec.md §4.5). Error and invalid flags are not requestable; poll(2)
// reports them unconditionally regardless of the requested Events field.
func maskToPoll(m event.Mask, p platformPoll) int16 {
	var f int16
	if m.Has(event.Read) {
		f |= unix.POLLIN
	}
	if m.Has(event.Write) {
		f |= unix.POLLOUT
	}
	if m.Has(event.Priority) {
		f |= unix.POLLPRI
	}
	if m.Has(event.OOBRead) {
		f |= unix.POLLRDBAND
	}
	if m.Has(event.OOBWrite) {
		f |= unix.POLLWRBAND
	}
	if m.Has(event.Close) && p.rdhupSupported() {
		f |= p.rdhup
	}
	return f
}

// pollToEvents is the poll-flags -> mask half of the event translator. The
// hangup, invalid-fd, and error flags always contribute their semantic
// event regardless of what was requested; spec.md §6's dispatch layer is
// responsible for filtering against the caller's mask before delivery.
func pollToEvents(revents int16, p platformPoll) event.Mask {
	var m event.Mask
	if revents&unix.POLLIN != 0 {
		m |= event.Read
	}
	if revents&unix.POLLOUT != 0 {
		m |= event.Write
	}
	if revents&unix.POLLPRI != 0 {
		m |= event.Priority
	}
	if revents&unix.POLLRDBAND != 0 {
		m |= event.OOBRead
	}
	if revents&unix.POLLWRBAND != 0 {
		m |= event.OOBWrite
	}
	if p.rdhupSupported() && revents&p.rdhup != 0 {
		m |= event.Close
	}
	if revents&unix.POLLHUP != 0 {
		m |= event.Close
	}
	if revents&unix.POLLNVAL != 0 {
		m |= event.Invalid
	}
	if revents&unix.POLLERR != 0 {
		m |= event.Error
	}
	return m
}
