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
	"testing"

	"golang.org/x/sys/unix"

	"github.com/aremmell/bal-go/internal/event"
)

type stubHandle struct {
	fd        int
	mask      event.Mask
	bits      event.StateBits
	delivered event.Mask
	invoked   int
}

func (h *stubHandle) Descriptor() int                     { return h.fd }
func (h *stubHandle) StateMask() event.Mask                { return h.mask }
func (h *stubHandle) SetStateMask(m event.Mask)             { h.mask = m }
func (h *stubHandle) StateBits() event.StateBits            { return h.bits }
func (h *stubHandle) SetStateBits(b event.StateBits)         { h.bits |= b }
func (h *stubHandle) ClearStateBits(b event.StateBits)       { h.bits &^= b }
func (h *stubHandle) Invoke(events event.Mask) {
	h.invoked++
	h.delivered = events
}

// rdhupCapable is a platformPoll that reports POLLRDHUP support, so
// dispatch tests that don't care about peek synthesis don't need a live
// socket.
var rdhupCapable = platformPoll{rdhup: 0x2000}

func TestDispatchAcceptOverridesReadForListeningSocket(t *testing.T) {
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{mask: event.Normal, bits: event.Listening}

	got := d.process(h, event.Read)
	if got != event.Accept {
		t.Fatalf("process() = %v, want ACCEPT only", got)
	}
}

func TestDispatchConnectSynthesisOnWritableNoError(t *testing.T) {
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{
		mask: event.Connect | event.Write | event.Close | event.Error,
		bits: event.Connecting,
	}

	got := d.process(h, event.Write)
	if got != event.Connect {
		t.Fatalf("process() = %v, want CONNECT only", got)
	}
	if h.bits.Has(event.Connecting) {
		t.Fatalf("CONNECTING bit still set after CONNECT synthesis")
	}
	if h.mask.Has(event.Write) {
		t.Fatalf("WRITE still present in mask after one-shot CONNECT synthesis")
	}
}

func TestDispatchConnFailSynthesisOnWritableWithError(t *testing.T) {
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{
		mask: event.Connect | event.ConnFail | event.Write | event.Error,
		bits: event.Connecting,
	}

	got := d.process(h, event.Write|event.Error)
	if got != (event.ConnFail | event.Error) {
		t.Fatalf("process() = %v, want CONNFAIL|ERROR", got)
	}
	if h.bits.Has(event.Connecting) {
		t.Fatalf("CONNECTING bit still set after CONNFAIL synthesis")
	}
}

// TestDispatchAcceptDeliveredEvenWhenNotInMask exercises spec.md §8
// scenario S3: a listener registered with mask {READ,ERROR,CLOSE} (no
// explicit ACCEPT bit) must still receive ACCEPT when a connection is
// pending, since ACCEPT is synthesized from READ and delivered
// unconditionally rather than re-filtered against the registered mask.
func TestDispatchAcceptDeliveredEvenWhenNotInMask(t *testing.T) {
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{
		mask: event.Read | event.Error | event.Close,
		bits: event.Listening,
	}

	got := d.process(h, event.Read)
	if got != event.Accept {
		t.Fatalf("process() = %v, want ACCEPT only", got)
	}
}

// TestDispatchConnFailDeliveredEvenWhenNotInMask exercises spec.md §8
// scenario S2: a connecting socket registered with mask
// {CONNECT,WRITE,CLOSE,ERROR} (no explicit CONNFAIL bit) must still
// receive CONNFAIL on a failed connect.
func TestDispatchConnFailDeliveredEvenWhenNotInMask(t *testing.T) {
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{
		mask: event.Connect | event.Write | event.Close | event.Error,
		bits: event.Connecting,
	}

	got := d.process(h, event.Write|event.Error)
	if got != (event.ConnFail | event.Error) {
		t.Fatalf("process() = %v, want CONNFAIL|ERROR", got)
	}
	if h.bits.Has(event.Connecting) {
		t.Fatalf("CONNECTING bit still set after CONNFAIL synthesis")
	}
}

func TestDispatchFiltersEventsNotInMask(t *testing.T) {
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{mask: event.Read} // did not request Priority

	got := d.process(h, event.Read|event.Priority)
	if got != event.Read {
		t.Fatalf("process() = %v, want READ only (PRIORITY not requested)", got)
	}
}

func TestDispatchPeekSynthesizesCloseWhenRDHUPUnsupported(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])

	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}

	// Close the peer so a peek recv on fds[0] observes EOF (n == 0).
	if err := unix.Close(fds[1]); err != nil {
		t.Fatalf("Close: %v", err)
	}

	d := dispatcher{pc: platformPoll{rdhup: 0}}
	h := &stubHandle{fd: fds[0], mask: event.Read | event.Close}

	got := d.process(h, event.Read)
	if got != event.Close {
		t.Fatalf("process() after peer close = %v, want CLOSE only", got)
	}
}

func TestDispatchNoPeekWhenRDHUPSupported(t *testing.T) {
	// With RDHUP support, a raw READ must pass through unchanged even for
	// an fd that isn't a real socket (no peek should be attempted).
	d := dispatcher{pc: rdhupCapable}
	h := &stubHandle{fd: -1, mask: event.Read}

	got := d.process(h, event.Read)
	if got != event.Read {
		t.Fatalf("process() = %v, want READ (peek must not run)", got)
	}
}
