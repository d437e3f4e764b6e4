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

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/aremmell/bal-go/internal/event"
)

// Callback receives events as they're dispatched for s. It runs on the
// reactor's goroutine with the registry lock held, per spec.md §4.6: it may
// call Register, Deregister, or Close on any socket (including s itself)
// but must not block.
type Callback func(s *Socket, events EventMask)

// Socket is a handle (component C2) wrapping one Berkeley socket
// descriptor. The zero value is not usable; obtain one via NewSocket,
// DialTCP, Listen, or Accept.
//
// A Socket's mask/bits/callback fields are read and written by the reactor
// goroutine during dispatch and by the caller during Register/Deregister.
// Both sides always hold the watch registry's lock while touching them
// (the registry's recursive mutex, per spec.md §5), so Socket itself carries
// no mutex of its own — adding one would just be a second, redundant lock
// around the same data.
type Socket struct {
	fd     int
	family int
	sotype int
	proto  int

	mask event.Mask
	bits event.StateBits
	cb   Callback
}

// newSocket wraps an already-created, already-configured fd.
func newSocket(fd, family, sotype, proto int) *Socket {
	return &Socket{fd: fd, family: family, sotype: sotype, proto: proto}
}

// NewSocket creates a new socket descriptor via the underlying socket(2)
// call and wraps it, per spec.md §6's synchronous collaborator surface.
// The socket starts in blocking mode; registering it forces non-blocking
// mode, per spec.md §4.6.
func NewSocket(family, sotype, proto int) (*Socket, error) {
	fd, err := unix.Socket(family, sotype, proto)
	if err != nil {
		setOSError(err, "NewSocket")
		return nil, err
	}
	return newSocket(fd, family, sotype, proto), nil
}

// Descriptor returns the raw file descriptor. Exposed for callers that need
// to interoperate with other raw-socket code; bal itself never needs it
// outside this package once a Socket exists.
func (s *Socket) Descriptor() int { return s.fd }

// StateMask implements event.Handle.
func (s *Socket) StateMask() event.Mask { return s.mask }

// SetStateMask implements event.Handle.
func (s *Socket) SetStateMask(m event.Mask) { s.mask = m }

// StateBits implements event.Handle.
func (s *Socket) StateBits() event.StateBits { return s.bits }

// SetStateBits implements event.Handle.
func (s *Socket) SetStateBits(b event.StateBits) { s.bits |= b }

// ClearStateBits implements event.Handle.
func (s *Socket) ClearStateBits(b event.StateBits) { s.bits &^= b }

// Invoke implements event.Handle by running the user callback, if one has
// been registered. A Socket with no callback (never registered, or already
// deregistered) silently drops the event.
func (s *Socket) Invoke(events event.Mask) {
	if s.cb != nil {
		s.cb(s, events)
	}
}

// Close releases the descriptor. When destroy is true and the library has
// been initialized, s is deregistered first so the reactor never dispatches
// against a closed fd; pass false when the caller already knows s was never
// registered (spec.md §4.6).
func (s *Socket) Close(destroy bool) error {
	if s.fd < 0 {
		return nil
	}

	if destroy {
		_ = Deregister(s)
	}

	err := unix.Close(s.fd)
	s.fd = -1
	if err != nil {
		setOSError(err, "Close")
	}
	return err
}

// LocalAddr returns the address a bound or connected socket is using.
// Mirrors net.Listener/net.Conn's LocalAddr for interoperability with code
// that already speaks net.Addr.
func (s *Socket) LocalAddr() (net.Addr, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		setOSError(err, "LocalAddr")
		return nil, err
	}
	return sockaddrToNetAddr(sa), nil
}

func setOSError(err error, funcName string) {
	errno, _ := err.(unix.Errno)
	balerrCurrentSetOS(int(errno), err.Error(), funcName)
}
