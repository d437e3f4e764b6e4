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

import "golang.org/x/sys/unix"

// Register tells the reactor to watch s for the events in mask, invoking cb
// as they occur (spec.md §4.6). Passing mask == 0 deregisters s instead,
// and cb is ignored in that case — use Deregister for clarity.
//
// The first successful Register for a given descriptor forces it into
// non-blocking mode; subsequent calls only update the mask and callback.
//
// cb runs on the reactor's own goroutine with the registry lock held. A
// panic escaping cb is not recovered: it propagates and crashes the
// reactor goroutine like any other unrecovered panic, per spec.md §7 ("a
// callback that panics is undefined behavior"). Recovering it silently
// would hide a caller bug behind a reactor that quietly stops delivering
// events to everyone else.
func Register(s *Socket, cb Callback, mask EventMask) error {
	if err := requireInit(); err != nil {
		return err
	}
	if s == nil {
		setError(ErrNullPtr, "Register")
		return GetErrorOrTaxonomy(ErrNullPtr)
	}
	if mask == 0 {
		return Deregister(s)
	}
	if cb == nil {
		setError(ErrInvalidArg, "Register")
		return GetErrorOrTaxonomy(ErrInvalidArg)
	}

	globalReg.Lock()
	created := globalReg.Add(s.fd, s)
	s.mask = mask
	s.cb = cb
	globalReg.Unlock()

	if created {
		if err := unix.SetNonblock(s.fd, true); err != nil {
			setOSError(err, "Register")
			return err
		}
	}

	globalRx.WakeForRegistration()
	return nil
}

// Deregister stops watching s. It fails with ErrAsNoSocket if s was never
// registered or was already deregistered, per spec.md §4.6/§7/§8.
func Deregister(s *Socket) error {
	if err := requireInit(); err != nil {
		return err
	}
	if s == nil {
		setError(ErrNullPtr, "Deregister")
		return GetErrorOrTaxonomy(ErrNullPtr)
	}

	globalReg.Lock()
	removed := globalReg.Remove(s.fd)
	s.mask = 0
	s.cb = nil
	globalReg.Unlock()

	if !removed {
		setError(ErrAsNoSocket, "Deregister")
		return GetErrorOrTaxonomy(ErrAsNoSocket)
	}

	globalRx.WakeForRegistration()
	return nil
}
