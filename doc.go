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

// Package bal is an asynchronous, callback-driven wrapper around Berkeley
// sockets. A background reactor goroutine polls every registered socket
// for readiness, translates what it learns from the OS into a small
// semantic event vocabulary (CONNECT, CONNFAIL, ACCEPT, CLOSE, READ,
// WRITE, and friends), and invokes the callback passed to Register.
//
// Typical use:
//
//	if err := bal.Init(bal.Config{}); err != nil {
//		log.Fatal(err)
//	}
//	defer bal.Cleanup()
//
//	l, err := bal.Listen("tcp", ":9000")
//	...
//	bal.Register(l, func(s *bal.Socket, ev bal.EventMask) {
//		conn, addr, err := s.Accept()
//		...
//	}, bal.EventRead|bal.EventAccept|bal.EventError)
//
// A listener must be registered with EventRead: the reactor delivers a
// pending connection as EventAccept in place of that read readiness.
//
// Every failing call, whether the failure came from the operating system
// or from caller misuse, also records its error where GetError returns it,
// mirroring the per-thread last-error channel of the library this package
// is modeled on; see package balerr for the taxonomy and balerr.Scope for
// how that per-goroutine state is kept.
package bal
