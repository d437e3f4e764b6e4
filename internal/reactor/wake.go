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

import "golang.org/x/sys/unix"

// wakePipe is the self-pipe supplement described in SPEC_FULL.md §4.6,
// grounded on original_source/balinternal.c: without it, a socket
// registered (or deregistered) while the reactor is parked in poll(2)
// would wait out the rest of the current timeout before being considered.
// Its read end is always entry zero of the poll snapshot; bytes written to
// it are never delivered to a user callback.
type wakePipe struct {
	r, w int
}

func newWakePipe() (wakePipe, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return wakePipe{}, err
	}
	return wakePipe{r: fds[0], w: fds[1]}, nil
}

// signal wakes a reactor blocked in poll(2). Safe to call from any
// goroutine; a full buffer (the reactor hasn't drained a previous signal
// yet) is not an error, since one pending byte is all poll(2) needs to see
// to return early.
func (p wakePipe) signal() {
	var b [1]byte
	_, _ = unix.Write(p.w, b[:])
}

// drain empties the pipe after poll(2) reports it readable.
func (p wakePipe) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p wakePipe) close() {
	_ = unix.Close(p.r)
	_ = unix.Close(p.w)
}
