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

// Package addrlist is a small sequence-with-cursor over net.Addr, standing
// in for the original's address-list struct (SPEC_FULL.md §6). A DNS
// lookup or an interface enumeration can return more than one address for
// a name; List lets a caller walk them in order without re-deriving the
// count or hand-rolling a slice index each time, the same minimal-surface
// shape the teacher gives its own small helper packages.
package addrlist

import (
	"context"
	"net"
)

// List is a read-only, ordered sequence of addresses plus a cursor. The
// zero value is an empty list.
type List struct {
	addrs  []net.Addr
	cursor int
}

// New returns a List over addrs, copying the slice so later mutation of
// the caller's backing array can't change the list out from under
// concurrent readers.
func New(addrs []net.Addr) *List {
	cp := make([]net.Addr, len(addrs))
	copy(cp, addrs)
	return &List{addrs: cp}
}

// Len returns the number of addresses in the list.
func (l *List) Len() int { return len(l.addrs) }

// At returns the i'th address. It panics if i is out of range, matching
// slice-indexing semantics rather than returning an (addr, ok) pair.
func (l *List) At(i int) net.Addr { return l.addrs[i] }

// Reset rewinds Next to the beginning of the list.
func (l *List) Reset() { l.cursor = 0 }

// Next returns the next address in the list and advances the cursor. ok is
// false once the list is exhausted.
func (l *List) Next() (addr net.Addr, ok bool) {
	if l.cursor >= len(l.addrs) {
		return nil, false
	}
	addr = l.addrs[l.cursor]
	l.cursor++
	return addr, true
}

// All returns every address in order, for a caller that wants to range
// over them directly instead of driving Next.
func (l *List) All() []net.Addr {
	out := make([]net.Addr, len(l.addrs))
	copy(out, l.addrs)
	return out
}

// Resolve is a convenience constructor: it resolves host (a "host:port" or
// bare hostname) over network ("tcp", "tcp4", "tcp6") and returns every
// address net.DefaultResolver reports, in the order it reported them.
func Resolve(network, host string) (*List, error) {
	ips, err := net.DefaultResolver.LookupHost(context.Background(), hostOnly(host))
	if err != nil {
		return nil, err
	}

	_, port, _ := net.SplitHostPort(host)
	addrs := make([]net.Addr, 0, len(ips))
	for _, ip := range ips {
		a := net.JoinHostPort(ip, port)
		tcpAddr, err := net.ResolveTCPAddr(network, a)
		if err != nil {
			continue
		}
		addrs = append(addrs, tcpAddr)
	}
	return New(addrs), nil
}

func hostOnly(hostport string) string {
	h, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return h
}
