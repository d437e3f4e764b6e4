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

// Package reactor implements the reactor (C4) and the event translator
// (C5): a background goroutine that snapshots the watch registry, drives
// poll(2), translates and synthesizes events, and dispatches them to user
// callbacks while the registry lock is held (spec.md §4.4-§4.6).
package reactor

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jacobsa/reqtrace"

	"github.com/aremmell/bal-go/internal/event"
	"github.com/aremmell/bal-go/internal/registry"
)

// Config bundles the reactor's tunables. The zero value is not valid; use
// DefaultConfig and override individual fields.
type Config struct {
	// PollTimeout bounds the single suspension point of the core
	// (spec.md §4.4 step 5). Default 500ms per spec.md.
	PollTimeout time.Duration

	// IdleSleep is how long the reactor sleeps between passes when the
	// registry is empty (spec.md §4.4 step 2). Default 100ms per spec.md.
	IdleSleep time.Duration

	// Logger receives notices about transient poll(2) errors. A nil Logger
	// discards them, mirroring the teacher's debug.go gating output behind
	// a flag. The dangling-entry lines of DanglingEntries are not logged
	// here; they are returned to the caller.
	Logger *log.Logger
}

// DefaultConfig returns the timeout/sleep values spec.md §4.4 specifies.
func DefaultConfig() Config {
	return Config{
		PollTimeout: 500 * time.Millisecond,
		IdleSleep:   100 * time.Millisecond,
	}
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(discardWriter{}, "", 0)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Reactor drives a registry with a single background goroutine, per
// spec.md §4.4. Create with New, run with Start, stop with Stop.
type Reactor struct {
	reg  *registry.Registry
	cfg  Config
	disp dispatcher

	wake     wakePipe
	done     chan struct{}
	stopped  chan struct{}
	started  bool
}

// New returns a reactor over reg. It does not start the background
// goroutine; call Start.
func New(reg *registry.Registry, cfg Config) (*Reactor, error) {
	wp, err := newWakePipe()
	if err != nil {
		return nil, err
	}

	return &Reactor{
		reg:     reg,
		cfg:     cfg,
		disp:    dispatcher{pc: hostPollConstants},
		wake:    wp,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Start launches the reactor's background goroutine. Must be called at
// most once.
func (r *Reactor) Start() {
	r.started = true
	go r.loop()
}

// Stop sets the termination flag, wakes a possibly-parked poll(2) call,
// and blocks until the goroutine has exited. Safe to call even if Start
// was never called. Idempotent.
func (r *Reactor) Stop() {
	if !r.started {
		r.wake.close()
		r.wake = wakePipe{r: -1, w: -1}
		return
	}

	select {
	case <-r.done:
		// Already stopping/stopped.
	default:
		close(r.done)
	}
	r.wake.signal()
	<-r.stopped
	r.wake.close()
	r.wake = wakePipe{r: -1, w: -1}
}

// WakeForRegistration nudges a possibly-parked reactor so that a socket
// just registered or deregistered is considered promptly instead of
// waiting out the remainder of the current poll timeout. See
// SPEC_FULL.md §4.6's self-pipe supplement.
func (r *Reactor) WakeForRegistration() {
	r.wake.signal()
}

func (r *Reactor) loop() {
	defer close(r.stopped)

	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.reg.Lock()
		n := r.reg.Count()
		if n == 0 {
			r.reg.Unlock()
			time.Sleep(r.cfg.IdleSleep)
			runtime.Gosched()
			continue
		}
		snapshot := r.reg.Snapshot()

		fds := make([]unix.PollFd, 0, len(snapshot)+1)
		fds = append(fds, unix.PollFd{Fd: int32(r.wake.r), Events: unix.POLLIN})
		for _, e := range snapshot {
			fds = append(fds, unix.PollFd{
				Fd:     int32(e.Handle.Descriptor()),
				Events: maskToPoll(e.Handle.StateMask(), hostPollConstants),
			})
		}
		r.reg.Unlock()

		_, err := unix.Poll(fds, int(r.cfg.PollTimeout/time.Millisecond))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			r.cfg.logger().Printf("reactor: poll: %v", err)
			continue
		}

		if fds[0].Revents != 0 {
			r.wake.drain()
		}

		r.reg.Lock()
		for _, pf := range fds[1:] {
			if pf.Revents == 0 {
				continue
			}

			h, ok := r.reg.Find(int(pf.Fd))
			if !ok {
				// Removed while the registry lock was released for
				// poll(2); spec.md §4.4 step 6 says this is not an error.
				continue
			}

			// A trace span per dispatched descriptor, gated behind
			// reqtrace.Enabled() the same way the teacher gates its own
			// per-request tracing: free when no trace sink is installed,
			// informative when one is.
			_, report := reqtrace.StartSpan(context.Background(), "bal.dispatch")

			raw := pollToEvents(pf.Revents, hostPollConstants)
			delivered := r.disp.process(h, raw)
			r.reg.Touch(int(pf.Fd))

			if delivered != 0 {
				h.Invoke(delivered)
			}
			report(nil)

			if delivered.Has(event.Close) || delivered.Has(event.Invalid) {
				r.reg.Remove(int(pf.Fd))
			}
		}
		r.reg.Unlock()

		runtime.Gosched()
	}
}

// DanglingEntries returns one diagnostic line per still-registered
// descriptor, for Cleanup to log before draining the registry (spec.md
// §4.6's cleanup rules, S6 in §8).
func DanglingEntries(reg *registry.Registry) []string {
	var out []string
	reg.IterateFunc(func(key int, h registry.Handle) bool {
		out = append(out, formatDanglingEntry(key, h))
		return true
	})
	return out
}

func formatDanglingEntry(fd int, h registry.Handle) string {
	return fmt.Sprintf("fd %d still registered at cleanup, mask=%#x", fd, uint32(h.StateMask()))
}
