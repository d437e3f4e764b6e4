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
	"log"
	"sync"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/aremmell/bal-go/internal/reactor"
	"github.com/aremmell/bal-go/internal/registry"
)

// lifecycle sentinel values. initMagic is stored (never anything else) the
// instant the library is considered up; it exists so a corrupted or
// zero-valued global state block is distinguishable from a properly
// torn-down one, the same role spec.md's original magic-number guard
// plays in front of every public entry point.
const (
	stateUninitialized uint32 = 0
	initMagic          uint32 = 0xBA1_10C5
)

// Config configures the reactor Init starts. The zero value is valid and
// uses spec.md §4.4's documented defaults.
type Config struct {
	// PollTimeout bounds how long each reactor pass blocks in poll(2).
	// Register, Deregister and Cleanup wake a blocked poll(2) early through
	// the reactor's wakeup descriptor. Zero uses the spec-mandated 500ms
	// default.
	PollTimeout time.Duration
	// IdleSleep is how long the reactor sleeps between passes while no
	// sockets are registered. Zero uses the spec-mandated 100ms default.
	IdleSleep time.Duration
	// Logger receives the reactor's transient poll(2) error notices. Nil
	// discards them. Dangling registrations at Cleanup are logged to the
	// standard library's default logger whatever this field holds.
	Logger *log.Logger
}

var (
	globalMu    sync.Mutex
	globalState uint32
	globalReg   *registry.Registry
	globalRx    *reactor.Reactor
)

// Init brings up the library's global state: the watch registry and its
// reactor goroutine (components C3/C4). Calling Init a second time without
// an intervening Cleanup fails with ErrDupeInit, per spec.md §4.6.
func Init(cfg Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalState == initMagic {
		setError(ErrDupeInit, "Init")
		return GetErrorOrTaxonomy(ErrDupeInit)
	}

	rc := reactor.DefaultConfig()
	if cfg.PollTimeout > 0 {
		rc.PollTimeout = cfg.PollTimeout
	}
	if cfg.IdleSleep > 0 {
		rc.IdleSleep = cfg.IdleSleep
	}
	rc.Logger = cfg.Logger

	reg := registry.New(timeutil.RealClock())
	rx, err := reactor.New(reg, rc)
	if err != nil {
		setOSError(err, "Init")
		return err
	}
	rx.Start()

	globalReg = reg
	globalRx = rx
	globalState = initMagic
	return nil
}

// Cleanup tears the library down: stops the reactor, logs any descriptors
// still registered (spec.md §8 scenario S6), and drops the registry.
// Calling Cleanup without a matching Init fails with ErrNotInit.
func Cleanup() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalState != initMagic {
		setError(ErrNotInit, "Cleanup")
		return GetErrorOrTaxonomy(ErrNotInit)
	}

	for _, line := range reactor.DanglingEntries(globalReg) {
		cleanupLogger().Printf("bal: cleanup: %s", line)
	}

	globalRx.Stop()
	globalReg.RemoveAll()

	globalReg = nil
	globalRx = nil
	globalState = stateUninitialized
	return nil
}

func cleanupLogger() *log.Logger {
	// Cleanup's diagnostics go through the standard logger; Init already
	// wired cfg.Logger into the reactor itself for its own poll(2)
	// diagnostics, but DanglingEntries is produced here, outside the
	// reactor, so it needs its own sink.
	return log.Default()
}

// requireInit returns ErrNotInit if the library hasn't been initialized.
func requireInit() error {
	if globalState != initMagic {
		setError(ErrNotInit, "requireInit")
		return GetErrorOrTaxonomy(ErrNotInit)
	}
	return nil
}

// GetErrorOrTaxonomy is a convenience used internally: it returns an error
// value whose message is the taxonomy code's string, for functions that
// both record a balerr.Scope entry and need a plain Go error return.
func GetErrorOrTaxonomy(code ErrorCode) error {
	return taxonomyError(code)
}

type taxonomyError ErrorCode

func (e taxonomyError) Error() string { return ErrorCode(e).String() }
