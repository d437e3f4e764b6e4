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
	"runtime"

	"github.com/aremmell/bal-go/balerr"
)

// Error is the value GetError returns: spec.md §7's fixed taxonomy plus,
// for Code == ErrPlatform, the raw OS error code.
type Error = balerr.Error

// ErrorCode re-exports balerr's taxonomy under the names spec.md §7 uses.
type ErrorCode = balerr.Code

const (
	ErrNullPtr    = balerr.NullPtr
	ErrBadString  = balerr.BadString
	ErrBadSocket  = balerr.BadSocket
	ErrBadBufLen  = balerr.BadBufLen
	ErrInvalidArg = balerr.InvalidArg
	ErrNotInit    = balerr.NotInit
	ErrDupeInit   = balerr.DupeInit
	ErrAsNotInit  = balerr.AsNotInit
	ErrAsNoSocket = balerr.AsNoSocket
	ErrBadEvtMask = balerr.BadEvtMask
	ErrInternal   = balerr.Internal
	ErrUnavail    = balerr.Unavail
	ErrPlatform   = balerr.Platform
)

// GetError returns the calling goroutine's most recently recorded error.
// The bool is false if nothing has been recorded since the last Clear (or
// ever). When extended is true the message is rendered with its recording
// site prepended, per spec.md §4.1.
func GetError(extended bool) (Error, bool) {
	return balerr.Current().Get(extended)
}

// callerLocation walks back skip frames (1 = the function calling
// callerLocation's caller) to get the function/file/line to attribute a
// recorded error to.
func callerLocation(skip int) (funcName, file string, line int) {
	pc, f, l, ok := runtime.Caller(skip + 1)
	if !ok {
		return "?", "?", 0
	}
	fn := runtime.FuncForPC(pc)
	name := "?"
	if fn != nil {
		name = fn.Name()
	}
	return name, f, l
}

func setError(code ErrorCode, funcName string) {
	_, file, line := callerLocation(1)
	balerr.Current().Set(code, funcName, file, line)
}

// balerrCurrentSetOS is a small indirection so socket.go (and dial.go) can
// record a platform error without each call site re-deriving its own
// caller location by hand.
func balerrCurrentSetOS(platformCode int, message, funcName string) {
	_, file, line := callerLocation(2)
	balerr.Current().SetOS(platformCode, message, funcName, file, line)
}
