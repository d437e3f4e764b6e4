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

import "github.com/aremmell/bal-go/internal/event"

// EventMask is a bitset of the semantic events a caller has registered
// interest in, or that a callback is being told occurred, per spec.md §6.
type EventMask = event.Mask

// Event mask constants, per spec.md §6.
const (
	EventRead     = event.Read
	EventWrite    = event.Write
	EventConnect  = event.Connect
	EventAccept   = event.Accept
	EventClose    = event.Close
	EventConnFail = event.ConnFail
	EventPriority = event.Priority
	EventError    = event.Error
	EventInvalid  = event.Invalid
	EventOOBRead  = event.OOBRead
	EventOOBWrite = event.OOBWrite

	// EventAll is every event bit.
	EventAll = event.All
	// EventNormal is everything a long-lived passive socket wants: every
	// event except write readiness, OOB-write readiness, and priority.
	EventNormal = event.Normal
)
