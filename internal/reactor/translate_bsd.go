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

//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package reactor

// BSD-family poll(2) has no POLLRDHUP equivalent; a closed peer is only
// detected by the recv-peek synthesis path in dispatch.go, matching the
// teacher's own flock_darwin.go / flock_linux.go per-OS split for
// platform-varying kernel behavior.
var hostPollConstants = platformPoll{rdhup: 0}
