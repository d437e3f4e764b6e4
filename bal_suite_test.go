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

package bal_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"

	"github.com/aremmell/bal-go"
)

func TestOgletestSuite(t *testing.T) { RunTests(t) }

// eventMaskHas matches a bal.EventMask that contains every bit in want.
func eventMaskHas(want bal.EventMask) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error { return eventMaskHasImpl(c, want) },
		fmt.Sprintf("has event bits %#x", uint32(want)),
	)
}

func eventMaskHasImpl(c interface{}, want bal.EventMask) error {
	got, ok := c.(bal.EventMask)
	if !ok {
		return fmt.Errorf("which is not a bal.EventMask")
	}
	if got&want != want {
		return fmt.Errorf("which is %#x, missing %#x", uint32(got), uint32(want))
	}
	return nil
}

// LifecycleTest exercises Init/Listen/DialTCP/Register/Cleanup end to end,
// in the teacher's own suite style (one fixture struct, SetUp/TearDown
// bracketing each TestXxx method).
type LifecycleTest struct {
	listener *bal.Socket
	accepted chan bal.EventMask
}

func init() { RegisterTestSuite(&LifecycleTest{}) }

func (t *LifecycleTest) SetUp(ti *TestInfo) {
	AssertEq(nil, bal.Init(bal.Config{
		PollTimeout: 100 * time.Millisecond,
		IdleSleep:   10 * time.Millisecond,
	}))

	l, err := bal.Listen("tcp", "127.0.0.1:0")
	AssertEq(nil, err)
	t.listener = l

	t.accepted = make(chan bal.EventMask, 1)
	AssertEq(nil, bal.Register(t.listener, func(s *bal.Socket, ev bal.EventMask) {
		select {
		case t.accepted <- ev:
		default:
		}
	}, bal.EventRead|bal.EventAccept|bal.EventError))
}

func (t *LifecycleTest) TearDown() {
	t.listener.Close(true)
	AssertEq(nil, bal.Cleanup())
}

func (t *LifecycleTest) AcceptDeliversAcceptEvent() {
	addr, err := t.listener.LocalAddr()
	AssertEq(nil, err)

	client, err := bal.DialTCP(context.Background(), "tcp", addr.String())
	AssertEq(nil, err)
	defer client.Close(true)

	select {
	case ev := <-t.accepted:
		ExpectThat(ev, eventMaskHas(bal.EventAccept))
	case <-time.After(2 * time.Second):
		AssertTrue(false, "timed out waiting for ACCEPT")
	}
}

func (t *LifecycleTest) StatsReflectOneRegisteredSocket() {
	ExpectEq(1, bal.GetStats().RegisteredCount)
}
