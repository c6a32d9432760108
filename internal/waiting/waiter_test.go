/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package waiting

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Waiter_Signal(t *testing.T) {
	waiter := NewWaiter()
	go waiter.Signal()
	assert.NoError(t, waiter.Await())
}

func Test_Waiter_Signal_Twice(t *testing.T) {
	waiter := NewWaiterWithTimeout(time.Second)
	waiter.Signal()
	waiter.Signal()
	assert.NoError(t, waiter.Await())
}

func Test_Waiter_Timeout(t *testing.T) {
	waiter := NewWaiterWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, waiter.Await(), ErrWaiterTimeout)
}

func Test_Await_Group(t *testing.T) {
	group := &sync.WaitGroup{}
	group.Add(1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		group.Done()
	}()
	assert.NoError(t, AwaitGroup(group, time.Second))

	blocked := &sync.WaitGroup{}
	blocked.Add(1)
	assert.ErrorIs(t, AwaitGroup(blocked, 10*time.Millisecond), ErrWaiterTimeout)
	blocked.Done()
}
