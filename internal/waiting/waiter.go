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
	"time"

	"github.com/go-errors/errors"
)

var ErrWaiterTimeout = errors.Errorf("waiter timed out")

// Waiter is a one-shot signal, optionally bounded by a timeout.
type Waiter struct {
	done    chan bool
	once    sync.Once
	timeout time.Duration
}

func NewWaiter() *Waiter {
	return &Waiter{
		done: make(chan bool, 1),
	}
}

func NewWaiterWithTimeout(
	timeout time.Duration,
) *Waiter {

	return &Waiter{
		done:    make(chan bool, 1),
		timeout: timeout,
	}
}

// Signal releases the waiter. Calling it more than once is a no-op.
func (w *Waiter) Signal() {
	w.once.Do(func() {
		w.done <- true
	})
}

func (w *Waiter) Await() error {
	if w.timeout == 0 {
		<-w.done
		return nil
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return nil
	case <-timer.C:
		return ErrWaiterTimeout
	}
}

// AwaitGroup waits for the wait group to finish within timeout.
func AwaitGroup(
	group *sync.WaitGroup, timeout time.Duration,
) error {

	waiter := NewWaiterWithTimeout(timeout)
	go func() {
		group.Wait()
		waiter.Signal()
	}()
	return waiter.Await()
}
