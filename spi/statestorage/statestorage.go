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

package statestorage

import (
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
)

// Storage persists the resume checkpoint of every watched collection.
type Storage interface {
	Start() error
	Stop() error
	// Save writes the current checkpoints wholesale.
	Save() error
	// Load replaces the in-memory checkpoints with the persisted ones.
	Load() error
	// Get returns a copy of all known checkpoints, keyed by collection.
	Get() (map[string]changeevent.Token, error)
	// Set records the checkpoint of a collection and persists it.
	Set(collection string, token changeevent.Token) error
}

// Checkpoints is a mutex-free helper for storages keeping their state
// in memory. Callers synchronize access.
type Checkpoints map[string]changeevent.Token

// Copy returns a snapshot, safe to hand out to other goroutines.
func (c Checkpoints) Copy() map[string]changeevent.Token {
	snapshot := make(map[string]changeevent.Token, len(c))
	for collection, token := range c {
		snapshot[collection] = token
	}
	return snapshot
}
