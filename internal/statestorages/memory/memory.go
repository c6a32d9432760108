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

package memory

import (
	"sync"

	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
)

func init() {
	statestorage.RegisterStateStorage(config.NoneStorage, func(_ *config.Config) (statestorage.Storage, error) {
		return NewMemoryStateStorage(), nil
	})
}

// memoryStateStorage keeps checkpoints for the lifetime of the
// process only. Every restart syncs from the current stream position.
type memoryStateStorage struct {
	mutex       sync.Mutex
	checkpoints statestorage.Checkpoints
}

func NewMemoryStateStorage() statestorage.Storage {
	return &memoryStateStorage{
		checkpoints: make(statestorage.Checkpoints),
	}
}

func (m *memoryStateStorage) Start() error {
	return nil
}

func (m *memoryStateStorage) Stop() error {
	return nil
}

func (m *memoryStateStorage) Save() error {
	return nil
}

func (m *memoryStateStorage) Load() error {
	return nil
}

func (m *memoryStateStorage) Get() (map[string]changeevent.Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.checkpoints.Copy(), nil
}

func (m *memoryStateStorage) Set(
	collection string, token changeevent.Token,
) error {

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.checkpoints[collection] = token
	return nil
}
