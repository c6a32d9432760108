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
	"sync"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
)

// Provider creates a Storage from the configuration.
type Provider = func(c *config.Config) (Storage, error)

var stateStorageRegistry = &registry{
	providers: make(map[config.StateStorageType]Provider),
}

type registry struct {
	mutex     sync.Mutex
	providers map[config.StateStorageType]Provider
}

// RegisterStateStorage registers a provider for the storage type. The
// first registration of a type wins.
func RegisterStateStorage(
	name config.StateStorageType, provider Provider,
) bool {

	stateStorageRegistry.mutex.Lock()
	defer stateStorageRegistry.mutex.Unlock()
	if _, present := stateStorageRegistry.providers[name]; !present {
		stateStorageRegistry.providers[name] = provider
		return true
	}
	return false
}

// NewStateStorage creates the storage configured under
// statestorage.type, defaulting to none.
func NewStateStorage(
	c *config.Config,
) (Storage, error) {

	name := config.GetOrDefault(c, config.PropertyStateStorageType, config.NoneStorage)

	stateStorageRegistry.mutex.Lock()
	defer stateStorageRegistry.mutex.Unlock()
	if provider, present := stateStorageRegistry.providers[name]; present {
		return provider(c)
	}
	return nil, errors.Errorf("state storage type '%s' doesn't exist", name)
}
