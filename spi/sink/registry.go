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

package sink

import (
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
)

var sinkRegistry = &registry{
	providers: make(map[config.SinkType]Provider),
}

func init() {
	RegisterSink(config.NoneSink, func(_ *config.Config) (Sink, error) {
		return SinkFunc(func(time.Time, string, Struct, Struct) error {
			return nil
		}), nil
	})
}

type registry struct {
	mutex     sync.Mutex
	providers map[config.SinkType]Provider
}

// RegisterSink registers a provider for the sink type. The first
// registration of a type wins.
func RegisterSink(
	name config.SinkType, provider Provider,
) bool {

	sinkRegistry.mutex.Lock()
	defer sinkRegistry.mutex.Unlock()
	if _, present := sinkRegistry.providers[name]; !present {
		sinkRegistry.providers[name] = provider
		return true
	}
	return false
}

// NewSink creates the sink configured under sink.type. Without a
// configured type change notifications are dropped.
func NewSink(
	c *config.Config,
) (Sink, error) {

	name := config.GetOrDefault(c, config.PropertySink, config.NoneSink)

	sinkRegistry.mutex.Lock()
	defer sinkRegistry.mutex.Unlock()
	if provider, present := sinkRegistry.providers[name]; present {
		return provider(c)
	}
	return nil, errors.Errorf("sink type '%s' doesn't exist", name)
}
