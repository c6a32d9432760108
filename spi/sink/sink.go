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
	"time"

	"github.com/noctarius/mongo-sql-replicator/spi/config"
)

// Struct is a JSON serializable object, used for message keys and
// envelopes.
type Struct = map[string]any

type Provider = func(c *config.Config) (Sink, error)

// Sink publishes change notifications to an external system.
type Sink interface {
	Start() error
	Stop() error
	Emit(timestamp time.Time, topicName string, key, envelope Struct) error
}

type SinkFunc func(timestamp time.Time, topicName string, key, envelope Struct) error

func (sf SinkFunc) Start() error {
	return nil
}

func (sf SinkFunc) Stop() error {
	return nil
}

func (sf SinkFunc) Emit(
	timestamp time.Time, topicName string, key, envelope Struct,
) error {

	return sf(timestamp, topicName, key, envelope)
}
