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
	"testing"
	"time"

	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_None_Sink_Is_Default(t *testing.T) {
	s, err := NewSink(&config.Config{})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.NoError(t, s.Emit(time.Now(), "topic", Struct{}, Struct{}))
	require.NoError(t, s.Stop())
}

func Test_Register_Sink(t *testing.T) {
	emitted := make([]string, 0)
	name := config.SinkType("recording-test")
	provider := func(_ *config.Config) (Sink, error) {
		return SinkFunc(func(_ time.Time, topicName string, _, _ Struct) error {
			emitted = append(emitted, topicName)
			return nil
		}), nil
	}

	assert.True(t, RegisterSink(name, provider))
	assert.False(t, RegisterSink(name, provider))

	s, err := NewSink(&config.Config{Sink: config.SinkConfig{Type: name}})
	require.NoError(t, err)
	require.NoError(t, s.Emit(time.Now(), "shop.orders", nil, nil))
	assert.Equal(t, []string{"shop.orders"}, emitted)
}

func Test_Unknown_Sink(t *testing.T) {
	_, err := NewSink(&config.Config{Sink: config.SinkConfig{Type: "unknown"}})
	assert.ErrorContains(t, err, "doesn't exist")
}
