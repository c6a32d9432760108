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

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/testsupport/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Redis_Sink_Options(t *testing.T) {
	options := clientOptions(&config.Config{
		Sink: config.SinkConfig{
			Redis: config.RedisConfig{
				Address:  "redis.example:6380",
				Database: 2,
				Retries:  config.RedisRetryConfig{MaxAttempts: 3},
				Timeouts: config.RedisTimeoutConfig{Dial: 10},
				TLS:      config.TLSConfig{Enabled: true},
			},
		},
	})

	assert.Equal(t, "redis.example:6380", options.Addr)
	assert.Equal(t, "tcp", options.Network)
	assert.Equal(t, 2, options.DB)
	assert.Equal(t, 3, options.MaxRetries)
	assert.Equal(t, 10*time.Second, options.DialTimeout)
	assert.Equal(t, 3*time.Second, options.ReadTimeout)
	assert.NotNil(t, options.TLSConfig)
}

func Test_Redis_Sink_Emit(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	container, address, err := containers.SetupRedisContainer()
	require.NoError(t, err)
	defer container.Terminate(context.Background())

	s, err := newRedisSink(&config.Config{
		Sink: config.SinkConfig{Redis: config.RedisConfig{Address: address}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	err = s.Emit(time.Now(), "replicator.shop.orders", sink.Struct{"_id": 7}, sink.Struct{"op": "insert"})
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: address})
	defer client.Close()
	messages, err := client.XRange("replicator.shop.orders", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, `{"_id":7}`, messages[0].Values["key"])
	assert.Equal(t, `{"op":"insert"}`, messages[0].Values["envelope"])
}
