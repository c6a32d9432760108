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
	"crypto/tls"
	"time"

	"github.com/go-errors/errors"
	"github.com/go-redis/redis"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
)

func init() {
	sink.RegisterSink(config.Redis, newRedisSink)
}

// redisSink appends every notification to the redis stream named
// after the topic.
type redisSink struct {
	client  *redis.Client
	encoder *encoding.JsonEncoder
}

func newRedisSink(
	c *config.Config,
) (sink.Sink, error) {

	return &redisSink{
		client:  redis.NewClient(clientOptions(c)),
		encoder: encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func clientOptions(
	c *config.Config,
) *redis.Options {

	options := &redis.Options{
		Network:  config.GetOrDefault(c, config.PropertyRedisNetwork, "tcp"),
		Addr:     config.GetOrDefault(c, config.PropertyRedisAddress, "localhost:6379"),
		Password: config.GetOrDefault(c, config.PropertyRedisPassword, ""),
		DB:       config.GetOrDefault(c, config.PropertyRedisDatabase, 0),
		PoolSize: config.GetOrDefault(c, config.PropertyRedisPoolsize, 0),

		MaxRetries: config.GetOrDefault(c, config.PropertyRedisRetriesMax, 0),
		MinRetryBackoff: config.GetOrDefault(
			c, config.PropertyRedisRetriesBackoffMin, time.Duration(8),
		) * time.Millisecond,
		MaxRetryBackoff: config.GetOrDefault(
			c, config.PropertyRedisRetriesBackoffMax, time.Duration(512),
		) * time.Millisecond,

		DialTimeout:  config.GetOrDefault(c, config.PropertyRedisTimeoutDial, time.Duration(5)) * time.Second,
		ReadTimeout:  config.GetOrDefault(c, config.PropertyRedisTimeoutRead, time.Duration(3)) * time.Second,
		WriteTimeout: config.GetOrDefault(c, config.PropertyRedisTimeoutWrite, time.Duration(3)) * time.Second,
		PoolTimeout:  config.GetOrDefault(c, config.PropertyRedisTimeoutPool, time.Duration(4)) * time.Second,
		IdleTimeout:  config.GetOrDefault(c, config.PropertyRedisTimeoutIdle, time.Duration(5)) * time.Minute,
	}

	if config.GetOrDefault(c, config.PropertyRedisTlsEnabled, false) {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: config.GetOrDefault(c, config.PropertyRedisTlsSkipVerify, false),
			ClientAuth:         config.GetOrDefault(c, config.PropertyRedisTlsClientAuth, tls.NoClientCert),
		}
	}
	return options
}

func (r *redisSink) Start() error {
	if err := r.client.Ping().Err(); err != nil {
		return errors.Errorf("failed to connect to redis sink: %s", err)
	}
	return nil
}

func (r *redisSink) Stop() error {
	return r.client.Close()
}

func (r *redisSink) Emit(
	_ time.Time, topicName string, key, envelope sink.Struct,
) error {

	keyData, err := r.encoder.Marshal(key)
	if err != nil {
		return err
	}
	envelopeData, err := r.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.client.XAdd(&redis.XAddArgs{
		Stream: topicName,
		Values: map[string]any{
			"key":      string(keyData),
			"envelope": string(envelopeData),
		},
	}).Err()
}
