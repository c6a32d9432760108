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
	"sync"

	"github.com/go-errors/errors"
	"github.com/go-redis/redis"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
)

func init() {
	statestorage.RegisterStateStorage(config.RedisStorage, newRedisStateStorage)
}

// redisStateStorage keeps the checkpoints in a single hash, one field
// per collection.
type redisStateStorage struct {
	mutex       sync.Mutex
	logger      *logging.Logger
	client      *redis.Client
	key         string
	checkpoints statestorage.Checkpoints
}

func newRedisStateStorage(
	c *config.Config,
) (statestorage.Storage, error) {

	address := config.GetOrDefault(c, config.PropertyRedisStateStorageAddress, "localhost:6379")
	password := config.GetOrDefault(c, config.PropertyRedisStateStoragePassword, "")
	database := config.GetOrDefault(c, config.PropertyRedisStateStorageDatabase, 0)
	prefix := config.GetOrDefault(c, config.PropertyRedisStateStoragePrefix, version.BinName)

	return NewRedisStateStorage(redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	}), prefix)
}

func NewRedisStateStorage(
	client *redis.Client, prefix string,
) (statestorage.Storage, error) {

	logger, err := logging.NewLogger("RedisStateStorage")
	if err != nil {
		return nil, err
	}

	return &redisStateStorage{
		logger:      logger,
		client:      client,
		key:         prefix + ":checkpoints",
		checkpoints: make(statestorage.Checkpoints),
	}, nil
}

func (r *redisStateStorage) Start() error {
	if err := r.client.Ping().Err(); err != nil {
		return errors.Errorf("failed to connect to redis state storage: %s", err)
	}
	r.logger.Infof("Starting redis state storage at key %s", r.key)
	return r.Load()
}

func (r *redisStateStorage) Stop() error {
	if err := r.Save(); err != nil {
		r.logger.Warnf("Failed to store checkpoints on shutdown: %s", err)
	}
	return r.client.Close()
}

func (r *redisStateStorage) Save() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.checkpoints) == 0 {
		return nil
	}

	fields := make(map[string]any, len(r.checkpoints))
	for collection, token := range r.checkpoints {
		fields[collection] = string(token)
	}
	if err := r.client.HMSet(r.key, fields).Err(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

func (r *redisStateStorage) Load() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	fields, err := r.client.HGetAll(r.key).Result()
	if err != nil {
		return errors.Wrap(err, 0)
	}

	r.checkpoints = make(statestorage.Checkpoints, len(fields))
	for collection, token := range fields {
		r.checkpoints[collection] = changeevent.Token(token)
	}
	return nil
}

func (r *redisStateStorage) Get() (map[string]changeevent.Token, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.checkpoints.Copy(), nil
}

func (r *redisStateStorage) Set(
	collection string, token changeevent.Token,
) error {

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.checkpoints[collection] = token
	if err := r.client.HSet(r.key, collection, string(token)).Err(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
