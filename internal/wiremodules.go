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

package internal

import (
	"github.com/noctarius/mongo-sql-replicator/internal/documentstores/mongodb"
	"github.com/noctarius/mongo-sql-replicator/internal/eventing/eventemitting"
	"github.com/noctarius/mongo-sql-replicator/internal/executing"
	"github.com/noctarius/mongo-sql-replicator/internal/fileingesting"
	"github.com/noctarius/mongo-sql-replicator/internal/sqlstores/postgresql"
	"github.com/noctarius/mongo-sql-replicator/internal/stats"
	"github.com/noctarius/mongo-sql-replicator/internal/synchronizing"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/mapping"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
	"github.com/noctarius/mongo-sql-replicator/spi/wiring"

	// Sinks and checkpoint storages register themselves
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/awskinesis"
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/awssqs"
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/http"
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/kafka"
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/nats"
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/redis"
	_ "github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/stdout"
	_ "github.com/noctarius/mongo-sql-replicator/internal/statestorages/file"
	_ "github.com/noctarius/mongo-sql-replicator/internal/statestorages/memory"
	_ "github.com/noctarius/mongo-sql-replicator/internal/statestorages/redis"
)

var StaticModule = wiring.DefineModule(
	"Static", func(module wiring.Module) {
		module.Provide(stats.NewStatsService, wiring.ForceInitialization())
		module.Provide(executing.NewExecutor)
		module.Provide(fileingesting.NewIngester)
		module.Provide(synchronizing.NewSynchronizer)

		module.Provide(func(
			c *config.Config, s sink.Sink, statsService *stats.Service, synchronizer *synchronizing.Synchronizer,
		) (*eventemitting.EventEmitter, error) {

			return eventemitting.NewEventEmitter(c, s, statsService, destinations(synchronizer.Pairs()))
		})
	},
)

var DynamicModule = wiring.DefineModule(
	"Dynamic", func(module wiring.Module) {
		module.Provide(statestorage.NewStateStorage)
		module.Provide(sink.NewSink)
		module.Provide(postgresql.NewClient)
		module.Provide(mongodb.NewStore)
	},
)

// destinations maps every source collection to its destination tables.
func destinations[O any](
	pairs []*mapping.MappingPair[O],
) map[string][]string {

	destinations := make(map[string][]string)
	for _, pair := range pairs {
		destinations[pair.Source.Table] = append(destinations[pair.Source.Table], pair.Destination.Table)
	}
	return destinations
}
