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
	"context"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/eventing/eventemitting"
	"github.com/noctarius/mongo-sql-replicator/internal/fileingesting"
	"github.com/noctarius/mongo-sql-replicator/internal/stats"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/internal/synchronizing"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/documentstore"
	"github.com/noctarius/mongo-sql-replicator/spi/sqlstore"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
	"github.com/noctarius/mongo-sql-replicator/spi/wiring"
)

// Replicator runs the file ingestion and the synchronizer, persisting
// the checkpoint and publishing a notification for every applied
// change.
type Replicator struct {
	logger       *logging.Logger
	container    wiring.Container
	statsService *stats.Service
	stateStorage statestorage.Storage
	client       sqlstore.Client
	store        documentstore.Store
	ingester     *fileingesting.Ingester
	synchronizer *synchronizing.Synchronizer
	eventEmitter *eventemitting.EventEmitter
	cancel       context.CancelFunc
}

// NewReplicator assembles all services the configuration asks for.
// The document store is only connected when collections are mapped.
func NewReplicator(
	c *config.Config,
) (*Replicator, error) {

	logger, err := logging.NewLogger("Replicator")
	if err != nil {
		return nil, err
	}

	configModule := wiring.DefineModule("Config", func(module wiring.Module) {
		module.Provide(func() *config.Config {
			return c
		})
	})

	container, err := wiring.NewContainer(configModule, StaticModule, DynamicModule)
	if err != nil {
		return nil, err
	}

	r := &Replicator{
		logger:    logger,
		container: container,
	}

	if err := container.Service(&r.statsService); err != nil {
		return nil, err
	}
	if err := container.Service(&r.stateStorage); err != nil {
		return nil, err
	}
	if err := container.Service(&r.client); err != nil {
		return nil, err
	}

	if len(c.FileIngest.Mappings) > 0 {
		if err := container.Service(&r.ingester); err != nil {
			return nil, err
		}
	}

	if len(c.Synchronizer.Mappings) > 0 {
		if err := container.Service(&r.store); err != nil {
			return nil, err
		}
		if err := container.Service(&r.synchronizer); err != nil {
			return nil, err
		}
		if err := container.Service(&r.eventEmitter); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Replicator) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if err := r.statsService.Start(); err != nil {
		return errors.Wrap(err, 0)
	}
	if err := r.stateStorage.Start(); err != nil {
		return errors.Wrap(err, 0)
	}

	if r.ingester != nil {
		r.ingester.Start(ctx)
	}

	if r.synchronizer == nil {
		r.logger.Infoln("No collections mapped, synchronization skipped")
		return nil
	}

	if err := r.eventEmitter.Start(); err != nil {
		return errors.Wrap(err, 0)
	}

	checkpoints, err := r.stateStorage.Get()
	if err != nil {
		r.logger.Warnf("Failed to read checkpoints, starting without: %s", err)
		checkpoints = map[string]changeevent.Token{}
	}
	return r.synchronizer.Start(ctx, checkpoints, r.onChange)
}

func (r *Replicator) Stop() error {
	if r.synchronizer != nil {
		if err := r.synchronizer.Stop(); err != nil {
			r.logger.Warnf("Change streams didn't stop in time: %s", err)
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.eventEmitter != nil {
		if err := r.eventEmitter.Stop(); err != nil {
			r.logger.Warnf("Failed to stop sink: %s", err)
		}
	}
	if err := r.stateStorage.Stop(); err != nil {
		r.logger.Errorf("Failed to persist checkpoints: %s", err)
	}
	if r.store != nil {
		if err := r.store.Close(context.Background()); err != nil {
			r.logger.Warnf("Failed to close document store: %s", err)
		}
	}
	if err := r.client.Close(); err != nil {
		r.logger.Warnf("Failed to close relational store: %s", err)
	}
	if err := r.statsService.Stop(); err != nil {
		r.logger.Warnf("Failed to stop stats service: %s", err)
	}
	return r.container.Shutdown()
}

// onChange persists the checkpoint and publishes applied changes.
// Both are best effort, a failure never stops the stream.
func (r *Replicator) onChange(
	event *changeevent.Event, applied bool,
) {

	if err := r.stateStorage.Set(event.Namespace.Collection, event.ID); err != nil {
		r.logger.Errorf("Failed to persist checkpoint of %s: %s", event.Namespace.Collection, err)
	}
	if applied && r.eventEmitter != nil {
		if err := r.eventEmitter.Emit(event); err != nil {
			r.logger.Errorf("Failed to publish change of %s: %s", event.Namespace.Collection, err)
		}
	}
}
