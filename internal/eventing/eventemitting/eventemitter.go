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

package eventemitting

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	"github.com/noctarius/mongo-sql-replicator/internal/stats"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
)

const defaultMaxRetries = 8

// EventEmitter publishes a notification for every applied change
// event to the configured sink.
type EventEmitter struct {
	logger       *logging.Logger
	sink         sink.Sink
	reporter     *stats.Reporter
	topicPrefix  string
	maxRetries   uint64
	destinations map[string][]string
}

// NewEventEmitter creates an emitter for the given sink. The
// destinations map source collections to the tables they are
// replicated into.
func NewEventEmitter(
	c *config.Config, s sink.Sink, statsService *stats.Service, destinations map[string][]string,
) (*EventEmitter, error) {

	reporter := stats.NewNoopReporter()
	if statsService != nil {
		reporter = statsService.NewReporter("emitter")
	}
	return newEventEmitter(
		s, reporter, config.GetOrDefault(c, config.PropertySinkTopicPrefix, version.BinName),
		config.GetOrDefault(c, config.PropertySinkRetriesMax, uint64(defaultMaxRetries)), destinations,
	)
}

func newEventEmitter(
	s sink.Sink, reporter *stats.Reporter, topicPrefix string, maxRetries uint64, destinations map[string][]string,
) (*EventEmitter, error) {

	logger, err := logging.NewLogger("EventEmitter")
	if err != nil {
		return nil, err
	}

	if destinations == nil {
		destinations = make(map[string][]string)
	}

	return &EventEmitter{
		logger:       logger,
		sink:         s,
		reporter:     reporter,
		topicPrefix:  topicPrefix,
		maxRetries:   maxRetries,
		destinations: destinations,
	}, nil
}

func (ee *EventEmitter) Start() error {
	return ee.sink.Start()
}

func (ee *EventEmitter) Stop() error {
	return ee.sink.Stop()
}

// TopicName returns the topic the notifications of the namespace are
// published to.
func (ee *EventEmitter) TopicName(
	namespace changeevent.Namespace,
) string {

	return fmt.Sprintf("%s.%s.%s", ee.topicPrefix, namespace.Database, namespace.Collection)
}

// Emit publishes the event, retrying with an exponential backoff.
func (ee *EventEmitter) Emit(
	event *changeevent.Event,
) error {

	envelope, err := ee.envelope(event)
	if err != nil {
		return err
	}

	timestamp := event.ClusterTime
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	topicName := ee.TopicName(event.Namespace)
	key := sink.Struct(event.DocumentKey)

	operation := func() error {
		ee.logger.Tracef("Publishing event: %+v", envelope)
		return ee.sink.Emit(timestamp, topicName, key, envelope)
	}

	// Run with backoff (it'll automatically reset before starting)
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), ee.maxRetries)
	if err := backoff.Retry(operation, policy); err != nil {
		ee.reporter.Incr("failed", stats.Tag("collection", event.Namespace.Collection))
		return errors.Wrap(err, 0)
	}
	ee.reporter.Incr("emitted", stats.Tag("collection", event.Namespace.Collection))
	return nil
}

func (ee *EventEmitter) envelope(
	event *changeevent.Event,
) (sink.Struct, error) {

	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	operation := event.OperationType.String()
	if event.OperationType == changeevent.Unknown && event.RawOperationType != "" {
		operation = event.RawOperationType
	}

	envelope := sink.Struct{
		"id":          id,
		"op":          operation,
		"database":    event.Namespace.Database,
		"collection":  event.Namespace.Collection,
		"destination": ee.destinations[event.Namespace.Collection],
		"token":       string(event.ID),
		"document":    event.FullDocument,
	}
	if !event.ClusterTime.IsZero() {
		envelope["ts"] = event.ClusterTime.UnixMilli()
	}
	return envelope, nil
}
