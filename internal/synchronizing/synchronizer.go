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

package synchronizing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/eventing/eventfiltering"
	"github.com/noctarius/mongo-sql-replicator/internal/executing"
	"github.com/noctarius/mongo-sql-replicator/internal/statements"
	"github.com/noctarius/mongo-sql-replicator/internal/stats"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/internal/waiting"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/documentstore"
	"github.com/noctarius/mongo-sql-replicator/spi/mapping"
	"github.com/noctarius/mongo-sql-replicator/spi/pathexpr"
)

const stopTimeout = 10 * time.Second

type State int32

const (
	Starting State = iota
	BulkSyncing
	Listening
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case BulkSyncing:
		return "bulk-syncing"
	case Listening:
		return "listening"
	default:
		return "stopped"
	}
}

// ChangeHandler is called once per processed change event, in stream
// order. applied is false for events that were filtered, unknown,
// skipped or whose statement failed; their checkpoint advances anyway.
type ChangeHandler func(event *changeevent.Event, applied bool)

type syncPair struct {
	*mapping.MappingPair[config.SyncOptions]
	filter eventfiltering.EventFilter
}

// Synchronizer mirrors the mapped collections into their destination
// tables, first by a bulk load and afterwards by following the change
// streams of the collections.
type Synchronizer struct {
	logger   *logging.Logger
	store    documentstore.Store
	executor *executing.Executor
	reporter *stats.Reporter
	pairs    []*syncPair

	state atomic.Int32

	checkpointMutex sync.Mutex
	checkpoints     map[string]changeevent.Token

	lifecycleMutex sync.Mutex
	cancel         context.CancelFunc
	group          sync.WaitGroup
}

func NewSynchronizer(
	c *config.Config, store documentstore.Store, executor *executing.Executor, statsService *stats.Service,
) (*Synchronizer, error) {

	pairs, err := mapping.Compile(c.Synchronizer.Mappings, c.SyncDefaults())
	if err != nil {
		return nil, errors.Errorf("invalid synchronizer mapping: %s", err)
	}

	reporter := stats.NewNoopReporter()
	if statsService != nil {
		reporter = statsService.NewReporter("synchronizer")
	}
	return newSynchronizer(store, executor, reporter, pairs)
}

func newSynchronizer(
	store documentstore.Store, executor *executing.Executor, reporter *stats.Reporter,
	pairs []*mapping.MappingPair[config.SyncOptions],
) (*Synchronizer, error) {

	logger, err := logging.NewLogger("Synchronizer")
	if err != nil {
		return nil, err
	}

	syncPairs := make([]*syncPair, 0, len(pairs))
	for _, pair := range pairs {
		filter, err := eventfiltering.NewEventFilter(pair.Options.Filter)
		if err != nil {
			return nil, errors.Errorf("mapping %s: %s", pair.Source.Table, err)
		}
		syncPairs = append(syncPairs, &syncPair{MappingPair: pair, filter: filter})
	}

	return &Synchronizer{
		logger:      logger,
		store:       store,
		executor:    executor,
		reporter:    reporter,
		pairs:       syncPairs,
		checkpoints: make(map[string]changeevent.Token),
	}, nil
}

func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

// Pairs returns the compiled mapping pairs.
func (s *Synchronizer) Pairs() []*mapping.MappingPair[config.SyncOptions] {
	pairs := make([]*mapping.MappingPair[config.SyncOptions], 0, len(s.pairs))
	for _, pair := range s.pairs {
		pairs = append(pairs, pair.MappingPair)
	}
	return pairs
}

// Checkpoints returns a snapshot of the last applied change per
// collection.
func (s *Synchronizer) Checkpoints() map[string]changeevent.Token {
	s.checkpointMutex.Lock()
	defer s.checkpointMutex.Unlock()

	snapshot := make(map[string]changeevent.Token, len(s.checkpoints))
	for collection, token := range s.checkpoints {
		snapshot[collection] = token
	}
	return snapshot
}

// Start runs the bulk synchronization and opens the change streams
// afterwards, resuming each collection after its checkpoint. It
// returns as soon as the streams are consumed in the background. A
// failing bulk query aborts the start.
func (s *Synchronizer) Start(
	ctx context.Context, checkpoints map[string]changeevent.Token, onChange ChangeHandler,
) error {

	if !s.state.CompareAndSwap(int32(Starting), int32(BulkSyncing)) {
		return errors.Errorf("synchronizer already started")
	}

	s.checkpointMutex.Lock()
	for collection, token := range checkpoints {
		s.checkpoints[collection] = token
	}
	s.checkpointMutex.Unlock()

	if err := s.bulkSync(ctx); err != nil {
		s.state.Store(int32(Stopped))
		return err
	}

	s.lifecycleMutex.Lock()
	defer s.lifecycleMutex.Unlock()

	if !s.state.CompareAndSwap(int32(BulkSyncing), int32(Listening)) {
		return errors.Errorf("synchronizer stopped during bulk synchronization")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.listen(streamCtx, onChange)
	return nil
}

// Stop cancels all change streams and waits for their consumers.
func (s *Synchronizer) Stop() error {
	previous := State(s.state.Swap(int32(Stopped)))
	if previous == Stopped {
		return nil
	}

	s.lifecycleMutex.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.lifecycleMutex.Unlock()
	return waiting.AwaitGroup(&s.group, stopTimeout)
}

func (s *Synchronizer) bulkSync(
	ctx context.Context,
) error {

	s.logger.Infoln("Bulk synchronization begins")
	start := time.Now()

	statementList := make([]*statements.Statement, 0)
	for _, pair := range s.pairs {
		source := pair.Source
		if !pair.Options.SyncOnStart {
			s.logger.Infof("Skipping bulk synchronization of %s", source.Table)
			continue
		}

		documents, err := s.store.Find(ctx, source.Table, source.Query)
		if err != nil {
			return errors.Errorf("bulk query of %s failed: %s", source.Table, err)
		}

		accepted := 0
		for _, document := range documents {
			key := map[string]any{"_id": document["_id"]}
			if !s.accept(pair, eventfiltering.OperationRead, key, document) {
				continue
			}
			statementList = append(statementList, statements.Upsert(statements.Param{
				Source:      source,
				Destination: pair.Destination,
				Context:     pathexpr.NewContext(document, nil),
			}))
			accepted++
		}
		s.logger.Infof("Read %d documents of %s, %d accepted", len(documents), source.Table, accepted)
		s.reporter.Add("bulk.documents", accepted, stats.Tag("collection", source.Table))
	}

	rowsAffected := s.executor.ExecuteMany(ctx, statementList, s.executor.BatchMode())
	s.logger.Infof("Bulk synchronization finished in %s, %d rows affected", time.Since(start), rowsAffected)
	return nil
}

func (s *Synchronizer) listen(
	ctx context.Context, onChange ChangeHandler,
) {

	s.logger.Infoln("Listening to document changes")
	for _, pair := range s.pairs {
		source := pair.Source
		if !pair.Options.SyncInRealTime {
			s.logger.Infof("Skipping change stream of %s", source.Table)
			continue
		}

		resumeAfter := s.checkpoint(source.Table)
		if !resumeAfter.IsEmpty() {
			s.logger.Infof("Resuming %s after %s", source.Table, resumeAfter)
		}

		stream, err := s.store.Watch(ctx, source.Table, source.Pipeline, resumeAfter)
		if err != nil {
			s.logger.Errorf("Failed to open change stream of %s, stream inactive: %s", source.Table, err)
			continue
		}

		s.group.Add(1)
		go s.consume(ctx, pair, stream, onChange)
	}
}

// consume processes the events of a single stream one after another.
func (s *Synchronizer) consume(
	ctx context.Context, pair *syncPair, stream documentstore.ChangeStream, onChange ChangeHandler,
) {

	defer s.group.Done()
	defer func() {
		if err := stream.Close(context.Background()); err != nil {
			s.logger.Warnf("Failed to close change stream of %s: %s", pair.Source.Table, err)
		}
	}()

	for stream.Next(ctx) {
		event, err := stream.Event()
		if err != nil {
			s.logger.Errorf("Failed to decode change event of %s: %s", pair.Source.Table, err)
			continue
		}
		if !s.dispatch(ctx, pair, event, onChange) {
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.Errorf("Change stream of %s failed, stream inactive: %s", pair.Source.Table, err)
	}
}

// dispatch applies the event and returns false when the stream must
// not be consumed any further.
func (s *Synchronizer) dispatch(
	ctx context.Context, pair *syncPair, event *changeevent.Event, onChange ChangeHandler,
) bool {

	source := pair.Source
	s.logger.Debugf("Change event on %s: %s %s", source.Table, event.OperationType, event.ID)

	if event.OperationType == changeevent.Invalidate {
		s.logger.Warnf("Collection %s was dropped or renamed, its change stream is closed", source.Table)
		return false
	}

	param := statements.Param{
		Source:      source,
		Destination: pair.Destination,
		Context:     pathexpr.NewContext(event.FullDocument, nil),
	}

	operation := event.OperationType.String()
	applied := false
	switch {
	case event.OperationType == changeevent.Unknown:
		s.logger.Warnf("Unknown operation %s on %s dropped", event.RawOperationType, source.Table)

	case !s.accept(pair, operation, event.DocumentKey, event.FullDocument):
		s.logger.Debugf("Change event %s on %s filtered", event.ID, source.Table)

	case event.OperationType == changeevent.Delete:
		param.Context = pathexpr.NewContext(event.DocumentKey, nil)
		applied = s.executor.Delete(ctx, param)

	case event.FullDocument == nil:
		s.logger.Warnf("Change event %s on %s carries no document, skipped", event.ID, source.Table)

	case event.OperationType == changeevent.Insert:
		applied = s.executor.Insert(ctx, param)

	case event.OperationType == changeevent.Update:
		applied = s.executor.Update(ctx, param)

	case event.OperationType == changeevent.Replace:
		applied = s.executor.Upsert(ctx, param)
	}

	s.reporter.Incr("events", stats.Tag("collection", source.Table), stats.Tag("op", operation))
	s.setCheckpoint(source.Table, event.ID)
	if onChange != nil {
		onChange(event, applied)
	}
	return true
}

func (s *Synchronizer) accept(
	pair *syncPair, operation string, key, document map[string]any,
) bool {

	accepted, err := pair.filter.Evaluate(operation, pair.Source.Table, key, document)
	if err != nil {
		s.logger.Errorf("Filter of %s failed, document skipped: %s", pair.Source.Table, err)
		return false
	}
	return accepted
}

func (s *Synchronizer) checkpoint(
	collection string,
) changeevent.Token {

	s.checkpointMutex.Lock()
	defer s.checkpointMutex.Unlock()
	return s.checkpoints[collection]
}

func (s *Synchronizer) setCheckpoint(
	collection string, token changeevent.Token,
) {

	if token.IsEmpty() {
		return
	}
	s.checkpointMutex.Lock()
	defer s.checkpointMutex.Unlock()
	s.checkpoints[collection] = token
}
