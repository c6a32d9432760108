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
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/stats"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	timestamp time.Time
	topicName string
	key       sink.Struct
	envelope  sink.Struct
}

func recordingSink(failures int, records *[]emitted) sink.Sink {
	return sink.SinkFunc(func(timestamp time.Time, topicName string, key, envelope sink.Struct) error {
		if failures > 0 {
			failures--
			return errors.Errorf("sink unavailable")
		}
		*records = append(*records, emitted{timestamp, topicName, key, envelope})
		return nil
	})
}

func orderEvent() *changeevent.Event {
	return &changeevent.Event{
		ID:            `{"_data":"826500"}`,
		OperationType: changeevent.Update,
		Namespace:     changeevent.Namespace{Database: "shop", Collection: "orders"},
		DocumentKey:   map[string]any{"_id": "o-1"},
		FullDocument:  map[string]any{"_id": "o-1", "status": "paid"},
		ClusterTime:   time.UnixMilli(1700000000000).UTC(),
	}
}

func Test_Emit_Envelope(t *testing.T) {
	records := make([]emitted, 0)
	emitter, err := newEventEmitter(
		recordingSink(0, &records), stats.NewNoopReporter(), "replicator", 2,
		map[string][]string{"orders": {"public.orders"}},
	)
	require.NoError(t, err)

	require.NoError(t, emitter.Emit(orderEvent()))
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "replicator.shop.orders", record.topicName)
	assert.Equal(t, sink.Struct{"_id": "o-1"}, record.key)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), record.timestamp)

	envelope := record.envelope
	assert.Equal(t, "update", envelope["op"])
	assert.Equal(t, "shop", envelope["database"])
	assert.Equal(t, "orders", envelope["collection"])
	assert.Equal(t, []string{"public.orders"}, envelope["destination"])
	assert.Equal(t, `{"_data":"826500"}`, envelope["token"])
	assert.Equal(t, map[string]any{"_id": "o-1", "status": "paid"}, envelope["document"])
	assert.Equal(t, int64(1700000000000), envelope["ts"])
	assert.NotEmpty(t, envelope["id"])
}

func Test_Emit_Unknown_Operation_Keeps_Raw_Name(t *testing.T) {
	records := make([]emitted, 0)
	emitter, err := newEventEmitter(recordingSink(0, &records), stats.NewNoopReporter(), "replicator", 0, nil)
	require.NoError(t, err)

	event := orderEvent()
	event.OperationType = changeevent.Unknown
	event.RawOperationType = "drop"
	require.NoError(t, emitter.Emit(event))
	assert.Equal(t, "drop", records[0].envelope["op"])
}

func Test_Emit_Retries_Failed_Sink(t *testing.T) {
	records := make([]emitted, 0)
	emitter, err := newEventEmitter(recordingSink(2, &records), stats.NewNoopReporter(), "replicator", 3, nil)
	require.NoError(t, err)

	require.NoError(t, emitter.Emit(orderEvent()))
	assert.Len(t, records, 1)
}

func Test_Emit_Gives_Up_After_Max_Retries(t *testing.T) {
	records := make([]emitted, 0)
	emitter, err := newEventEmitter(recordingSink(5, &records), stats.NewNoopReporter(), "replicator", 1, nil)
	require.NoError(t, err)

	assert.Error(t, emitter.Emit(orderEvent()))
	assert.Empty(t, records)
}

func Test_Topic_Prefix_Defaults_To_Binary_Name(t *testing.T) {
	emitter, err := NewEventEmitter(&config.Config{}, sink.SinkFunc(nil), nil, nil)
	require.NoError(t, err)

	namespace := changeevent.Namespace{Database: "shop", Collection: "orders"}
	assert.Equal(t, "mongo-sql-replicator.shop.orders", emitter.TopicName(namespace))
}
