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

package stats

import (
	"testing"
	"time"

	"github.com/segmentio/stats/v4"
	"github.com/segmentio/stats/v4/statstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Reporter_Records_Measures(t *testing.T) {
	handler := &statstest.Handler{}
	engine := stats.NewEngine("test", handler)

	reporter := newReporter(engine.WithPrefix("executor"), true)
	reporter.Incr("statements", Tag("kind", "insert"))
	reporter.Add("rows", 3)
	reporter.Observe("latency", time.Millisecond)
	engine.Flush()

	measures := handler.Measures()
	require.Len(t, measures, 3)
	assert.Equal(t, "test.executor", measures[0].Name)
	assert.Equal(t, "statements", measures[0].Fields[0].Name)
	assert.Contains(t, measures[0].Tags, stats.T("kind", "insert"))
}

func Test_Reporter_Disabled(t *testing.T) {
	handler := &statstest.Handler{}
	engine := stats.NewEngine("test", handler)

	reporter := newReporter(engine, false)
	reporter.Incr("statements")
	engine.Flush()
	assert.Empty(t, handler.Measures())

	assert.NotPanics(t, func() {
		NewNoopReporter().Observe("latency", 1)
	})
}
