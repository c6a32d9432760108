//go:build linux || freebsd || darwin

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

package plugins

import (
	"testing"

	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_No_Plugins(t *testing.T) {
	assert.NoError(t, LoadPlugins(&config.Config{}))
}

func Test_Extension_Points_Register_Sink(t *testing.T) {
	provider := func(_ *config.Config) (sink.Sink, error) {
		return sink.SinkFunc(nil), nil
	}

	extensionPoints := &extensionPoints{}
	require.True(t, extensionPoints.RegisterSink("plugin-test-sink", provider))
	assert.False(t, extensionPoints.RegisterSink("plugin-test-sink", provider))

	s, err := sink.NewSink(&config.Config{Sink: config.SinkConfig{Type: "plugin-test-sink"}})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
