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

package config

import (
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Env_Vars(t *testing.T) {
	t.Setenv("FOO_BAR", "foo")
	t.Setenv("FOO_BAR__BAZ", "bar")

	// On Windows environment variables are case-insensitive, therefore,
	// this test will always fail if trying to use different casing versions
	if runtime.GOOS != "windows" {
		t.Setenv("foo_bar", "bar")
		t.Setenv("foo_bar__baz", "foo")
	}

	v, found := findEnvProperty("foo.bar", "test")
	assert.Equal(t, true, found)
	assert.Equal(t, "foo", v)

	v, found = findEnvProperty("foo.bar_baz", "test")
	assert.Equal(t, true, found)
	assert.Equal(t, "bar", v)

	v, found = findEnvProperty("oof.bar", "test")
	assert.Equal(t, false, found)
	assert.Equal(t, "test", v)
}

func Test_Env_Vars_Typed(t *testing.T) {
	t.Setenv("EXECUTOR_BATCH", "false")
	t.Setenv("STATESTORAGE_REDIS_DATABASE", "3")
	t.Setenv("SINK_KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("MONGODB_CONNECT_TIMEOUT", "5s")
	t.Setenv("STATS_ENABLED", "not-a-bool")

	config := &Config{}
	assert.Equal(t, false, GetOrDefault(config, PropertyExecutorBatch, true))
	assert.Equal(t, 3, GetOrDefault(config, PropertyRedisStateStorageDatabase, 0))
	assert.Equal(t, []string{"a:9092", "b:9092"}, GetOrDefault(config, PropertyKafkaBrokers, []string{}))
	assert.Equal(t, 5*time.Second, GetOrDefault(config, PropertyMongodbConnectTimeout, time.Second))
	assert.Equal(t, true, GetOrDefault(config, PropertyStatsEnabled, true))
}

func Test_Property_Extraction(t *testing.T) {
	config := Config{
		Sink: SinkConfig{
			Type: Kafka,
			Kafka: KafkaConfig{
				Brokers: []string{"foo", "bar"},
			},
		},
	}

	value := reflect.ValueOf(config)
	v1, found := findProperty(value, "sink")
	assert.Equal(t, true, found)

	v2, found := findProperty(v1, "type")
	assert.Equal(t, true, found)
	assert.Equal(t, "kafka", string(v2.Interface().(SinkType)))

	v3, found := findProperty(v1, "kafka")
	assert.Equal(t, true, found)

	v4, found := findProperty(v3, "brokers")
	assert.Equal(t, true, found)
	assert.Equal(t, []string{"foo", "bar"}, v4.Interface().([]string))

	_, found = findProperty(v4, "nested")
	assert.Equal(t, false, found)
}

func Test_Config_Property_Reading(t *testing.T) {
	streamName := "changes"
	config := &Config{
		Sink: SinkConfig{
			Type: Kafka,
			Kafka: KafkaConfig{
				Brokers: []string{"foo", "bar"},
			},
			AwsKinesis: AwsKinesisConfig{
				Stream: AwsKinesisStreamConfig{
					Name: &streamName,
				},
			},
		},
		Executor: ExecutorConfig{
			Batch: addrOf(false),
		},
	}

	v1 := GetOrDefault(config, PropertySink, "foo")
	assert.Equal(t, "kafka", v1)

	v2 := GetOrDefault(config, PropertyKafkaBrokers, []string{"baz"})
	assert.Equal(t, []string{"foo", "bar"}, v2)

	v3 := GetOrDefault(config, PropertyKafkaTlsEnabled, true)
	assert.Equal(t, true, v3)

	v4 := GetOrDefault(config, "sink.kafka.non.existent", true)
	assert.Equal(t, true, v4)

	v5 := GetOrDefault[*string](config, PropertyKinesisStreamName, nil)
	require.NotNil(t, v5)
	assert.Equal(t, "changes", *v5)

	v6 := GetOrDefault[*int64](config, PropertyKinesisStreamShardCount, nil)
	assert.Nil(t, v6)

	v7 := GetOrDefault(config, PropertyExecutorBatch, true)
	assert.Equal(t, false, v7)

	t.Setenv("SINK_TYPE", "redis")
	v8 := GetOrDefault(config, PropertySink, "foo")
	assert.Equal(t, "redis", v8)
}

func Test_Sync_Defaults(t *testing.T) {
	defaults := (&Config{}).SyncDefaults()
	assert.True(t, defaults.SyncOnStart)
	assert.True(t, defaults.SyncInRealTime)
	assert.Equal(t, "", defaults.Filter)

	config := &Config{
		Synchronizer: SynchronizerConfig{
			Defaults: SyncDefaultsConfig{
				SyncOnStart: addrOf(false),
				Filter:      "op != 'delete'",
			},
		},
	}
	defaults = config.SyncDefaults()
	assert.False(t, defaults.SyncOnStart)
	assert.True(t, defaults.SyncInRealTime)
	assert.Equal(t, "op != 'delete'", defaults.Filter)
}

func Test_File_Defaults(t *testing.T) {
	defaults := (&Config{}).FileDefaults()
	assert.False(t, defaults.CleanUpBeforeSync)
	assert.Equal(t, ",", defaults.Separator)
	assert.Nil(t, defaults.Headers)
	assert.Equal(t, 0, defaults.SkipLines)
}

func Test_Decode_Toml(t *testing.T) {
	content := `
[mongodb]
uri = "mongodb://localhost:27017"
database = "shop"

[synchronizer.defaults]
synconstart = false

[[synchronizer.mappings]]
table = "users->USER"
keys = ["_id->USER_ID"]
columns = ["name->NAME"]

[[synchronizer.mappings.embeddedColumns]]
table = "roles->USER_ROLE"
keys = ["../_id->USER_ID", ".->ROLE"]

[statestorage]
type = "file"
file.path = "/tmp/checkpoints.json"
`

	config := &Config{}
	require.NoError(t, Decode([]byte(content), Toml, config))

	assert.Equal(t, "shop", config.MongoDB.Database)
	assert.Equal(t, FileStorage, config.StateStorage.Type)
	assert.Equal(t, "/tmp/checkpoints.json", config.StateStorage.FileStorage.Path)
	assert.False(t, config.SyncDefaults().SyncOnStart)
	require.Len(t, config.Synchronizer.Mappings, 1)
	assert.Equal(t, "users->USER", config.Synchronizer.Mappings[0]["table"])
	assert.NotNil(t, config.Synchronizer.Mappings[0]["embeddedColumns"])
}

func Test_Decode_Yaml(t *testing.T) {
	content := `
postgresql:
  connection: "host=localhost user=repl"
synchronizer:
  mappings:
    - table: "users->USER"
      keys: ["_id->USER_ID"]
      options:
        syncinrealtime: false
sink:
  type: kafka
  kafka:
    brokers: ["localhost:9092"]
`

	config := &Config{}
	require.NoError(t, Decode([]byte(content), Yaml, config))

	assert.Equal(t, "host=localhost user=repl", config.PostgreSQL.Connection)
	assert.Equal(t, Kafka, config.Sink.Type)
	assert.Equal(t, []string{"localhost:9092"}, config.Sink.Kafka.Brokers)
	require.Len(t, config.Synchronizer.Mappings, 1)
	assert.Equal(t, map[string]any{"syncinrealtime": false}, config.Synchronizer.Mappings[0]["options"])
}

func Test_Decode_Expands_Environment_References(t *testing.T) {
	t.Setenv("REPLICA_PASSWORD", "s3cret")

	content := `
postgresql:
  connection: "host=${REPLICA_HOST} user=repl"
  password: "${REPLICA_PASSWORD}"
`

	config := &Config{}
	require.NoError(t, Decode([]byte(content), Yaml, config))

	assert.Equal(t, "s3cret", config.PostgreSQL.Password)
	assert.Equal(t, "host=${REPLICA_HOST} user=repl", config.PostgreSQL.Connection)
}

func Test_Decode_Invalid_Content(t *testing.T) {
	err := Decode([]byte("[mongodb\nuri ="), Toml, &Config{})
	assert.ErrorContains(t, err, "toml configuration")
}

func Test_Format_Of(t *testing.T) {
	assert.Equal(t, Toml, FormatOf("/etc/replicator/config.TOML"))
	assert.Equal(t, Yaml, FormatOf("config.yaml"))
	assert.Equal(t, Yaml, FormatOf("config"))
}

func addrOf[T any](value T) *T {
	return &value
}
