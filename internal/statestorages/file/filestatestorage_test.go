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

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T, path string) statestorage.Storage {
	storage, err := NewFileStateStorage(path, encoding.NewJsonEncoder(true), encoding.NewJsonDecoder(true))
	require.NoError(t, err)
	return storage
}

func Test_Writing_Reading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoints.json")

	storage := newStorage(t, path)
	require.NoError(t, storage.Start())
	require.NoError(t, storage.Set("orders", `{"_data":"id7"}`))
	require.NoError(t, storage.Set("users", `{"_data":"id3"}`))
	require.NoError(t, storage.Set("orders", `{"_data":"id8"}`))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"orders":"{\"_data\":\"id8\"}","users":"{\"_data\":\"id3\"}"}`, string(data))
	require.NoError(t, storage.Stop())

	second := newStorage(t, path)
	require.NoError(t, second.Start())
	checkpoints, err := second.Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]changeevent.Token{
		"orders": `{"_data":"id8"}`,
		"users":  `{"_data":"id3"}`,
	}, checkpoints)
}

func Test_Missing_File_Is_Empty(t *testing.T) {
	storage := newStorage(t, filepath.Join(t.TempDir(), "checkpoints.json"))
	require.NoError(t, storage.Start())

	checkpoints, err := storage.Get()
	require.NoError(t, err)
	assert.Empty(t, checkpoints)
}

func Test_Corrupt_File_Is_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	storage := newStorage(t, path)
	require.NoError(t, storage.Start())

	checkpoints, err := storage.Get()
	require.NoError(t, err)
	assert.Empty(t, checkpoints)
}

func Test_Path_Is_Directory(t *testing.T) {
	_, err := NewFileStateStorage(t.TempDir(), encoding.NewJsonEncoder(true), encoding.NewJsonDecoder(true))
	assert.ErrorContains(t, err, "is not a file")
}

func Test_Provider_Requires_Path(t *testing.T) {
	_, err := statestorage.NewStateStorage(&config.Config{
		StateStorage: config.StateStorageConfig{Type: config.FileStorage},
	})
	assert.ErrorContains(t, err, "needs a path")
}

func Test_Get_Returns_Copy(t *testing.T) {
	storage := newStorage(t, filepath.Join(t.TempDir(), "checkpoints.json"))
	require.NoError(t, storage.Start())
	require.NoError(t, storage.Set("orders", "id7"))

	checkpoints, err := storage.Get()
	require.NoError(t, err)
	checkpoints["orders"] = "changed"

	again, err := storage.Get()
	require.NoError(t, err)
	assert.Equal(t, changeevent.Token("id7"), again["orders"])
}
