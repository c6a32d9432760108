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

package fileingesting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/noctarius/mongo-sql-replicator/internal/executing"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/mapping"
	"github.com/noctarius/mongo-sql-replicator/testsupport/fakes"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userUpsert = "MERGE INTO USERS USING (SELECT 1) AS dual ON (USER_ID = $1) " +
	"WHEN MATCHED THEN UPDATE SET NAME = $2 WHEN NOT MATCHED THEN INSERT (USER_ID, NAME) VALUES ($3, $4)"

func newTestIngester(
	t *testing.T, path string, options config.FileOptions, tables ...map[string]any,
) (*Ingester, *fakes.SqlClient) {

	pairs, err := mapping.Compile(tables, options)
	require.NoError(t, err)

	client := &fakes.SqlClient{}
	executor, err := executing.NewExecutor(&config.Config{}, client, nil)
	require.NoError(t, err)

	ingester, err := newIngester(executor, path, pairs)
	require.NoError(t, err)
	return ingester, client
}

func userTable() map[string]any {
	return map[string]any{
		"table":   "users->USERS",
		"keys":    []any{"id->USER_ID"},
		"columns": []any{"name->NAME"},
	}
}

func Test_Read_Rows_With_Header_Row(t *testing.T) {
	rows, err := readRows(strings.NewReader("id,name\n1,Alice\n2,Bob\n"), config.FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": "1", "name": "Alice"},
		{"id": "2", "name": "Bob"},
	}, rows)
}

func Test_Read_Rows_With_Explicit_Headers_And_Separator(t *testing.T) {
	options := config.FileOptions{
		Separator: ";",
		Headers:   []string{"id", "name"},
		SkipLines: 1,
	}
	rows, err := readRows(strings.NewReader("exported at 2024-01-01\n1;Alice\n2\n"), options)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": "1", "name": "Alice"},
		{"id": "2"},
	}, rows)
}

func Test_Read_Rows_Empty_Input(t *testing.T) {
	rows, err := readRows(strings.NewReader(""), config.FileOptions{SkipLines: 2})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func Test_Read_Rows_Invalid_Separator(t *testing.T) {
	_, err := readRows(strings.NewReader("a"), config.FileOptions{Separator: "||"})
	assert.ErrorContains(t, err, "single character")
}

func Test_Ingest_File(t *testing.T) {
	directory := t.TempDir()
	content := "id,name\n1,Alice\n2,Bob\n3,Carol\n"
	require.NoError(t, os.WriteFile(filepath.Join(directory, "users"), []byte(content), 0o644))

	ingester, client := newTestIngester(t, directory, config.FileOptions{CleanUpBeforeSync: true}, userTable())
	ingester.Start(context.Background())

	execs := client.Execs()
	require.Len(t, execs, 1)
	assert.Equal(t, "DELETE FROM USERS", execs[0].SQL)

	rows := client.BatchRows(userUpsert)
	require.Len(t, rows, 3)
	assert.Equal(t, []any{"1", "Alice", "1", "Alice"}, rows[0])
	assert.Equal(t, []any{"3", "Carol", "3", "Carol"}, rows[2])
}

func Test_Ingest_Missing_File_Is_Skipped(t *testing.T) {
	ingester, client := newTestIngester(t, t.TempDir(), config.FileOptions{CleanUpBeforeSync: true}, userTable())
	ingester.Start(context.Background())

	assert.Empty(t, client.Execs())
	assert.Empty(t, client.Batches())
}

func Test_Ingest_Per_Mapping_Options(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "users"), []byte("1|Alice\n"), 0o644))

	table := userTable()
	table["options"] = map[string]any{
		"separator": "|",
		"headers":   []any{"id", "name"},
	}

	ingester, client := newTestIngester(t, directory, config.FileOptions{Separator: ","}, table)
	ingester.Start(context.Background())

	assert.Empty(t, client.Execs())
	assert.Equal(t, [][]any{{"1", "Alice", "1", "Alice"}}, client.BatchRows(userUpsert))
}

func Test_New_Ingester_From_Config(t *testing.T) {
	c := &config.Config{
		FileIngest: config.FileIngestConfig{
			Path: "/data/import",
			Defaults: config.FileDefaultsConfig{
				CleanUpBeforeSync: lo.ToPtr(true),
				Separator:         ";",
			},
			Mappings: []map[string]any{userTable()},
		},
	}

	ingester, err := NewIngester(c, nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/import", ingester.path)
	require.Len(t, ingester.pairs, 1)
	assert.True(t, ingester.pairs[0].Options.CleanUpBeforeSync)
	assert.Equal(t, ";", ingester.pairs[0].Options.Separator)
}
