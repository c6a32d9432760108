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

package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	SyncOnStart bool     `mapstructure:"synconstart"`
	Filter      string   `mapstructure:"filter"`
	Headers     []string `mapstructure:"headers"`
}

func Test_Split_String(t *testing.T) {
	source, destination := SplitPair("user_id->USER_ID")
	assert.Equal(t, "user_id", source)
	assert.Equal(t, "USER_ID", destination)

	source, destination = SplitPair("name")
	assert.Equal(t, "name", source)
	assert.Equal(t, "name", destination)

	source, destination = SplitPair(" 'user type' -> TYPE")
	assert.Equal(t, "'user type'", source)
	assert.Equal(t, "TYPE", destination)
}

func Test_Split_Nested(t *testing.T) {
	source, destination := SplitPair(map[string]any{
		"table": "users->USER",
		"keys":  []any{"_id->USER_ID"},
		"limit": 10,
	})

	assert.Equal(t, map[string]any{"table": "users", "keys": []any{"_id"}, "limit": 10}, source)
	assert.Equal(t, map[string]any{"table": "USER", "keys": []any{"USER_ID"}, "limit": 10}, destination)
}

func Test_Split_Typed_Slices(t *testing.T) {
	source, destination := SplitPair([]string{"a->A", "b"})
	assert.Equal(t, []any{"a", "b"}, source)
	assert.Equal(t, []any{"A", "b"}, destination)

	source, destination = SplitPair([]map[string]any{{"table": "x->X"}})
	assert.Equal(t, []any{map[string]any{"table": "x"}}, source)
	assert.Equal(t, []any{map[string]any{"table": "X"}}, destination)
}

func Test_Compile_Users(t *testing.T) {
	pairs, err := Compile([]map[string]any{
		{
			"table":   "users->USER",
			"keys":    []any{"_id->USER_ID"},
			"columns": []any{"name->NAME", "'type'->TYPE", "'0'->VERSION"},
		},
	}, testOptions{SyncOnStart: true})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	pair := pairs[0]
	assert.Equal(t, "users", pair.Source.Table)
	assert.Equal(t, "USER", pair.Destination.Table)
	assert.Equal(t, []string{"_id"}, pair.Source.Keys)
	assert.Equal(t, []string{"USER_ID"}, pair.Destination.Keys)
	assert.Equal(t, []string{"name", "'type'", "'0'"}, pair.Source.Columns)
	assert.Equal(t, []string{"NAME", "TYPE", "VERSION"}, pair.Destination.Columns)
	assert.True(t, pair.Options.SyncOnStart)
	assert.Len(t, pair.Source.ColumnPaths(), 3)
	assert.Equal(t, "'type'", pair.Source.ColumnPaths()[1].String())
}

func Test_Compile_Embedded_Columns(t *testing.T) {
	pairs, err := Compile([]map[string]any{
		{
			"table": "orders->ORDERS",
			"keys":  []any{"_id->ORDER_ID"},
			"embeddedColumns": []any{
				map[string]any{
					"table":   "items->ORDER_ITEM",
					"keys":    []any{"../_id->ORDER_ID", "sku->SKU"},
					"columns": []any{"qty->QTY"},
				},
			},
			"query": map[string]any{"status": "open"},
		},
	}, testOptions{})
	require.NoError(t, err)

	pair := pairs[0]
	require.Len(t, pair.Source.EmbeddedColumns, 1)
	require.Len(t, pair.Destination.EmbeddedColumns, 1)
	assert.Equal(t, "items", pair.Source.EmbeddedColumns[0].Table)
	assert.Equal(t, "ORDER_ITEM", pair.Destination.EmbeddedColumns[0].Table)
	assert.Equal(t, []string{"ORDER_ID", "SKU"}, pair.Destination.EmbeddedColumns[0].Keys)
	assert.Equal(t, "../_id", pair.Source.EmbeddedColumns[0].KeyPaths()[0].String())
	assert.Equal(t, map[string]any{"status": "open"}, pair.Source.Query)
}

func Test_Compile_Options_Override_Defaults(t *testing.T) {
	defaults := testOptions{SyncOnStart: true, Headers: []string{"a", "b"}}
	pairs, err := Compile([]map[string]any{
		{
			"table":   "a->A",
			"keys":    []any{"id"},
			"options": map[string]any{"filter": "op != 'delete'", "headers": []any{"x"}},
		},
		{
			"table": "b->B",
			"keys":  []any{"id"},
		},
	}, defaults)
	require.NoError(t, err)

	assert.True(t, pairs[0].Options.SyncOnStart)
	assert.Equal(t, "op != 'delete'", pairs[0].Options.Filter)
	assert.Equal(t, []string{"x"}, pairs[0].Options.Headers)

	assert.Equal(t, "", pairs[1].Options.Filter)
	assert.Equal(t, []string{"a", "b"}, pairs[1].Options.Headers)
	assert.Equal(t, []string{"a", "b"}, defaults.Headers)
}

func Test_Compile_Case_Insensitive_Keys(t *testing.T) {
	pairs, err := Compile([]map[string]any{
		{
			"table": "a->A",
			"keys":  []any{"id"},
			"embeddedcolumns": []any{
				map[string]any{"table": "b->B", "keys": []any{"id"}},
			},
		},
	}, testOptions{})
	require.NoError(t, err)
	assert.Len(t, pairs[0].Source.EmbeddedColumns, 1)
}

func Test_Compile_Rejects_Invalid_Mappings(t *testing.T) {
	testCases := []struct {
		name  string
		table map[string]any
	}{
		{
			name:  "missing table",
			table: map[string]any{"keys": []any{"id"}},
		},
		{
			name:  "missing keys",
			table: map[string]any{"table": "a->A"},
		},
		{
			name: "broken literal",
			table: map[string]any{
				"table":   "a->A",
				"keys":    []any{"id"},
				"columns": []any{"'open->OPEN"},
			},
		},
		{
			name: "broken embedded table",
			table: map[string]any{
				"table": "a->A",
				"keys":  []any{"id"},
				"embeddedColumns": []any{
					map[string]any{"table": "b->B"},
				},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Compile([]map[string]any{testCase.table}, testOptions{})
			assert.Error(t, err)
		})
	}
}
