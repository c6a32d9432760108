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

package eventfiltering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Empty_Filter_Accepts_All(t *testing.T) {
	filter, err := NewEventFilter("  ")
	require.NoError(t, err)

	accepted, err := filter.Evaluate("delete", "orders", nil, nil)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func Test_Filter_Evaluation(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		operation string
		document  map[string]any
		expected  bool
	}{
		{"document_field_match", `document.status == "paid"`, "insert", map[string]any{"status": "paid"}, true},
		{"document_field_mismatch", `document.status == "paid"`, "insert", map[string]any{"status": "open"}, false},
		{"operation", `op != "delete"`, "delete", nil, false},
		{"read_operation", `op == "read"`, OperationRead, nil, true},
		{"collection", `collection startsWith "ord"`, "update", nil, true},
		{"numeric", `document.total > 100`, "insert", map[string]any{"total": 250}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			filter, err := NewEventFilter(test.condition)
			require.NoError(t, err)

			accepted, err := filter.Evaluate(test.operation, "orders", map[string]any{"_id": 1}, test.document)
			require.NoError(t, err)
			assert.Equal(t, test.expected, accepted)
		})
	}
}

func Test_Filter_Key_Access(t *testing.T) {
	filter, err := NewEventFilter(`key._id == 42`)
	require.NoError(t, err)

	accepted, err := filter.Evaluate("delete", "orders", map[string]any{"_id": 42}, nil)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func Test_Filter_Non_Boolean_Result(t *testing.T) {
	filter, err := NewEventFilter(`document.status`)
	require.NoError(t, err)

	_, err = filter.Evaluate("insert", "orders", nil, map[string]any{"status": "paid"})
	assert.ErrorContains(t, err, "isn't a boolean")
}

func Test_Filter_Compile_Error(t *testing.T) {
	_, err := NewEventFilter(`document.status ==`)
	assert.ErrorContains(t, err, "failed to compile filter")
}
