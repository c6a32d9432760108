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
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every Property constant must address an existing Config field,
// otherwise GetOrDefault silently falls back to the default.
func Test_Constants_Properties(
	t *testing.T,
) {

	file, err := parser.ParseFile(&token.FileSet{}, "./constants.go", nil, 0)
	require.NoError(t, err)

	numOfProperties := 0
	ast.Inspect(file, func(node ast.Node) bool {
		valueSpec, ok := node.(*ast.ValueSpec)
		if !ok {
			return true
		}

		name := valueSpec.Names[0].Name
		literal, ok := valueSpec.Values[0].(*ast.BasicLit)
		if !ok || literal.Kind != token.STRING {
			return true
		}

		value, err := strconv.Unquote(literal.Value)
		require.NoError(t, err)

		element := reflect.ValueOf(Config{})
		for _, property := range strings.Split(value, ".") {
			e, ok := findProperty(element, property)
			if !ok {
				t.Errorf("Property %s (%s) isn't defined in Config", name, value)
				break
			}
			element = e
		}
		numOfProperties++
		return true
	})

	require.Greater(t, numOfProperties, 0)
}
