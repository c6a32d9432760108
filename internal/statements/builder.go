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

package statements

import (
	"fmt"
	"strings"

	"github.com/noctarius/mongo-sql-replicator/spi/pathexpr"
	"github.com/samber/lo"
)

const parentReference = "../"

// Insert builds an INSERT of keys and columns.
func Insert(param Param) *Statement {
	source, destination := param.Source, param.Destination

	values := resolveValues(param.Context, concat(source.KeyPaths(), source.ColumnPaths()))
	columns := concat(destination.Keys, destination.Columns)

	return &Statement{
		Text: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			destination.Table, strings.Join(columns, ", "), placeholders(0, len(values)),
		),
		Values:        values,
		SubStatements: subStatements(param, Insert, false),
	}
}

// Update builds an UPDATE of the columns matched by the keys. Without
// any columns to set it degrades to an Upsert.
func Update(param Param) *Statement {
	source, destination := param.Source, param.Destination
	if len(destination.Columns) == 0 {
		return Upsert(param)
	}

	values := resolveValues(param.Context, concat(source.ColumnPaths(), source.KeyPaths()))

	return &Statement{
		Text: fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			destination.Table,
			assignments(destination.Columns, 0, ", "),
			assignments(destination.Keys, len(destination.Columns), " AND "),
		),
		Values:        values,
		SubStatements: subStatements(param, Update, false),
	}
}

// Upsert builds a MERGE which updates the row matched by the keys or
// inserts it. The insert branch binds its own copy of the values.
func Upsert(param Param) *Statement {
	source, destination := param.Source, param.Destination

	values := resolveValues(param.Context, concat(source.KeyPaths(), source.ColumnPaths()))
	columns := concat(destination.Keys, destination.Columns)
	numOfValues := len(values)

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("MERGE INTO %s USING (SELECT 1) AS dual ON (%s) ",
		destination.Table, assignments(destination.Keys, 0, " AND "),
	))
	if len(destination.Columns) > 0 {
		builder.WriteString(fmt.Sprintf("WHEN MATCHED THEN UPDATE SET %s ",
			assignments(destination.Columns, len(destination.Keys), ", "),
		))
	}
	builder.WriteString(fmt.Sprintf("WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		strings.Join(columns, ", "), placeholders(numOfValues, numOfValues),
	))

	return &Statement{
		Text:          builder.String(),
		Values:        concat(values, values),
		SubStatements: subStatements(param, Upsert, false),
	}
}

// Delete builds a DELETE by keys. Nested tables only keep the keys
// referencing the parent document, a nested table without any such
// key yields a carrier statement.
func Delete(param Param) *Statement {
	source, destination := param.Source, param.Destination

	indices := make([]int, 0, len(source.Keys))
	for i, key := range source.Keys {
		if param.Context.IsRoot() || strings.HasPrefix(key, parentReference) {
			indices = append(indices, i)
		}
	}

	statement := &Statement{
		SubStatements: subStatements(param, Delete, true),
	}
	if len(indices) == 0 {
		return statement
	}

	keyPaths := source.KeyPaths()
	keys := lo.Map(indices, func(i int, _ int) string {
		return destination.Keys[i]
	})
	paths := lo.Map(indices, func(i int, _ int) pathexpr.Expression {
		return keyPaths[i]
	})

	statement.Text = fmt.Sprintf("DELETE FROM %s WHERE %s",
		destination.Table, assignments(keys, 0, " AND "),
	)
	statement.Values = resolveValues(param.Context, paths)
	return statement
}

// DeleteAll builds an unconditional DELETE of the destination table.
func DeleteAll(param Param) *Statement {
	return &Statement{
		Text:   fmt.Sprintf("DELETE FROM %s", param.Destination.Table),
		Values: []any{},
	}
}

func subStatements(param Param, builder Builder, allowEmpty bool) []*Statement {
	source, destination := param.Source, param.Destination

	statements := make([]*Statement, 0)
	for i, embeddedSource := range source.EmbeddedColumns {
		if i >= len(destination.EmbeddedColumns) {
			break
		}
		embeddedDestination := destination.EmbeddedColumns[i]

		data := pathexpr.Resolve(param.Context, embeddedSource.TablePath())
		if data == nil && !allowEmpty {
			continue
		}

		items, isArray := data.([]any)
		if !isArray {
			items = []any{data}
		}

		for _, item := range items {
			statements = append(statements, builder(Param{
				Source:      embeddedSource,
				Destination: embeddedDestination,
				Context:     pathexpr.NewContext(item, param.Context),
			}))
		}
	}
	return statements
}

func assignments(columns []string, offset int, separator string) string {
	return strings.Join(lo.Map(columns, func(column string, i int) string {
		return fmt.Sprintf("%s = $%d", column, offset+i+1)
	}), separator)
}

func placeholders(offset, count int) string {
	return strings.Join(lo.Times(count, func(i int) string {
		return fmt.Sprintf("$%d", offset+i+1)
	}), ", ")
}

func concat[T any](first, second []T) []T {
	result := make([]T, 0, len(first)+len(second))
	result = append(result, first...)
	return append(result, second...)
}
