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
	"github.com/noctarius/mongo-sql-replicator/spi/pathexpr"
)

// TableDescriptor describes one side of a table mapping. On the source
// side the table, keys and columns are path expressions into the
// document, on the destination side they are plain SQL identifiers.
type TableDescriptor struct {
	Table           string             `mapstructure:"table"`
	Keys            []string           `mapstructure:"keys"`
	Columns         []string           `mapstructure:"columns"`
	EmbeddedColumns []*TableDescriptor `mapstructure:"embeddedColumns"`
	Query           map[string]any     `mapstructure:"query"`
	Pipeline        []any              `mapstructure:"pipeline"`

	tablePath   pathexpr.Expression
	keyPaths    []pathexpr.Expression
	columnPaths []pathexpr.Expression
}

// TablePath returns the parsed table expression, used to locate the
// data of an embedded table relative to its parent document.
func (t *TableDescriptor) TablePath() pathexpr.Expression {
	if t.tablePath != nil {
		return t.tablePath
	}
	return pathexpr.MustParse(t.Table)
}

func (t *TableDescriptor) KeyPaths() []pathexpr.Expression {
	if t.keyPaths != nil {
		return t.keyPaths
	}
	return mustParseAll(t.Keys)
}

func (t *TableDescriptor) ColumnPaths() []pathexpr.Expression {
	if t.columnPaths != nil {
		return t.columnPaths
	}
	return mustParseAll(t.Columns)
}

func (t *TableDescriptor) parsePaths() error {
	tablePath, err := pathexpr.Parse(t.Table)
	if err != nil {
		return err
	}
	keyPaths, err := parseAll(t.Keys)
	if err != nil {
		return err
	}
	columnPaths, err := parseAll(t.Columns)
	if err != nil {
		return err
	}

	t.tablePath = tablePath
	t.keyPaths = keyPaths
	t.columnPaths = columnPaths

	for _, embedded := range t.EmbeddedColumns {
		if err := embedded.parsePaths(); err != nil {
			return err
		}
	}
	return nil
}

// MappingPair ties a source descriptor to its destination. Options
// carries the consumer specific settings of the pair.
type MappingPair[O any] struct {
	Source      *TableDescriptor
	Destination *TableDescriptor
	Options     O
}

func parseAll(paths []string) ([]pathexpr.Expression, error) {
	expressions := make([]pathexpr.Expression, 0, len(paths))
	for _, path := range paths {
		expression, err := pathexpr.Parse(path)
		if err != nil {
			return nil, err
		}
		expressions = append(expressions, expression)
	}
	return expressions, nil
}

func mustParseAll(paths []string) []pathexpr.Expression {
	expressions, err := parseAll(paths)
	if err != nil {
		panic(err)
	}
	return expressions
}
