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
	"github.com/noctarius/mongo-sql-replicator/spi/mapping"
	"github.com/noctarius/mongo-sql-replicator/spi/pathexpr"
)

// Statement is a parameterized SQL statement with the statements of
// its embedded tables. A statement without text is a carrier, only its
// sub statements are executed.
type Statement struct {
	Text          string       `json:"sql"`
	Values        []any        `json:"values"`
	SubStatements []*Statement `json:"subStatements,omitempty"`
	Result        *Result      `json:"result,omitempty"`
}

type Result struct {
	RowsAffected int64 `json:"rowsAffected"`
}

// IsCarrier returns true if the statement has no SQL of its own.
func (s *Statement) IsCarrier() bool {
	return s.Text == ""
}

// Flatten returns the statement and all of its sub statements in
// depth-first declaration order.
func (s *Statement) Flatten() []*Statement {
	flattened := []*Statement{s}
	for _, subStatement := range s.SubStatements {
		flattened = append(flattened, subStatement.Flatten()...)
	}
	return flattened
}

// Param is the input of all statement builders.
type Param struct {
	Source      *mapping.TableDescriptor
	Destination *mapping.TableDescriptor
	Context     *pathexpr.Context
}

// Builder builds a Statement tree for a Param.
type Builder func(param Param) *Statement
