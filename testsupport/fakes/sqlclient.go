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

package fakes

import (
	"context"
	"strings"
	"sync"

	"github.com/go-errors/errors"
)

// Exec is a single recorded statement execution.
type Exec struct {
	SQL    string
	Values []any
}

// Batch is a single recorded batch execution.
type Batch struct {
	SQL  string
	Rows [][]any
}

// SqlClient records all statements and reports one affected row per
// statement or batch row.
type SqlClient struct {
	// Failing lets every statement or batch fail whose SQL starts with
	// the prefix. Failed calls are recorded as well.
	Failing string
	// RowsAffected overrides the affected rows of single statements.
	RowsAffected func(sql string) int64

	mutex   sync.Mutex
	execs   []Exec
	batches []Batch
}

func (s *SqlClient) Exec(
	_ context.Context, sql string, values []any,
) (int64, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.execs = append(s.execs, Exec{SQL: sql, Values: values})
	if s.fails(sql) {
		return 0, errors.Errorf("statement failed")
	}
	if s.RowsAffected != nil {
		return s.RowsAffected(sql), nil
	}
	return 1, nil
}

func (s *SqlClient) ExecBatch(
	_ context.Context, sql string, rows [][]any,
) (int64, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.batches = append(s.batches, Batch{SQL: sql, Rows: rows})
	if s.fails(sql) {
		return 0, errors.Errorf("batch failed")
	}
	return int64(len(rows)), nil
}

func (s *SqlClient) fails(
	sql string,
) bool {

	return s.Failing != "" && strings.HasPrefix(sql, s.Failing)
}

func (s *SqlClient) Close() error {
	return nil
}

func (s *SqlClient) Execs() []Exec {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Exec(nil), s.execs...)
}

func (s *SqlClient) Batches() []Batch {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Batch(nil), s.batches...)
}

// BatchRows returns all rows sent as batches of the given SQL.
func (s *SqlClient) BatchRows(
	sql string,
) [][]any {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	rows := make([][]any, 0)
	for _, batch := range s.batches {
		if batch.SQL == sql {
			rows = append(rows, batch.Rows...)
		}
	}
	return rows
}
