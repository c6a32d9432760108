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

package sqlstore

import (
	"context"
	"fmt"
)

// Client executes parameterized statements against the destination
// database. Placeholders use the $n syntax.
type Client interface {
	// Exec runs a single statement and returns the number of
	// affected rows.
	Exec(ctx context.Context, sql string, values []any) (int64, error)
	// ExecBatch runs the same statement once per value row in a single
	// round trip and returns the summed number of affected rows.
	ExecBatch(ctx context.Context, sql string, rows [][]any) (int64, error)
	Close() error
}

type ErrorClass int

const (
	UnknownError ErrorClass = iota
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	UndefinedTable
	UndefinedColumn
	ConnectionFailure
)

func (e ErrorClass) String() string {
	switch e {
	case UniqueViolation:
		return "unique violation"
	case ForeignKeyViolation:
		return "foreign key violation"
	case NotNullViolation:
		return "not null violation"
	case UndefinedTable:
		return "undefined table"
	case UndefinedColumn:
		return "undefined column"
	case ConnectionFailure:
		return "connection failure"
	default:
		return "error"
	}
}

// StatementError is returned by Client implementations for failed
// statements.
type StatementError struct {
	Class ErrorClass
	Code  string
	SQL   string
	cause error
}

func NewStatementError(
	class ErrorClass, code, sql string, cause error,
) *StatementError {

	return &StatementError{
		Class: class,
		Code:  code,
		SQL:   sql,
		cause: cause,
	}
}

func (s *StatementError) Error() string {
	if s.Code == "" {
		return fmt.Sprintf("%s: %s", s.Class, s.cause)
	}
	return fmt.Sprintf("%s (%s): %s", s.Class, s.Code, s.cause)
}

func (s *StatementError) Unwrap() error {
	return s.cause
}
