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

package postgresql

import (
	"context"
	"testing"

	"github.com/go-errors/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/noctarius/mongo-sql-replicator/spi/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Classify(t *testing.T) {
	tests := []struct {
		code  string
		class sqlstore.ErrorClass
	}{
		{pgerrcode.UniqueViolation, sqlstore.UniqueViolation},
		{pgerrcode.ForeignKeyViolation, sqlstore.ForeignKeyViolation},
		{pgerrcode.NotNullViolation, sqlstore.NotNullViolation},
		{pgerrcode.UndefinedTable, sqlstore.UndefinedTable},
		{pgerrcode.UndefinedColumn, sqlstore.UndefinedColumn},
		{pgerrcode.ConnectionFailure, sqlstore.ConnectionFailure},
		{pgerrcode.DivisionByZero, sqlstore.UnknownError},
	}
	for _, test := range tests {
		t.Run(test.code, func(t *testing.T) {
			assert.Equal(t, test.class, classify(test.code))
		})
	}
}

func Test_Wrap_Pg_Error(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: "duplicate key"}
	err := wrapError("INSERT INTO USER (ID) VALUES ($1)", errors.Wrap(pgErr, 0))

	var statementError *sqlstore.StatementError
	require.True(t, errors.As(err, &statementError))
	assert.Equal(t, sqlstore.UniqueViolation, statementError.Class)
	assert.Equal(t, pgerrcode.UniqueViolation, statementError.Code)
	assert.Equal(t, "INSERT INTO USER (ID) VALUES ($1)", statementError.SQL)
	assert.ErrorIs(t, err, pgErr)
	assert.Contains(t, err.Error(), "unique violation (23505)")
}

func Test_Wrap_Other_Error(t *testing.T) {
	err := wrapError("SELECT 1", context.Canceled)

	var statementError *sqlstore.StatementError
	require.True(t, errors.As(err, &statementError))
	assert.Equal(t, sqlstore.UnknownError, statementError.Class)
	assert.ErrorIs(t, err, context.Canceled)
}
