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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sqlstore"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
)

const connectTimeout = 10 * time.Second

type client struct {
	logger *logging.Logger
	pool   *pgxpool.Pool
}

// NewClient connects the pool to the configured destination database,
// retrying with an exponential backoff until the server answers a
// ping.
func NewClient(
	c *config.Config,
) (sqlstore.Client, error) {

	logger, err := logging.NewLogger("PostgreSQL")
	if err != nil {
		return nil, err
	}

	connection := config.GetOrDefault(c, config.PropertyPostgresqlConnection, "host=localhost user=postgres")
	poolConfig, err := pgxpool.ParseConfig(connection)
	if err != nil {
		return nil, errors.Errorf("invalid postgresql connection string: %s", err)
	}
	if password := config.GetOrDefault(c, config.PropertyPostgresqlPassword, ""); password != "" {
		poolConfig.ConnConfig.Password = password
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = version.BinName

	maxRetries := config.GetOrDefault(c, config.PropertyPostgresqlConnectMaxRetries, uint64(5))
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)

	var pool *pgxpool.Pool
	err = backoff.RetryNotify(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}, policy, func(err error, next time.Duration) {
		logger.Warnf("Failed to connect to PostgreSQL, retrying in %s: %s", next, err)
	})
	if err != nil {
		return nil, wrapError("", err)
	}

	logger.Infof("Connected to PostgreSQL at %s:%d", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)
	return &client{
		logger: logger,
		pool:   pool,
	}, nil
}

func (c *client) Exec(
	ctx context.Context, sql string, values []any,
) (int64, error) {

	tag, err := c.pool.Exec(ctx, sql, values...)
	if err != nil {
		return 0, wrapError(sql, err)
	}
	return tag.RowsAffected(), nil
}

// ExecBatch queues one execution per row into a single pgx batch,
// which the server runs inside one implicit transaction. A failing row
// rolls back the whole batch, so no rows are reported affected.
func (c *client) ExecBatch(
	ctx context.Context, sql string, rows [][]any,
) (int64, error) {

	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(sql, row...)
	}

	results := c.pool.SendBatch(ctx, batch)
	rowsAffected := int64(0)
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, wrapError(sql, err)
		}
		rowsAffected += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, wrapError(sql, err)
	}
	return rowsAffected, nil
}

func (c *client) Close() error {
	c.pool.Close()
	return nil
}

func wrapError(
	sql string, err error,
) error {

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlstore.NewStatementError(classify(pgErr.Code), pgErr.Code, sql, err)
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return sqlstore.NewStatementError(sqlstore.ConnectionFailure, "", sql, err)
	}
	return sqlstore.NewStatementError(sqlstore.UnknownError, "", sql, err)
}

func classify(
	code string,
) sqlstore.ErrorClass {

	switch {
	case code == pgerrcode.UniqueViolation:
		return sqlstore.UniqueViolation
	case code == pgerrcode.ForeignKeyViolation:
		return sqlstore.ForeignKeyViolation
	case code == pgerrcode.NotNullViolation:
		return sqlstore.NotNullViolation
	case code == pgerrcode.UndefinedTable:
		return sqlstore.UndefinedTable
	case code == pgerrcode.UndefinedColumn:
		return sqlstore.UndefinedColumn
	case pgerrcode.IsConnectionException(code):
		return sqlstore.ConnectionFailure
	default:
		return sqlstore.UnknownError
	}
}
