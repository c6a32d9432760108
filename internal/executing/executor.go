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

package executing

import (
	"context"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/statements"
	"github.com/noctarius/mongo-sql-replicator/internal/stats"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sqlstore"
	lop "github.com/samber/lo/parallel"
)

// Executor runs statement trees against the destination database.
// Failures of single statements are logged and never abort the
// caller.
type Executor struct {
	logger   *logging.Logger
	client   sqlstore.Client
	reporter *stats.Reporter
	encoder  *encoding.JsonEncoder
	batch    bool
}

func NewExecutor(
	c *config.Config, client sqlstore.Client, statsService *stats.Service,
) (*Executor, error) {

	reporter := stats.NewNoopReporter()
	if statsService != nil {
		reporter = statsService.NewReporter("executor")
	}

	return newExecutor(
		client,
		reporter,
		encoding.NewJsonEncoderWithConfig(c),
		config.GetOrDefault(c, config.PropertyExecutorBatch, true),
	)
}

func newExecutor(
	client sqlstore.Client, reporter *stats.Reporter, encoder *encoding.JsonEncoder, batch bool,
) (*Executor, error) {

	logger, err := logging.NewLogger("Executor")
	if err != nil {
		return nil, err
	}

	return &Executor{
		logger:   logger,
		client:   client,
		reporter: reporter,
		encoder:  encoder,
		batch:    batch,
	}, nil
}

// BatchMode reports whether ExecuteMany should group statements by
// their SQL template.
func (e *Executor) BatchMode() bool {
	return e.batch
}

// Execute runs the statement followed by its sub statements in
// declaration order and returns the rows affected by the top-level
// statement. Carrier statements only run their sub statements.
func (e *Executor) Execute(
	ctx context.Context, statement *statements.Statement,
) (int64, error) {

	e.logStatement(statement)

	rowsAffected := int64(0)
	if !statement.IsCarrier() {
		start := time.Now()
		affected, err := e.client.Exec(ctx, statement.Text, statement.Values)
		e.reporter.Observe("statement.duration", time.Since(start))
		if err != nil {
			e.reporter.Incr("statement.failures")
			return 0, errors.Wrap(err, 0)
		}
		rowsAffected = affected
		e.reporter.Add("rows.affected", affected)
	}
	statement.Result = &statements.Result{RowsAffected: rowsAffected}

	for _, subStatement := range statement.SubStatements {
		if _, err := e.Execute(ctx, subStatement); err != nil {
			return rowsAffected, err
		}
	}

	e.logger.Debugf("Statement affected %d rows", rowsAffected)
	return rowsAffected, nil
}

// Insert, Upsert, Update and Delete log failures instead of returning
// them. The result reports whether the change was applied.
func (e *Executor) Insert(
	ctx context.Context, param statements.Param,
) bool {

	if _, err := e.Execute(ctx, statements.Insert(param)); err != nil {
		e.logger.Errorf("Insert into %s failed: %s", param.Destination.Table, err)
		return false
	}
	return true
}

func (e *Executor) Upsert(
	ctx context.Context, param statements.Param,
) bool {

	if _, err := e.Execute(ctx, statements.Upsert(param)); err != nil {
		e.logger.Errorf("Upsert into %s failed: %s", param.Destination.Table, err)
		return false
	}
	return true
}

// Update applies the update and falls back to an insert when no row
// matched, repairing rows missing in the destination.
func (e *Executor) Update(
	ctx context.Context, param statements.Param,
) bool {

	statement := statements.Update(param)
	rowsAffected, err := e.Execute(ctx, statement)
	if err != nil {
		e.logger.Errorf("Update of %s failed: %s", param.Destination.Table, err)
		return false
	}

	switch {
	case rowsAffected == 0:
		e.logger.Warnf(
			"Update statement affected no rows, inserting the missing row: %s", e.marshal(statement),
		)
		e.reporter.Incr("update.repaired")
		return e.Insert(ctx, param)
	case rowsAffected > 1:
		e.logger.Warnf("Update statement affected %d rows: %s", rowsAffected, e.marshal(statement))
	}
	return true
}

func (e *Executor) Delete(
	ctx context.Context, param statements.Param,
) bool {

	statement := statements.Delete(param)
	rowsAffected, err := e.Execute(ctx, statement)
	if err != nil {
		e.logger.Errorf("Delete from %s failed: %s", param.Destination.Table, err)
		return false
	}

	// Carriers delete through their sub statements only
	if statement.IsCarrier() {
		return true
	}

	switch {
	case rowsAffected == 0:
		e.logger.Warnf("Delete statement removed no rows: %s", e.marshal(statement))
	case rowsAffected > 1:
		e.logger.Warnf("Delete statement removed %d rows: %s", rowsAffected, e.marshal(statement))
	}
	return true
}

func (e *Executor) DeleteAll(
	ctx context.Context, param statements.Param,
) {

	rowsAffected, err := e.Execute(ctx, statements.DeleteAll(param))
	if err != nil {
		e.logger.Errorf("Cleaning %s failed: %s", param.Destination.Table, err)
		return
	}
	e.logger.Infof("Removed %d rows from %s", rowsAffected, param.Destination.Table)
}

// ExecuteMany runs all statement trees and returns the summed number
// of affected rows. In batch mode statements sharing the same SQL text
// are sent as one batch per template, the templates concurrently.
// Otherwise statements run one after another.
func (e *Executor) ExecuteMany(
	ctx context.Context, statementList []*statements.Statement, batch bool,
) int64 {

	if !batch {
		total := int64(0)
		for _, statement := range statementList {
			rowsAffected, err := e.Execute(ctx, statement)
			if err != nil {
				e.logger.Errorf("Statement failed: %s", err)
			}
			total += rowsAffected
		}
		return total
	}

	results := lop.Map(groupByTemplate(statementList), func(group *template, _ int) int64 {
		e.logger.Infof("Executing batch of %d rows: %s", len(group.rows), group.text)
		e.reporter.Observe("batch.size", len(group.rows))

		rowsAffected, err := e.client.ExecBatch(ctx, group.text, group.rows)
		if err != nil {
			e.reporter.Incr("batch.failures")
			e.logger.Errorf("Batch failed: %s => %s", group.text, err)
		}
		e.reporter.Add("rows.affected", rowsAffected)
		return rowsAffected
	})

	total := int64(0)
	for _, rowsAffected := range results {
		total += rowsAffected
	}
	return total
}

func (e *Executor) logStatement(
	statement *statements.Statement,
) {

	if e.logger.Enabled(logging.VerboseLevel) {
		e.logger.Verbosef("Executing %s", e.marshal(statement))
	}
}

func (e *Executor) marshal(
	statement *statements.Statement,
) string {

	data, err := e.encoder.Marshal(statement)
	if err != nil {
		return statement.Text
	}
	return string(data)
}

type template struct {
	text string
	rows [][]any
}

// groupByTemplate collects the values of all statements and their
// sub statements per SQL text. Templates are ordered by their first
// appearance, carriers are skipped.
func groupByTemplate(
	statementList []*statements.Statement,
) []*template {

	templates := make([]*template, 0)
	index := make(map[string]*template)
	for _, statement := range statementList {
		for _, s := range statement.Flatten() {
			if s.IsCarrier() {
				continue
			}
			t, ok := index[s.Text]
			if !ok {
				t = &template{text: s.Text}
				index[s.Text] = t
				templates = append(templates, t)
			}
			t.rows = append(t.rows, s.Values)
		}
	}
	return templates
}
