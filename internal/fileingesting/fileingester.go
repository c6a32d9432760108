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

package fileingesting

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/executing"
	"github.com/noctarius/mongo-sql-replicator/internal/statements"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/mapping"
	"github.com/noctarius/mongo-sql-replicator/spi/pathexpr"
	lop "github.com/samber/lo/parallel"
)

// Ingester loads delimited files into their destination tables. The
// file of a mapping is named after its source table.
type Ingester struct {
	logger   *logging.Logger
	executor *executing.Executor
	path     string
	pairs    []*mapping.MappingPair[config.FileOptions]
}

func NewIngester(
	c *config.Config, executor *executing.Executor,
) (*Ingester, error) {

	pairs, err := mapping.Compile(c.FileIngest.Mappings, c.FileDefaults())
	if err != nil {
		return nil, errors.Errorf("invalid file ingestion mapping: %s", err)
	}
	return newIngester(executor, config.GetOrDefault(c, config.PropertyFileIngestPath, "."), pairs)
}

func newIngester(
	executor *executing.Executor, path string, pairs []*mapping.MappingPair[config.FileOptions],
) (*Ingester, error) {

	logger, err := logging.NewLogger("FileIngester")
	if err != nil {
		return nil, err
	}

	return &Ingester{
		logger:   logger,
		executor: executor,
		path:     path,
		pairs:    pairs,
	}, nil
}

// Start ingests all mappings concurrently and returns when all files
// are processed. Failures are logged per mapping.
func (i *Ingester) Start(
	ctx context.Context,
) {

	if len(i.pairs) == 0 {
		return
	}

	i.logger.Infof("Starting file ingestion of %d mappings", len(i.pairs))
	lop.ForEach(i.pairs, func(pair *mapping.MappingPair[config.FileOptions], _ int) {
		if err := i.ingest(ctx, pair); err != nil {
			i.logger.Errorf("%s->%s: ingestion failed: %s", pair.Source.Table, pair.Destination.Table, err)
		}
	})
}

func (i *Ingester) ingest(
	ctx context.Context, pair *mapping.MappingPair[config.FileOptions],
) error {

	source, destination := pair.Source, pair.Destination

	filePath := filepath.Join(i.path, source.Table)
	if !supporting.FileExists(filePath) {
		i.logger.Warnf("File does not exist: %s", filePath)
		return nil
	}

	if pair.Options.CleanUpBeforeSync {
		i.logger.Infof("%s->%s: removing existing rows of %s", source.Table, destination.Table, destination.Table)
		i.executor.DeleteAll(ctx, statements.Param{
			Source:      source,
			Destination: destination,
			Context:     pathexpr.NewContext(nil, nil),
		})
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	defer file.Close()

	rows, err := readRows(file, pair.Options)
	if err != nil {
		return err
	}

	statementList := make([]*statements.Statement, 0, len(rows))
	for _, row := range rows {
		statementList = append(statementList, statements.Upsert(statements.Param{
			Source:      source,
			Destination: destination,
			Context:     pathexpr.NewContext(row, nil),
		}))
	}

	i.logger.Infof("%s->%s: upserting %d rows", source.Table, destination.Table, len(statementList))
	rowsAffected := i.executor.ExecuteMany(ctx, statementList, true)
	i.logger.Infof("%s->%s: %d rows affected", source.Table, destination.Table, rowsAffected)
	return nil
}

// readRows parses the records into objects keyed by the headers.
// Without configured headers the first record (after the skipped
// lines) is the header row. Missing trailing fields are absent from
// the object.
func readRows(
	reader io.Reader, options config.FileOptions,
) ([]map[string]any, error) {

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	if options.Separator != "" {
		separator, size := utf8.DecodeRuneInString(options.Separator)
		if size != len(options.Separator) {
			return nil, errors.Errorf("separator must be a single character: %s", options.Separator)
		}
		csvReader.Comma = separator
	}

	for skipped := 0; skipped < options.SkipLines; skipped++ {
		if _, err := csvReader.Read(); err != nil {
			if err == io.EOF {
				return []map[string]any{}, nil
			}
			return nil, errors.Wrap(err, 0)
		}
	}

	headers := options.Headers
	if len(headers) == 0 {
		record, err := csvReader.Read()
		if err == io.EOF {
			return []map[string]any{}, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, 0)
		}
		headers = record
	}

	rows := make([]map[string]any, 0)
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, 0)
		}

		row := make(map[string]any, len(headers))
		for column, header := range headers {
			if column < len(record) {
				row[header] = record[column]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
