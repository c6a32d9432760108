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

package mongodb

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/documentstore"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type store struct {
	logger   *logging.Logger
	client   *mongo.Client
	database *mongo.Database
}

// NewStore connects to the configured MongoDB deployment. Change
// streams require a replica set or sharded cluster.
func NewStore(
	c *config.Config,
) (documentstore.Store, error) {

	logger, err := logging.NewLogger("MongoDB")
	if err != nil {
		return nil, err
	}

	uri := config.GetOrDefault(c, config.PropertyMongodbUri, "mongodb://localhost:27017")
	databaseName := config.GetOrDefault(c, config.PropertyMongodbDatabase, "")
	if databaseName == "" {
		return nil, errors.Errorf("mongodb.database is required")
	}

	timeout := config.GetOrDefault(c, config.PropertyMongodbConnectTimeout, 10*time.Second)
	maxRetries := config.GetOrDefault(c, config.PropertyMongodbConnectMaxRetries, uint64(5))

	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName(version.BinName).
		SetConnectTimeout(timeout)

	var client *mongo.Client
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	err = backoff.RetryNotify(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cl, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			return err
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			_ = cl.Disconnect(context.Background())
			return err
		}
		client = cl
		return nil
	}, policy, func(err error, next time.Duration) {
		logger.Warnf("Failed to connect to MongoDB, retrying in %s: %s", next, err)
	})
	if err != nil {
		return nil, errors.Errorf("failed to connect to MongoDB: %s", err)
	}

	logger.Infof("Connected to MongoDB database %s", databaseName)
	return &store{
		logger:   logger,
		client:   client,
		database: client.Database(databaseName),
	}, nil
}

func (s *store) Find(
	ctx context.Context, collection string, filter map[string]any,
) ([]map[string]any, error) {

	if filter == nil {
		filter = map[string]any{}
	}

	cursor, err := s.database.Collection(collection).Find(ctx, bson.M(filter))
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	defer cursor.Close(ctx)

	documents := make([]map[string]any, 0)
	for cursor.Next(ctx) {
		var document bson.M
		if err := cursor.Decode(&document); err != nil {
			return nil, errors.Wrap(err, 0)
		}
		documents = append(documents, normalizeDocument(document))
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return documents, nil
}

func (s *store) Watch(
	ctx context.Context, collection string, pipeline []any, resumeAfter changeevent.Token,
) (documentstore.ChangeStream, error) {

	streamOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	if !resumeAfter.IsEmpty() {
		token, err := decodeToken(resumeAfter)
		if err != nil {
			return nil, err
		}
		streamOptions.SetResumeAfter(token)
	}

	if pipeline == nil {
		pipeline = []any{}
	}

	stream, err := s.database.Collection(collection).Watch(ctx, normalizePipeline(pipeline), streamOptions)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return &changeStream{stream: stream}, nil
}

func (s *store) Close(
	ctx context.Context,
) error {

	return s.client.Disconnect(ctx)
}

type changeStream struct {
	stream *mongo.ChangeStream
}

func (c *changeStream) Next(
	ctx context.Context,
) bool {

	return c.stream.Next(ctx)
}

func (c *changeStream) Event() (*changeevent.Event, error) {
	var raw rawEvent
	if err := c.stream.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return raw.toEvent()
}

func (c *changeStream) Err() error {
	return c.stream.Err()
}

func (c *changeStream) Close(
	ctx context.Context,
) error {

	return c.stream.Close(ctx)
}
