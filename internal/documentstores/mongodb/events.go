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
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rawNamespace struct {
	Database   string `bson:"db"`
	Collection string `bson:"coll"`
}

type rawEvent struct {
	ID            bson.Raw            `bson:"_id"`
	OperationType string              `bson:"operationType"`
	Namespace     rawNamespace        `bson:"ns"`
	DocumentKey   bson.M              `bson:"documentKey"`
	FullDocument  bson.M              `bson:"fullDocument"`
	ClusterTime   primitive.Timestamp `bson:"clusterTime"`
}

func (r *rawEvent) toEvent() (*changeevent.Event, error) {
	token, err := encodeToken(r.ID)
	if err != nil {
		return nil, err
	}

	event := &changeevent.Event{
		ID:               token,
		OperationType:    changeevent.ParseOperationType(r.OperationType),
		RawOperationType: r.OperationType,
		Namespace: changeevent.Namespace{
			Database:   r.Namespace.Database,
			Collection: r.Namespace.Collection,
		},
		DocumentKey:  normalizeDocument(r.DocumentKey),
		FullDocument: normalizeDocument(r.FullDocument),
	}
	if r.ClusterTime.T > 0 {
		event.ClusterTime = time.Unix(int64(r.ClusterTime.T), 0).UTC()
	}
	return event, nil
}

// encodeToken renders the resume token as canonical extended JSON,
// which survives the round trip through the checkpoint storages.
func encodeToken(
	id bson.Raw,
) (changeevent.Token, error) {

	if len(id) == 0 {
		return "", nil
	}
	data, err := bson.MarshalExtJSON(id, true, false)
	if err != nil {
		return "", errors.Errorf("failed to encode resume token: %s", err)
	}
	return changeevent.Token(data), nil
}

func decodeToken(
	token changeevent.Token,
) (bson.M, error) {

	var decoded bson.M
	if err := bson.UnmarshalExtJSON([]byte(token), true, &decoded); err != nil {
		return nil, errors.Errorf("invalid resume token '%s': %s", token, err)
	}
	return decoded, nil
}

// normalizeDocument converts the driver types into plain Go values, so
// path resolution and statement values only see maps, slices,
// strings, numbers, booleans and times.
func normalizeDocument(
	document bson.M,
) map[string]any {

	if document == nil {
		return nil
	}
	return normalize(document).(map[string]any)
}

func normalize(
	value any,
) any {

	switch v := value.(type) {
	case primitive.M:
		return normalizeMap(v)
	case map[string]any:
		return normalizeMap(v)
	case primitive.D:
		normalized := make(map[string]any, len(v))
		for _, element := range v {
			normalized[element.Key] = normalize(element.Value)
		}
		return normalized
	case primitive.A:
		return normalizeSlice(v)
	case []any:
		return normalizeSlice(v)
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	case primitive.Decimal128:
		return v.String()
	case primitive.Binary:
		return v.Data
	case primitive.Regex:
		return v.Pattern
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func normalizeMap(
	m map[string]any,
) map[string]any {

	normalized := make(map[string]any, len(m))
	for key, value := range m {
		normalized[key] = normalize(value)
	}
	return normalized
}

func normalizeSlice(
	s []any,
) []any {

	normalized := make([]any, len(s))
	for i, value := range s {
		normalized[i] = normalize(value)
	}
	return normalized
}

// normalizePipeline turns configured pipeline stages into documents
// the driver accepts.
func normalizePipeline(
	pipeline []any,
) []any {

	stages := make([]any, 0, len(pipeline))
	for _, stage := range pipeline {
		if m, ok := stage.(map[string]any); ok {
			stages = append(stages, bson.M(m))
			continue
		}
		stages = append(stages, stage)
	}
	return stages
}
