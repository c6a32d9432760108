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

package documentstore

import (
	"context"

	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
)

// Store is the source of documents and their changes.
type Store interface {
	// Find returns all documents of the collection matching filter.
	// An empty filter matches every document.
	Find(ctx context.Context, collection string, filter map[string]any) ([]map[string]any, error)
	// Watch opens a change stream on the collection. The optional
	// pipeline restricts the delivered events, a non-empty resumeAfter
	// token continues strictly after that event.
	Watch(ctx context.Context, collection string, pipeline []any, resumeAfter changeevent.Token) (ChangeStream, error)
	Close(ctx context.Context) error
}

// ChangeStream delivers events of a single collection in order.
type ChangeStream interface {
	// Next blocks until the next event is available. It returns false
	// once the stream failed or was closed.
	Next(ctx context.Context) bool
	Event() (*changeevent.Event, error)
	Err() error
	Close(ctx context.Context) error
}
