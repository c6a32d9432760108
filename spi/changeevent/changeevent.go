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

package changeevent

import (
	"time"
)

type OperationType int

const (
	Unknown OperationType = iota
	Insert
	Update
	Replace
	Delete
	Invalidate
)

var operationTypeNames = map[OperationType]string{
	Unknown:    "unknown",
	Insert:     "insert",
	Update:     "update",
	Replace:    "replace",
	Delete:     "delete",
	Invalidate: "invalidate",
}

func (o OperationType) String() string {
	if name, ok := operationTypeNames[o]; ok {
		return name
	}
	return operationTypeNames[Unknown]
}

// ParseOperationType maps the operation name of a change stream event
// to its OperationType. Names without dedicated handling map to Unknown.
func ParseOperationType(name string) OperationType {
	for operationType, operationName := range operationTypeNames {
		if operationName == name {
			return operationType
		}
	}
	return Unknown
}

// Token is the opaque resume position of a change stream event.
type Token string

func (t Token) IsEmpty() bool {
	return t == ""
}

type Namespace struct {
	Database   string
	Collection string
}

func (n Namespace) String() string {
	return n.Database + "." + n.Collection
}

// Event is a single change notification of the document store.
type Event struct {
	ID            Token
	OperationType OperationType
	// RawOperationType is the name as reported by the store, kept for
	// operation types that map to Unknown.
	RawOperationType string
	Namespace        Namespace
	DocumentKey      map[string]any
	FullDocument     map[string]any
	ClusterTime      time.Time
}
