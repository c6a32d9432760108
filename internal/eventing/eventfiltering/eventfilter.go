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

package eventfiltering

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-errors/errors"
)

// OperationRead is the operation reported for documents of the bulk
// synchronization.
const OperationRead = "read"

// EventFilter decides whether a document change is applied.
type EventFilter interface {
	Evaluate(operation, collection string, key, document map[string]any) (bool, error)
}

type eventFilterFunc func(operation, collection string, key, document map[string]any) (bool, error)

func (eff eventFilterFunc) Evaluate(
	operation, collection string, key, document map[string]any,
) (bool, error) {

	return eff(operation, collection, key, document)
}

var acceptAllFilter eventFilterFunc = func(_, _ string, _, _ map[string]any) (bool, error) {
	return true, nil
}

// NewEventFilter compiles the condition. The expression sees op,
// collection, key and document and has to yield a boolean. An empty
// condition accepts everything.
func NewEventFilter(
	condition string,
) (EventFilter, error) {

	if strings.TrimSpace(condition) == "" {
		return acceptAllFilter, nil
	}

	program, err := expr.Compile(condition)
	if err != nil {
		return nil, errors.Errorf("failed to compile filter «%s»: %s", condition, err)
	}

	return &eventFilter{
		condition: condition,
		program:   program,
	}, nil
}

type eventFilter struct {
	condition string
	program   *vm.Program
}

func (f *eventFilter) Evaluate(
	operation, collection string, key, document map[string]any,
) (bool, error) {

	env := map[string]any{
		"op":         operation,
		"collection": collection,
		"key":        key,
		"document":   document,
	}

	result, err := vm.Run(f.program, env)
	if err != nil {
		return false, errors.Wrap(err, 0)
	}

	r, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("result of filter «%s» isn't a boolean", f.condition)
	}
	return r, nil
}
