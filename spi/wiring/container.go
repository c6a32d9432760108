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

package wiring

import (
	"reflect"

	"github.com/go-errors/errors"
	"github.com/samber/do"
)

type Container interface {
	// Service resolves the service matching the type service points to
	// and stores it there.
	Service(service any) error
	Shutdown() error
}

// NewContainer registers all modules first and runs their
// invocations and eager constructions afterwards, so bindings may
// reference services of modules listed later.
func NewContainer(
	modules ...Module,
) (Container, error) {

	injector := do.New()
	for _, m := range modules {
		m.register(injector)
	}
	for _, m := range modules {
		if err := m.initialize(injector); err != nil {
			return nil, err
		}
	}
	return &container{injector: injector}, nil
}

type container struct {
	injector *do.Injector
}

func (c *container) Service(
	service any,
) error {

	target := reflect.ValueOf(service)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return errors.Errorf("service target must be a non-nil pointer, got %T", service)
	}
	target = target.Elem()

	instance, err := do.InvokeNamed[any](c.injector, target.Type().String())
	if err != nil {
		return err
	}
	if instance == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	target.Set(reflect.ValueOf(instance))
	return nil
}

func (c *container) Shutdown() error {
	return c.injector.Shutdown()
}
