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
	"github.com/samber/lo"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// PostConstructable services get PostConstruct called right after
// their constructor returned.
type PostConstructable interface {
	PostConstruct() error
}

type ProvideOption interface {
	apply(binding *binding)
}

type provideOption func(binding *binding)

func (p provideOption) apply(binding *binding) {
	p(binding)
}

// ForceInitialization constructs the service eagerly while the
// container is being built.
func ForceInitialization() ProvideOption {
	return provideOption(func(binding *binding) {
		binding.eager = true
	})
}

// As additionally registers the service under the interface type I,
// which the constructed value must implement.
func As[I any]() ProvideOption {
	alias := reflect.TypeOf((*I)(nil)).Elem()
	return provideOption(func(binding *binding) {
		binding.aliases = append(binding.aliases, alias)
	})
}

type Module interface {
	Provide(constructor any, options ...ProvideOption)
	MayProvide(constructor any, options ...ProvideOption)
	Invoke(call any)
	register(injector *do.Injector)
	initialize(injector *do.Injector) error
}

// DefineModule collects the bindings added by definer under a
// common name.
func DefineModule(
	name string, definer func(module Module),
) Module {

	m := &module{name: name}
	definer(m)
	return m
}

type module struct {
	name     string
	bindings []*binding
}

type binding struct {
	name     string
	output   reflect.Type
	aliases  []reflect.Type
	eager    bool
	provider func(injector *do.Injector) (any, error)
	invoker  func(injector *do.Injector) error
}

func (m *module) Provide(
	constructor any, options ...ProvideOption,
) {

	fn := reflectFunction(constructor)
	t := fn.Type()

	switch {
	case t.NumOut() == 0 || t.NumOut() > 2:
		panic(errors.Errorf("constructor %s must return a value and an optional error", t))
	case t.NumOut() == 2 && t.Out(1) != errorType:
		panic(errors.Errorf("constructor %s returns two values, but the second isn't an error", t))
	}

	b := &binding{
		name:   t.String(),
		output: t.Out(0),
	}
	b.provider = func(injector *do.Injector) (any, error) {
		results, err := call(injector, fn)
		if err != nil {
			return nil, err
		}
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		value := results[0].Interface()
		if p, ok := value.(PostConstructable); ok {
			if err := p.PostConstruct(); err != nil {
				return nil, err
			}
		}
		return value, nil
	}

	for _, option := range options {
		option.apply(b)
	}
	m.bindings = append(m.bindings, b)
}

// MayProvide ignores nil constructors, handy for optional services.
func (m *module) MayProvide(
	constructor any, options ...ProvideOption,
) {

	if constructor == nil || reflect.ValueOf(constructor).IsNil() {
		return
	}
	m.Provide(constructor, options...)
}

// Invoke runs call once all modules are registered. Its parameters
// are resolved from the container, an optional error result aborts
// the container construction.
func (m *module) Invoke(
	callable any,
) {

	fn := reflectFunction(callable)
	t := fn.Type()

	switch {
	case t.NumOut() > 1:
		panic(errors.Errorf("invocation %s can only return an error", t))
	case t.NumOut() == 1 && t.Out(0) != errorType:
		panic(errors.Errorf("invocation %s returns a value which isn't an error", t))
	}

	m.bindings = append(m.bindings, &binding{
		name: t.String(),
		invoker: func(injector *do.Injector) error {
			results, err := call(injector, fn)
			if err != nil {
				return err
			}
			if len(results) == 1 && !results[0].IsNil() {
				return results[0].Interface().(error)
			}
			return nil
		},
	})
}

func (m *module) register(
	injector *do.Injector,
) {

	for _, b := range m.bindings {
		if b.invoker != nil {
			continue
		}
		provide(injector, b.output.String(), b.provider)

		for _, alias := range b.aliases {
			if !b.output.Implements(alias) {
				panic(errors.Errorf("%s doesn't implement %s", b.output, alias))
			}
			target := b.output.String()
			provide(injector, alias.String(), func(injector *do.Injector) (any, error) {
				return do.InvokeNamed[any](injector, target)
			})
		}
	}
}

func (m *module) initialize(
	injector *do.Injector,
) error {

	for _, b := range m.bindings {
		if b.invoker != nil {
			if err := b.invoker(injector); err != nil {
				return errors.Errorf("module %s: %s", m.name, err)
			}
			continue
		}
		if b.eager {
			if _, err := do.InvokeNamed[any](injector, b.output.String()); err != nil {
				return errors.Errorf("module %s: %s", m.name, err)
			}
		}
	}
	return nil
}

// provide overrides earlier registrations of the same type, so later
// modules can replace defaults.
func provide(
	injector *do.Injector, name string, provider do.Provider[any],
) {

	if lo.Contains(injector.ListProvidedServices(), name) {
		do.OverrideNamed(injector, name, provider)
		return
	}
	do.ProvideNamed(injector, name, provider)
}

func reflectFunction(
	fn any,
) reflect.Value {

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(errors.Errorf("type %T is not a function", fn))
	}
	return v
}

func call(
	injector *do.Injector, fn reflect.Value,
) ([]reflect.Value, error) {

	t := fn.Type()
	params := make([]reflect.Value, 0, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		paramType := t.In(i)
		param, err := do.InvokeNamed[any](injector, paramType.String())
		if err != nil {
			return nil, err
		}
		if param == nil {
			params = append(params, reflect.Zero(paramType))
			continue
		}
		params = append(params, reflect.ValueOf(param))
	}
	return fn.Call(params), nil
}
